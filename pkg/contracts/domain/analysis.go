package domain

// Analysis bundles everything derived from one normalized table for one forecast horizon.
type Analysis struct {
	Forecast       *ForecastedTable `json:"forecast"`
	Summary        *View            `json:"summary"`
	Executive      *View            `json:"executive"`
	NetProfitTrend []SeriesPoint    `json:"net_profit_trend"`
}
