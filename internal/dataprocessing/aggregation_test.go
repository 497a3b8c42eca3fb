package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plforecast/pkg/contracts/domain"
)

func item(category string, values map[string]float64) domain.LineItem {
	return domain.LineItem{Category: category, Values: values}
}

func basicTable() *domain.Table {
	return &domain.Table{
		Columns: []string{"2024"},
		Items: []domain.LineItem{
			item("Gross Sales", map[string]float64{"2024": 100000}),
			item("Cost of Goods Sold", map[string]float64{"2024": 30000}),
			item("Marketing", map[string]float64{"2024": 5000}),
			item("Rent", map[string]float64{"2024": 12000}),
		},
	}
}

func TestSummarize_Totals(t *testing.T) {
	view := Summarize(basicTable())

	assert.Equal(t, []string{"2024"}, view.Columns)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, domain.MetricGrossProfit, view.Rows[0].Name)
	assert.Equal(t, domain.MetricTotalExpenses, view.Rows[1].Name)
	assert.Equal(t, domain.MetricNetProfit, view.Rows[2].Name)

	assert.Equal(t, 70000.0, view.Value(domain.MetricGrossProfit, "2024"))
	assert.Equal(t, 17000.0, view.Value(domain.MetricTotalExpenses, "2024"))
	assert.Equal(t, 53000.0, view.Value(domain.MetricNetProfit, "2024"))
}

func TestSummarize_FirstMatchAndDoubleCount(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"2024", "2025"},
		Items: []domain.LineItem{
			item("Gross Sales - Domestic", map[string]float64{"2024": 60, "2025": 70}),
			item("Gross Sales", map[string]float64{"2024": 100, "2025": 110}),
			item("Less Sales Discounts", map[string]float64{"2024": -5, "2025": -6}),
			item("Less Sales Returns", map[string]float64{"2024": -1}),
			item("Cost of Goods Sold", map[string]float64{"2024": 20, "2025": 25}),
			item("Office Rent", map[string]float64{"2024": 3, "2025": 4}),
		},
	}

	view := Summarize(table)

	// net sales uses only the first gross sales row: 60 - 5 - 1
	assert.Equal(t, 34.0, view.Value(domain.MetricGrossProfit, "2024"))
	// "Office Rent" matches both "office" and "rent"
	assert.Equal(t, 6.0, view.Value(domain.MetricTotalExpenses, "2024"))
	assert.Equal(t, 28.0, view.Value(domain.MetricNetProfit, "2024"))

	// the returns row has no 2025 cell
	assert.Equal(t, 39.0, view.Value(domain.MetricGrossProfit, "2025"))
	assert.Equal(t, 8.0, view.Value(domain.MetricTotalExpenses, "2025"))
}

func TestSummarizeExecutive(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"2024"},
		Items: []domain.LineItem{
			item("Gross Sales", map[string]float64{"2024": 100000}),
			item("Less Sales Discounts", map[string]float64{"2024": -2000}),
			item("Less Sales Returns", map[string]float64{"2024": -1000}),
			item("Cost of Goods Sold", map[string]float64{"2024": 30000}),
			item("Salaries & Wages", map[string]float64{"2024": 25000}),
			item("Amortization", map[string]float64{"2024": 400}),
			item("Bad Debt", map[string]float64{"2024": 100}),
			item("Interest Expense", map[string]float64{"2024": 500}),
			item("Income Tax", map[string]float64{"2024": 2000}),
		},
	}

	view := SummarizeExecutive(table)

	require.Len(t, view.Rows, 8)
	names := make([]string, 0, len(view.Rows))
	for _, r := range view.Rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{
		domain.MetricNetSales,
		domain.MetricDirectCost,
		domain.MetricGrossMargin,
		domain.MetricGrossMarginPct,
		domain.MetricOperatingExpenses,
		domain.MetricInterest,
		domain.MetricTaxes,
		domain.MetricEBIT,
	}, names)

	assert.Equal(t, 97000.0, view.Value(domain.MetricNetSales, "2024"))
	assert.Equal(t, 30000.0, view.Value(domain.MetricDirectCost, "2024"))
	assert.Equal(t, 67000.0, view.Value(domain.MetricGrossMargin, "2024"))
	assert.InDelta(t, 67000.0/97000.0*100, view.Value(domain.MetricGrossMarginPct, "2024"), 1e-9)
	assert.Equal(t, 25500.0, view.Value(domain.MetricOperatingExpenses, "2024"), "interest and tax are not operating expenses")
	assert.Equal(t, 500.0, view.Value(domain.MetricInterest, "2024"))
	assert.Equal(t, 2000.0, view.Value(domain.MetricTaxes, "2024"))
	assert.Equal(t, 41500.0, view.Value(domain.MetricEBIT, "2024"))
}

func TestSummarizeExecutive_ZeroNetSales(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"2024", "2025"},
		Items: []domain.LineItem{
			item("Gross Sales", map[string]float64{"2024": 0, "2025": 50}),
			item("Cost of Goods Sold", map[string]float64{"2024": 10, "2025": 10}),
		},
	}

	view := SummarizeExecutive(table)

	assert.Equal(t, 0.0, view.Value(domain.MetricGrossMarginPct, "2024"))
	assert.Equal(t, -10.0, view.Value(domain.MetricGrossMargin, "2024"))
	assert.Equal(t, 80.0, view.Value(domain.MetricGrossMarginPct, "2025"))
}

func TestSummaries_Idempotent(t *testing.T) {
	table := Forecast(basicTable(), 2024, 2026)
	snapshot := table.Table.Clone()

	agg := NewAggregator(nil)
	assert.Equal(t, agg.Summarize(&table.Table), agg.Summarize(&table.Table))
	assert.Equal(t, agg.SummarizeExecutive(&table.Table), agg.SummarizeExecutive(&table.Table))
	assert.Equal(t, snapshot, &table.Table, "summaries must not mutate the table")
}

func TestSummaries_EmptyInputs(t *testing.T) {
	for _, table := range []*domain.Table{nil, {}} {
		summary := Summarize(table)
		assert.Len(t, summary.Rows, 3)
		assert.Empty(t, summary.Columns)

		exec := SummarizeExecutive(table)
		assert.Len(t, exec.Rows, 8)
	}
}

func TestAggregator_CustomTaxonomy(t *testing.T) {
	tax := DefaultTaxonomy()
	tax[BucketGrossSales] = []string{"Revenue"}
	tax[BucketExpenses] = []string{"Overheads"}

	table := &domain.Table{
		Columns: []string{"2024"},
		Items: []domain.LineItem{
			item("Total Revenue", map[string]float64{"2024": 500}),
			item("Overheads", map[string]float64{"2024": 120}),
			item("Rent", map[string]float64{"2024": 1000}),
		},
	}

	view := NewAggregator(tax).Summarize(table)

	assert.Equal(t, 500.0, view.Value(domain.MetricGrossProfit, "2024"))
	assert.Equal(t, 120.0, view.Value(domain.MetricTotalExpenses, "2024"))
	assert.Equal(t, 380.0, view.Value(domain.MetricNetProfit, "2024"))

	assert.Equal(t, []string{"gross sales"}, DefaultTaxonomy()[BucketGrossSales], "DefaultTaxonomy returns a fresh map")
}

func TestResolveStrategies(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"2024"},
		Items: []domain.LineItem{
			item("Rent - HQ", map[string]float64{"2024": 10}),
			item("  RENT - Warehouse ", map[string]float64{"2024": 5}),
			item("Utilities", map[string]float64{}),
		},
	}

	assert.Equal(t, 10.0, ResolveSingle(table, "2024", []string{"rent"}))
	assert.Equal(t, 0.0, ResolveSingle(table, "2024", []string{"insurance"}))
	assert.Equal(t, 0.0, ResolveSingle(table, "2024", []string{"utilities"}), "matched row without the column")
	assert.Equal(t, 10.0, ResolveSingle(table, "2024", []string{"warehouse", "hq"}), "first row in table order wins")

	assert.Equal(t, 15.0, ResolveSumByKeywords(table, "2024", []string{"rent"}))
	assert.Equal(t, 25.0, ResolveSumByKeywords(table, "2024", []string{"rent", "hq"}))
	assert.Equal(t, 0.0, ResolveSumByKeywords(table, "2025", []string{"rent"}))
	assert.Equal(t, 0.0, ResolveSumByKeywords(nil, "2024", []string{"rent"}))
}

func TestNetProfitTrend(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"2023", "Notes", "2024", "2025"},
		Items: []domain.LineItem{
			item("Gross Sales", map[string]float64{"2023": 50, "2024": 100, "2025": 120}),
			item("Rent", map[string]float64{"2023": 10, "2024": 10, "2025": 15}),
		},
	}

	points := NetProfitTrend(Summarize(table), 2024)

	assert.Equal(t, []domain.SeriesPoint{
		{Year: "2024", Value: 90},
		{Year: "2025", Value: 105},
	}, points)
	assert.Empty(t, NetProfitTrend(nil, 2024))
}
