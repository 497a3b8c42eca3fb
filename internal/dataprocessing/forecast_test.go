package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plforecast/pkg/contracts/domain"
)

func twoYearTable() *domain.Table {
	return &domain.Table{
		Columns: []string{"2024", "2025"},
		Items: []domain.LineItem{
			{Category: "Gross Sales", Values: map[string]float64{"2024": 100000, "2025": 120000}},
			{Category: "Rent", Values: map[string]float64{"2024": 12000, "2025": 11000}},
		},
	}
}

func TestForecast_Momentum(t *testing.T) {
	table := twoYearTable()

	out := Forecast(table, 2024, 2027)

	assert.Equal(t, []string{"2024", "2025", "2026", "2027"}, out.Columns)
	assert.Equal(t, []string{"2026", "2027"}, out.ProjectedYears)
	assert.Equal(t, 2025, out.LastActualYear)
	assert.Equal(t, 2024, out.StartYear)
	assert.Equal(t, 2027, out.EndYear)

	sales := out.Items[0].Values
	assert.Equal(t, 140000.0, sales["2026"])
	assert.Equal(t, 160000.0, sales["2027"])

	rent := out.Items[1].Values
	assert.Equal(t, 10000.0, rent["2026"])
	assert.Equal(t, 9000.0, rent["2027"])
}

func TestForecast_DoesNotMutateInput(t *testing.T) {
	table := twoYearTable()
	before := table.Clone()

	out := Forecast(table, 2024, 2030)

	assert.Equal(t, before, table)
	assert.Equal(t, table.Items[0].Values["2024"], out.Items[0].Values["2024"])
	assert.Equal(t, table.Items[0].Values["2025"], out.Items[0].Values["2025"])
	assert.Len(t, out.Columns, 7)
}

func TestForecast_NoOp(t *testing.T) {
	tests := []struct {
		name    string
		table   *domain.Table
		endYear int
	}{
		{"end year equals last actual", twoYearTable(), 2025},
		{"end year before last actual", twoYearTable(), 2020},
		{
			name: "single year of history",
			table: &domain.Table{
				Columns: []string{"2024", "Notes"},
				Items:   []domain.LineItem{{Category: "Rent", Values: map[string]float64{"2024": 1, "Notes": 0}}},
			},
			endYear: 2030,
		},
		{
			name: "no numeric columns",
			table: &domain.Table{
				Columns: []string{"FY24", "FY25"},
				Items:   []domain.LineItem{{Category: "Rent", Values: map[string]float64{"FY24": 1, "FY25": 2}}},
			},
			endYear: 2030,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Forecast(tt.table, 2024, tt.endYear)
			assert.Equal(t, *tt.table, out.Table)
			assert.Empty(t, out.ProjectedYears)
		})
	}
}

func TestForecast_MissingPriorYear(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"2023", "2025"},
		Items: []domain.LineItem{
			{Category: "Rent", Values: map[string]float64{"2023": 10, "2025": 30}},
			{Category: "Sparse", Values: map[string]float64{}},
		},
	}

	out := Forecast(table, 2023, 2027)

	require.Equal(t, []string{"2026", "2027"}, out.ProjectedYears)
	// 2024 is absent, so 2026 has no y-2 value; 2027 then builds on the projected 2026
	assert.Equal(t, 0.0, out.Items[0].Values["2026"])
	assert.Equal(t, -30.0, out.Items[0].Values["2027"])
	assert.Equal(t, 0.0, out.Items[1].Values["2026"])
	assert.Equal(t, 0.0, out.Items[1].Values["2027"])
}

func TestForecast_IgnoresNonYearColumns(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"2024", "Notes", "2025"},
		Items: []domain.LineItem{
			{Category: "Rent", Values: map[string]float64{"2024": 10, "Notes": 99, "2025": 20}},
		},
	}

	out := Forecast(table, 2024, 2026)

	assert.Equal(t, []string{"2024", "Notes", "2025", "2026"}, out.Columns)
	assert.Equal(t, 30.0, out.Items[0].Values["2026"])
	assert.Equal(t, 99.0, out.Items[0].Values["Notes"])
}

func TestForecast_NilTable(t *testing.T) {
	out := Forecast(nil, 2024, 2028)
	require.NotNil(t, out)
	assert.Empty(t, out.Items)
	assert.Empty(t, out.ProjectedYears)
}
