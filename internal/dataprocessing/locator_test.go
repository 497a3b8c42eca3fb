package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plforecast/pkg/contracts/domain"
)

func TestLocateHeader(t *testing.T) {
	tests := []struct {
		name         string
		grid         domain.RawGrid
		wantRow      int
		wantStrategy HeaderStrategy
	}{
		{
			name: "category label",
			grid: domain.RawGrid{
				{"Financial Performance Report"},
				{"Company: Demo Corp"},
				{},
				{"Category", "2024", "2025"},
				{"Gross Sales", 100000.0, 120000.0},
			},
			wantRow:      3,
			wantStrategy: StrategyHeaderKeyword,
		},
		{
			name: "category in any column and any case",
			grid: domain.RawGrid{
				{nil, 2024.0, "notes"},
				{2024.0, "Line ITEM CATEGORY", nil},
				{"Gross Sales", 1.0},
			},
			wantRow:      1,
			wantStrategy: StrategyHeaderKeyword,
		},
		{
			name: "account label",
			grid: domain.RawGrid{
				{"Report"},
				{"Account Name", "FY2024"},
				{"Gross Sales", 5.0},
			},
			wantRow:      1,
			wantStrategy: StrategyHeaderKeyword,
		},
		{
			name: "keyword wins over a later gross sales row",
			grid: domain.RawGrid{
				{"Gross Sales", 1.0},
				{"Category", "2024"},
			},
			wantRow:      1,
			wantStrategy: StrategyHeaderKeyword,
		},
		{
			name: "row above gross sales",
			grid: domain.RawGrid{
				{"P&L"},
				{"Item", "2024", "2025"},
				{"Total Gross Sales", 100.0, 120.0},
			},
			wantRow:      1,
			wantStrategy: StrategyGrossSalesAnchor,
		},
		{
			name: "gross sales on the first row",
			grid: domain.RawGrid{
				{"GROSS SALES", 100.0},
				{"Rent", 10.0},
			},
			wantRow:      0,
			wantStrategy: StrategyGrossSalesAnchor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, err := LocateHeader(tt.grid)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRow, match.Row)
			assert.Equal(t, tt.wantStrategy, match.Strategy)
		})
	}
}

func TestLocateHeader_NotFound(t *testing.T) {
	grids := map[string]domain.RawGrid{
		"empty":       {},
		"only blanks": {{nil, ""}, {}},
		"no signal": {
			{"Item", "2024"},
			{"Revenue", 100.0},
			{"Rent", 10.0},
		},
	}

	for name, grid := range grids {
		t.Run(name, func(t *testing.T) {
			match, err := LocateHeader(grid)
			require.Error(t, err)
			assert.Equal(t, -1, match.Row)
			assert.True(t, errors.Is(err, ErrHeaderNotFound))

			var hnf *HeaderNotFoundError
			require.True(t, errors.As(err, &hnf))
			assert.Len(t, hnf.Strategies, 2)
			assert.Contains(t, err.Error(), "category")
			assert.Contains(t, err.Error(), "gross sales")
		})
	}
}

func TestCellText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Rent", "Rent"},
		{2024.0, "2024"},
		{1234.5, "1234.5"},
		{float32(2.5), "2.5"},
		{7, "7"},
		{int64(-3), "-3"},
		{true, "true"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cellText(tt.in))
	}
}
