package testutil

import (
	"plforecast/pkg/contracts/domain"
)

// TwoYearTable returns a small profit-and-loss table with 2024 and 2025 actuals.
//
//	2024: gross profit 67000, total expenses 17500, net profit 49500
//	2025: gross profit 80700, total expenses 18950, net profit 61750
func TwoYearTable() *domain.Table {
	row := func(category string, y2024, y2025 float64) domain.LineItem {
		return domain.LineItem{
			Category: category,
			Values:   map[string]float64{"2024": y2024, "2025": y2025},
		}
	}
	return &domain.Table{
		Columns: []string{"2024", "2025"},
		Items: []domain.LineItem{
			row("Gross Sales", 100000, 120000),
			row("Less Sales Discounts", -2000, -2200),
			row("Less Sales Returns", -1000, -1100),
			row("Cost of Goods Sold", 30000, 36000),
			row("Marketing & Advertising", 5000, 6000),
			row("Rent", 12000, 12500),
			row("Interest Expense", 500, 450),
		},
	}
}
