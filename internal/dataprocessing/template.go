package dataprocessing

import (
	"plforecast/pkg/contracts/domain"
)

// StarterCategories is the line item roster offered for manual entry.
var StarterCategories = []string{
	"Gross Sales",
	"Less Sales Discounts (enter as negative)",
	"Less Sales Returns (enter as negative)",
	"Cost of Goods Sold",
	"Marketing & Advertising",
	"Salaries & Wages",
	"Payroll Benefits & Taxes",
	"Travel & Entertainment",
	"Web Hosting and maintenance",
	"Stationary",
	"Rent",
	"Utilities",
	"Office Supplies",
	"Professional Fees",
	"Insurance",
	"Depreciation",
	"Interest Expense",
	"Other Operating Expenses1",
	"Other Operating Expenses2",
	"Other Operating Expenses3",
	"Other Operating Expenses4",
	"Other Operating Expenses5",
}

// TemplateYears are the year columns of a fresh manual-entry table.
var TemplateYears = []string{"2024", "2025"}

// EmptyTemplate returns a manual-entry table with every starter category and every template
// year set to 0. It bypasses header location and normalization.
func EmptyTemplate() *domain.Table {
	table := &domain.Table{
		Columns: append([]string(nil), TemplateYears...),
		Items:   make([]domain.LineItem, 0, len(StarterCategories)),
	}
	for _, category := range StarterCategories {
		values := make(map[string]float64, len(TemplateYears))
		for _, y := range TemplateYears {
			values[y] = 0
		}
		table.Items = append(table.Items, domain.LineItem{Category: category, Values: values})
	}
	return table
}
