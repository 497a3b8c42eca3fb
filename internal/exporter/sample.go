package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"plforecast/internal/dataprocessing"
)

// SampleLineItem is one row of the demo workbook.
type SampleLineItem struct {
	Category string
	Y2024    float64
	Y2025    float64
}

// SampleBanner is written above the header row, as real exported reports do.
var SampleBanner = []string{
	"Financial Performance Report",
	"Company: Demo Corp",
	"Currency: USD",
}

// SampleHeaderRow is the 1-based worksheet row holding "Category | 2024 | 2025".
const SampleHeaderRow = 6

// SampleLineItems mixes input rows with the calculated lines a report usually carries
// (Gross Profit, Total Operating Expenses, EBIT, Net Profit).
var SampleLineItems = []SampleLineItem{
	{"Gross Sales", 100000, 120000},
	{"Less Sales Discounts", -2000, -2200},
	{"Less Sales Returns", -1000, -1100},
	{"Cost of Goods Sold", 30000, 36000},
	{"Gross Profit", 67000, 80700},
	{"Operating Expenses", 0, 0},
	{"Marketing & Advertising", 5000, 6000},
	{"Salaries & Wages", 25000, 28000},
	{"Payroll Benefits & Taxes", 5000, 5500},
	{"Travel & Entertainment", 2000, 2500},
	{"Web Hosting and maintenance", 500, 600},
	{"Stationary", 200, 250},
	{"Rent", 12000, 12500},
	{"Utilities", 2000, 2200},
	{"Office Supplies", 1000, 1100},
	{"Professional Fees", 1500, 1000},
	{"Insurance", 1200, 1300},
	{"Depreciation", 1000, 1000},
	{"Total Operating Expenses", 56400, 61950},
	{"EBIT", 10600, 18750},
	{"Interest Expense", 500, 450},
	{"Income Tax", 2000, 3500},
	{"Net Profit", 8100, 14800},
}

// WriteSampleWorkbook writes the demo profit-and-loss workbook to path.
func WriteSampleWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := dataprocessing.DefaultSheetName
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sample sheet: %w", err)
	}

	for i, line := range SampleBanner {
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", i+1), line); err != nil {
			return err
		}
	}

	header := []interface{}{"Category", "2024", "2025"}
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", SampleHeaderRow), &header); err != nil {
		return fmt.Errorf("failed to write sample header: %w", err)
	}

	for i, item := range SampleLineItems {
		row := []interface{}{item.Category, item.Y2024, item.Y2025}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", SampleHeaderRow+1+i), &row); err != nil {
			return fmt.Errorf("failed to write sample row %q: %w", item.Category, err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return f.SaveAs(path)
}
