package domain

import (
	"sort"
	"strconv"
)

// CategoryColumn is the label forced onto the first column of every normalized table.
const CategoryColumn = "Category"

// RawGrid is a headerless grid of worksheet cells. A cell is a string, a number or nil;
// rows may have different lengths.
type RawGrid [][]any

// LineItem represents one row of a profit-and-loss table, e.g. "Rent" or "Gross Sales".
// Values is keyed by the table's column labels; a missing key means the cell never existed.
type LineItem struct {
	Category string             `json:"category"`
	Values   map[string]float64 `json:"values"`
}

// Value returns the value stored for column and whether it was present.
func (li LineItem) Value(column string) (float64, bool) {
	v, ok := li.Values[column]
	return v, ok
}

// Table is the normalized row/year table every analysis step works on.
// Columns holds the value column labels in source order (the Category column is implicit).
type Table struct {
	Columns []string   `json:"columns" validate:"required,min=1"`
	Items   []LineItem `json:"items" validate:"required,min=1"`
}

// Clone returns a deep copy so derived tables never share maps with their input.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Items:   make([]LineItem, len(t.Items)),
	}
	for i, item := range t.Items {
		values := make(map[string]float64, len(item.Values))
		for k, v := range item.Values {
			values[k] = v
		}
		out.Items[i] = LineItem{Category: item.Category, Values: values}
	}
	return out
}

// HasColumn reports whether column is one of the table's value columns.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Years returns the columns whose label is made only of digits, as ascending integers.
func (t *Table) Years() []int {
	var years []int
	for _, c := range t.Columns {
		if y, ok := YearOf(c); ok {
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years
}

// YearOf parses a column label that consists solely of ASCII digits.
func YearOf(label string) (int, bool) {
	if label == "" {
		return 0, false
	}
	for _, r := range label {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	y, err := strconv.Atoi(label)
	if err != nil {
		return 0, false
	}
	return y, true
}

// ForecastedTable is a Table whose year columns were extended past the last actual year.
type ForecastedTable struct {
	Table
	StartYear      int      `json:"start_year"`
	EndYear        int      `json:"end_year"`
	LastActualYear int      `json:"last_actual_year,omitempty"`
	ProjectedYears []string `json:"projected_years,omitempty"`
}

// Summary metric names.
const (
	MetricGrossProfit   = "Gross Profit"
	MetricTotalExpenses = "Total Expenses"
	MetricNetProfit     = "Net Profit"
)

// Executive summary metric names.
const (
	MetricNetSales          = "Net Sales"
	MetricDirectCost        = "Direct Cost"
	MetricGrossMargin       = "Gross Margin (Profit)"
	MetricGrossMarginPct    = "Gross Margin %"
	MetricOperatingExpenses = "Operating Expenses"
	MetricInterest          = "Interest"
	MetricTaxes             = "Taxes"
	MetricEBIT              = "EBIT (Earnings before Interest and Taxes)"
)

// MetricRow is one named row of a derived view.
type MetricRow struct {
	Name   string             `json:"name"`
	Values map[string]float64 `json:"values"`
}

// View is a read-only table of named metric rows by column. SummaryView and
// ExecutiveSummaryView are both Views; they differ only in which metrics they carry.
type View struct {
	Columns []string    `json:"columns"`
	Rows    []MetricRow `json:"rows"`
}

// Row returns the metric row with the given name.
func (v *View) Row(name string) (MetricRow, bool) {
	for _, r := range v.Rows {
		if r.Name == name {
			return r, true
		}
	}
	return MetricRow{}, false
}

// Value returns the metric value for column, or 0 when either is unknown.
func (v *View) Value(metric, column string) float64 {
	row, ok := v.Row(metric)
	if !ok {
		return 0
	}
	return row.Values[column]
}

// SeriesPoint is one point of a per-year metric series.
type SeriesPoint struct {
	Year  string  `json:"year"`
	Value float64 `json:"value"`
}
