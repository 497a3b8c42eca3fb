package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"plforecast/pkg/contracts/domain"
)

const (
	minYear = 1900
	maxYear = 2100
)

var (
	decimalMinYear = decimal.NewFromInt(minYear)
	decimalMaxYear = decimal.NewFromInt(maxYear)
)

// Normalize turns a raw grid into a Table using headerRow as the header.
//
// The first column is always the line item label and is exposed as Category whatever the
// source header said. Other headers go through CanonicalYear. Rows below the header whose
// cells are all empty are dropped; row order is preserved. Cells that do not parse as
// numbers become 0.
//
// Normalize never fails: an out-of-range headerRow yields an empty table.
func Normalize(grid domain.RawGrid, headerRow int) *domain.Table {
	table := &domain.Table{Columns: []string{}, Items: []domain.LineItem{}}
	if headerRow < 0 || headerRow >= len(grid) {
		return table
	}

	header := grid[headerRow]
	body := grid[headerRow+1:]

	width := len(header)
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return table
	}

	seen := make(map[string]int, width)
	for j := 1; j < width; j++ {
		var raw any
		if j < len(header) {
			raw = header[j]
		}
		label := CanonicalYear(raw)
		if label == "" {
			label = fmt.Sprintf("Unnamed: %d", j)
		}
		if n, dup := seen[label]; dup {
			seen[label] = n + 1
			label = fmt.Sprintf("%s.%d", label, n+1)
		} else {
			seen[label] = 0
		}
		table.Columns = append(table.Columns, label)
	}

	for _, row := range body {
		if rowIsEmpty(row) {
			continue
		}
		item := domain.LineItem{
			Category: strings.TrimSpace(cellText(cellAt(row, 0))),
			Values:   make(map[string]float64, len(table.Columns)),
		}
		for j, column := range table.Columns {
			v, _ := parseNumber(cellAt(row, j+1))
			item.Values[column] = v
		}
		table.Items = append(table.Items, item)
	}

	return table
}

// CanonicalYear canonicalizes a column header. Labels that parse as a whole number between
// 1900 and 2100 become plain integer strings ("2024.0" and 2024.0 both give "2024"); anything
// else is returned as its trimmed string form.
func CanonicalYear(label any) string {
	text := strings.TrimSpace(cellText(label))
	d, err := decimal.NewFromString(text)
	if err != nil {
		return text
	}
	if !d.IsInteger() || d.LessThan(decimalMinYear) || d.GreaterThan(decimalMaxYear) {
		return text
	}
	return strconv.FormatInt(d.IntPart(), 10)
}

// parseNumber coerces a cell to a float. Thousands separators and accounting parentheses
// are accepted; anything else unparseable reports false.
func parseNumber(cell any) (float64, bool) {
	switch v := cell.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}

	text := strings.TrimSpace(cellText(cell))
	if text == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		negative = true
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	text = strings.ReplaceAll(text, ",", "")

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, true
}

func cellAt(row []any, j int) any {
	if j < len(row) {
		return row[j]
	}
	return nil
}

func rowIsEmpty(row []any) bool {
	for _, cell := range row {
		if strings.TrimSpace(cellText(cell)) != "" {
			return false
		}
	}
	return true
}
