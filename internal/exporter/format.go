package exporter

import (
	"strconv"
)

// formatFloat renders a value with the shortest exact representation ("67000", "0.25").
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatCell renders a table cell; absent cells render empty.
func formatCell(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return formatFloat(v)
}

// parseFormatted reverses formatFloat.
func parseFormatted(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
