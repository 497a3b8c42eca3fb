// Package dataprocessing turns a loosely structured annual profit-and-loss worksheet into a
// canonical table, projects future years and derives roll-up metrics.
//
// # Pipeline
//
//	RawGrid -> LocateHeader -> Normalize -> Table -> Forecast -> ForecastedTable
//	                                                   |
//	                                     Summarize / SummarizeExecutive -> View
//
// ParseFile and ParseReader wrap the first two steps for .xlsx and .xls workbooks and are the
// only functions here that touch the file system or log. Everything else is pure: inputs are
// never mutated and each call recomputes its result from scratch.
//
// # Missing data
//
// Unparseable numeric cells, rows that match no keyword and missing prior-year values during
// forecasting all resolve to 0 instead of failing.
//
// # Classification
//
// Line items are bucketed by case-insensitive substring match against a Taxonomy. Two
// resolution strategies coexist on purpose:
//
//	ResolveSingle         first matching row only (gross sales, discounts, returns, COGS)
//	ResolveSumByKeywords  every matching row for every keyword; a row hit by two keywords
//	                      is counted twice
//
// Usage:
//
//	table, report, err := dataprocessing.ParseFile("pl.xlsx", dataprocessing.LoadOptions{})
//	if err != nil {
//	    return err
//	}
//	forecast := dataprocessing.Forecast(table, 2024, 2028)
//	summary := dataprocessing.Summarize(&forecast.Table)
package dataprocessing
