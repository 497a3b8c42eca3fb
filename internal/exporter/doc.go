// Package exporter turns analysis results into files and text.
//
// CSVWriter writes tables and summary views as CSV with a UTF-8 BOM so Excel opens
// them correctly. WriteWorkbook writes the same artifacts as sheets of one .xlsx file,
// and ExportAll produces all of them concurrently into a directory.
//
// TableToMarkdown and ViewToMarkdown render pipe tables for the assistant prompt and the
// command line report. WriteSampleWorkbook produces the demo workbook used for first runs.
//
// Example usage:
//
//	paths, err := exporter.ExportAll(ctx, "data/exports/20240101_120000", analysis)
//	fmt.Print(exporter.ViewToMarkdown(analysis.Summary))
package exporter
