package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"plforecast/internal/config"
	"plforecast/pkg/contracts/domain"
)

// utf8BOM makes Excel open exported files as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance. Relative paths resolve under
// paths.ExportDir; a nil paths leaves them relative to the working directory.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSimpleCSV writes a simple CSV file with headers and records
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// WriteTable writes a normalized or forecasted table: a Category column followed by
// the table's value columns in order.
func (w *CSVWriter) WriteTable(filePath string, table *domain.Table) error {
	if table == nil {
		return fmt.Errorf("no table to write to %s", filePath)
	}
	headers, records := tableRecords(table)
	return w.WriteSimpleCSV(filePath, headers, records)
}

// WriteView writes a summary view: a Metric column followed by the view's columns.
func (w *CSVWriter) WriteView(filePath string, view *domain.View) error {
	if view == nil {
		return fmt.Errorf("no view to write to %s", filePath)
	}
	headers, records := viewRecords(view)
	return w.WriteSimpleCSV(filePath, headers, records)
}

// resolvePath resolves a relative path against the export directory.
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil || w.paths.ExportDir == "" {
		return filePath
	}
	return filepath.Join(w.paths.ExportDir, filePath)
}

func tableRecords(table *domain.Table) ([]string, [][]string) {
	headers := append([]string{domain.CategoryColumn}, table.Columns...)
	records := make([][]string, 0, len(table.Items))
	for _, item := range table.Items {
		row := make([]string, 0, len(headers))
		row = append(row, item.Category)
		for _, col := range table.Columns {
			row = append(row, formatCell(item.Value(col)))
		}
		records = append(records, row)
	}
	return headers, records
}

func viewRecords(view *domain.View) ([]string, [][]string) {
	headers := append([]string{"Metric"}, view.Columns...)
	records := make([][]string, 0, len(view.Rows))
	for _, metric := range view.Rows {
		row := make([]string, 0, len(headers))
		row = append(row, metric.Name)
		for _, col := range view.Columns {
			v, ok := metric.Values[col]
			row = append(row, formatCell(v, ok))
		}
		records = append(records, row)
	}
	return headers, records
}
