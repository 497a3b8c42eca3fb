package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"plforecast/pkg/contracts/domain"
)

// Sheet names used by WriteWorkbook.
const (
	SheetForecast  = "Forecast"
	SheetSummary   = "Summary"
	SheetExecutive = "Executive Summary"
	SheetTrend     = "Net Profit Trend"
)

// WriteWorkbook writes an analysis to an .xlsx file with one sheet per artifact.
// Nil parts of the analysis are skipped; the forecast is required.
func WriteWorkbook(path string, analysis *domain.Analysis) error {
	if analysis == nil || analysis.Forecast == nil {
		return fmt.Errorf("no forecast to write to %s", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetForecast); err != nil {
		return fmt.Errorf("failed to name forecast sheet: %w", err)
	}
	headers, records := tableRecords(&analysis.Forecast.Table)
	if err := writeSheet(f, SheetForecast, headers, numericRows(records)); err != nil {
		return err
	}

	if analysis.Summary != nil {
		headers, records := viewRecords(analysis.Summary)
		if err := writeSheet(f, SheetSummary, headers, numericRows(records)); err != nil {
			return err
		}
	}

	if analysis.Executive != nil {
		headers, records := viewRecords(analysis.Executive)
		if err := writeSheet(f, SheetExecutive, headers, numericRows(records)); err != nil {
			return err
		}
	}

	if len(analysis.NetProfitTrend) > 0 {
		rows := make([][]interface{}, 0, len(analysis.NetProfitTrend))
		for _, p := range analysis.NetProfitTrend {
			rows = append(rows, []interface{}{p.Year, p.Value})
		}
		if err := writeSheet(f, SheetTrend, []string{"Year", domain.MetricNetProfit}, rows); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	slog.Info("Wrote workbook",
		slog.String("path", path),
		slog.Int("forecast_rows", len(analysis.Forecast.Items)),
		slog.Int("columns", len(analysis.Forecast.Columns)))
	return nil
}

// writeSheet creates sheet if needed and writes headers at A1 followed by rows.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("failed to look up sheet %s: %w", sheet, err)
	}
	if idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// numericRows keeps the label column as text and turns value cells back into numbers
// so Excel can sum them; empty cells stay blank.
func numericRows(records [][]string) [][]interface{} {
	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		row := make([]interface{}, len(rec))
		for i, cell := range rec {
			if i == 0 {
				row[i] = cell
				continue
			}
			if cell == "" {
				continue
			}
			if v, ok := parseFormatted(cell); ok {
				row[i] = v
			} else {
				row[i] = cell
			}
		}
		rows = append(rows, row)
	}
	return rows
}
