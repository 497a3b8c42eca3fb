package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	apperrors "plforecast/internal/errors"
	"plforecast/pkg/contracts/domain"
)

// DefaultSheetName is the worksheet a profit-and-loss workbook is read from.
const DefaultSheetName = "5 YEARS_Annual Profit and Loss"

// LoadOptions controls how a workbook is read.
type LoadOptions struct {
	// SheetName defaults to DefaultSheetName.
	SheetName string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// LoadReport describes what a successful load found.
type LoadReport struct {
	File        string         `json:"file"`
	Sheet       string         `json:"sheet"`
	Format      string         `json:"format"`
	HeaderRow   int            `json:"header_row"`
	Strategy    HeaderStrategy `json:"strategy"`
	RawRows     int            `json:"raw_rows"`
	RowsKept    int            `json:"rows_kept"`
	RowsDropped int            `json:"rows_dropped"`
	YearColumns []string       `json:"year_columns"`
}

func (o LoadOptions) withDefaults() LoadOptions {
	if strings.TrimSpace(o.SheetName) == "" {
		o.SheetName = DefaultSheetName
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ParseFile reads a profit-and-loss workbook from disk.
func ParseFile(path string, opts LoadOptions) (*domain.Table, *LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("file", path)
	}
	defer f.Close()

	return ParseReader(f, filepath.Base(path), opts)
}

// ParseReader reads a workbook from r. filename selects the format by extension: .xlsx, .xlsm
// and .xltx go through excelize, .xls through xlsReader.
//
// Every failure, including a panic inside a workbook reader, comes back as an *AppError of
// type PARSING or HEADER_NOT_FOUND with a nil table. A partial table is never returned.
func ParseReader(r io.Reader, filename string, opts LoadOptions) (table *domain.Table, report *LoadReport, err error) {
	opts = opts.withDefaults()
	logger := opts.Logger.With(slog.String("component", "workbook_loader"), slog.String("file", filename))

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while reading workbook", slog.Any("panic", rec))
			table, report = nil, nil
			err = apperrors.NewParsingError("workbook reader crashed", fmt.Errorf("%v", rec)).
				WithContext("file", filename)
		}
	}()

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	var grid domain.RawGrid
	switch format {
	case "xlsx", "xlsm", "xltx":
		grid, err = readXLSX(r, opts.SheetName)
	case "xls":
		grid, err = readXLS(r, opts.SheetName)
	default:
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("unsupported workbook format %q", filepath.Ext(filename)), nil).
			WithContext("file", filename)
	}
	if err != nil {
		logger.Warn("workbook could not be read", slog.String("error", err.Error()))
		return nil, nil, apperrors.NewParsingError("failed to read workbook", err).
			WithContext("file", filename).
			WithContext("sheet", opts.SheetName)
	}

	match, err := LocateHeader(grid)
	if err != nil {
		logger.Warn("header row not found",
			slog.String("sheet", opts.SheetName),
			slog.Int("rows", len(grid)))
		return nil, nil, apperrors.NewHeaderNotFoundError("workbook has no recognisable header row", err).
			WithContext("file", filename).
			WithContext("sheet", opts.SheetName)
	}

	table = Normalize(grid, match.Row)

	bodyRows := len(grid) - match.Row - 1
	report = &LoadReport{
		File:        filename,
		Sheet:       opts.SheetName,
		Format:      format,
		HeaderRow:   match.Row,
		Strategy:    match.Strategy,
		RawRows:     len(grid),
		RowsKept:    len(table.Items),
		RowsDropped: bodyRows - len(table.Items),
		YearColumns: yearColumns(table),
	}

	logger.Info("workbook loaded",
		slog.String("sheet", report.Sheet),
		slog.Int("header_row", report.HeaderRow),
		slog.String("strategy", string(report.Strategy)),
		slog.Int("rows_kept", report.RowsKept),
		slog.Int("rows_dropped", report.RowsDropped),
		slog.Any("year_columns", report.YearColumns))

	return table, report, nil
}

func readXLSX(r io.Reader, sheet string) (domain.RawGrid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("worksheet %q not found (have %s)", sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}
	return stringsToGrid(rows), nil
}

// readXLS spools r to a temp file because xlsReader only opens paths.
func readXLS(r io.Reader, sheet string) (domain.RawGrid, error) {
	tmp, err := os.CreateTemp("", "plforecast-*.xls")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, r); err != nil {
		return nil, fmt.Errorf("failed to spool xls: %w", err)
	}
	tmp.Close()

	book, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	names := make([]string, 0, book.GetNumberSheets())
	for i := 0; i < book.GetNumberSheets(); i++ {
		ws, err := book.GetSheet(i)
		if err != nil || ws == nil {
			continue
		}
		name := strings.TrimSpace(ws.GetName())
		names = append(names, name)
		if name != strings.TrimSpace(sheet) {
			continue
		}

		last := int(ws.GetNumberRows())
		grid := make(domain.RawGrid, 0, last+1)
		for n := 0; n <= last; n++ {
			row, err := ws.GetRow(n)
			if err != nil || row == nil {
				// keep row positions aligned with the sheet
				grid = append(grid, []any{})
				continue
			}
			cells := make([]any, 0, len(row.GetCols()))
			for _, col := range row.GetCols() {
				if col == nil {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, col.GetString())
			}
			grid = append(grid, cells)
		}
		return trimTrailingEmpty(grid), nil
	}

	return nil, fmt.Errorf("worksheet %q not found (have %s)", sheet, strings.Join(names, ", "))
}

func stringsToGrid(rows [][]string) domain.RawGrid {
	grid := make(domain.RawGrid, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		grid[i] = cells
	}
	return grid
}

func trimTrailingEmpty(grid domain.RawGrid) domain.RawGrid {
	n := len(grid)
	for n > 0 && rowIsEmpty(grid[n-1]) {
		n--
	}
	return grid[:n]
}

func yearColumns(table *domain.Table) []string {
	out := []string{}
	for _, y := range table.Years() {
		out = append(out, strconv.Itoa(y))
	}
	return out
}
