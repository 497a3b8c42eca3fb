package dataprocessing

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "plforecast/internal/errors"
	"plforecast/internal/shared/testutil"
)

// buildWorkbook writes rows into sheet starting at A1; nil rows stay blank.
func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	return f
}

func plRows() [][]interface{} {
	return [][]interface{}{
		{"Financial Performance Report"},
		{"Company: Demo Corp"},
		{"Currency: USD"},
		nil,
		nil,
		{"Category", 2024, "2025"},
		{"Gross Sales", 100000, 120000},
		{"Cost of Goods Sold", 30000, 36000},
		nil,
		{"Rent", "12,000", 12500.5},
	}
}

func TestParseFile(t *testing.T) {
	f := buildWorkbook(t, DefaultSheetName, plRows())
	path := filepath.Join(t.TempDir(), "pl.xlsx")
	require.NoError(t, f.SaveAs(path))

	logger, logs := testutil.NewTestLogger(t)
	table, report, err := ParseFile(path, LoadOptions{Logger: logger})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, []string{"2024", "2025"}, table.Columns)
	require.Len(t, table.Items, 3)
	assert.Equal(t, "Gross Sales", table.Items[0].Category)
	assert.Equal(t, 120000.0, table.Items[0].Values["2025"])
	assert.Equal(t, "Rent", table.Items[2].Category)
	assert.Equal(t, 12000.0, table.Items[2].Values["2024"])
	assert.Equal(t, 12500.5, table.Items[2].Values["2025"])

	assert.Equal(t, 5, report.HeaderRow)
	assert.Equal(t, StrategyHeaderKeyword, report.Strategy)
	assert.Equal(t, "xlsx", report.Format)
	assert.Equal(t, DefaultSheetName, report.Sheet)
	assert.Equal(t, 3, report.RowsKept)
	assert.Equal(t, 1, report.RowsDropped)
	assert.Equal(t, []string{"2024", "2025"}, report.YearColumns)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "workbook loaded")
}

func TestParseReader_GrossSalesAnchor(t *testing.T) {
	f := buildWorkbook(t, "P&L", [][]interface{}{
		{"Item", "2024.0", "2025.0"},
		{"Gross Sales", 10, 20},
		{"Marketing", 1, 2},
	})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, report, err := ParseReader(bytes.NewReader(buf.Bytes()), "upload.XLSX", LoadOptions{SheetName: "P&L"})
	require.NoError(t, err)

	assert.Equal(t, 0, report.HeaderRow)
	assert.Equal(t, StrategyGrossSalesAnchor, report.Strategy)
	assert.Equal(t, []string{"2024", "2025"}, table.Columns)
	assert.Len(t, table.Items, 2)
}

func TestParseReader_Failures(t *testing.T) {
	noHeader := buildWorkbook(t, DefaultSheetName, [][]interface{}{
		{"Item", "2024"},
		{"Revenue", 10},
	})
	noHeaderBuf, err := noHeader.WriteToBuffer()
	require.NoError(t, err)

	otherSheet := buildWorkbook(t, "Sheet Two", plRows())
	otherSheetBuf, err := otherSheet.WriteToBuffer()
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		filename string
		wantType apperrors.ErrorType
		wantText string
	}{
		{
			name:     "no header",
			data:     noHeaderBuf.Bytes(),
			filename: "pl.xlsx",
			wantType: apperrors.ErrTypeHeaderNotFound,
			wantText: "gross sales",
		},
		{
			name:     "missing sheet",
			data:     otherSheetBuf.Bytes(),
			filename: "pl.xlsx",
			wantType: apperrors.ErrTypeParsing,
			wantText: DefaultSheetName,
		},
		{
			name:     "not a workbook",
			data:     []byte("this is not a zip archive"),
			filename: "pl.xlsx",
			wantType: apperrors.ErrTypeParsing,
			wantText: "failed to read workbook",
		},
		{
			name:     "unsupported extension",
			data:     []byte("a,b,c"),
			filename: "pl.csv",
			wantType: apperrors.ErrTypeParsing,
			wantText: "unsupported workbook format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			table, report, err := ParseReader(bytes.NewReader(tt.data), tt.filename, LoadOptions{Logger: logger})

			require.Error(t, err)
			assert.Nil(t, table)
			assert.Nil(t, report)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			assert.True(t, strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.wantText)), "got %v", err)
		})
	}
}

func TestParseReader_HeaderNotFoundIsSentinel(t *testing.T) {
	f := buildWorkbook(t, DefaultSheetName, [][]interface{}{{"nothing", "here"}})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, _, err = ParseReader(bytes.NewReader(buf.Bytes()), "pl.xlsx", LoadOptions{})
	assert.True(t, errors.Is(err, ErrHeaderNotFound))
}

func TestParseFile_Missing(t *testing.T) {
	_, _, err := ParseFile(filepath.Join(t.TempDir(), "nope.xlsx"), LoadOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

type panicReader struct{}

func (panicReader) Read([]byte) (int, error) { panic("reader exploded") }

func TestParseReader_RecoversPanic(t *testing.T) {
	table, report, err := ParseReader(panicReader{}, "pl.xlsx", LoadOptions{})

	require.Error(t, err)
	assert.Nil(t, table)
	assert.Nil(t, report)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	assert.Contains(t, err.Error(), "reader exploded")
}
