package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plforecast/internal/config"
	"plforecast/internal/shared/testutil"
	"plforecast/pkg/contracts/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, utf8BOM), "missing UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(content[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{ExportDir: "/tmp/exports"}
	writer := NewCSVWriter(paths)

	assert.Equal(t, paths, writer.paths)
	assert.Equal(t, filepath.Join("/tmp/exports", "forecast.csv"), writer.resolvePath("forecast.csv"))
	assert.Equal(t, "/abs/forecast.csv", writer.resolvePath("/abs/forecast.csv"))
	assert.Equal(t, "forecast.csv", NewCSVWriter(nil).resolvePath("forecast.csv"))
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(&config.Paths{ExportDir: dir})

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, content string)
	}{
		{
			name:     "basic write with headers",
			filePath: "basic.csv",
			options: WriteOptions{
				Headers: []string{"Category", "2024"},
				Records: [][]string{{"Rent", "12000"}, {"Utilities", "2000"}},
			},
			validate: func(t *testing.T, content string) {
				assert.Equal(t, "Category,2024\nRent,12000\nUtilities,2000\n", content)
			},
		},
		{
			name:     "quotes categories containing commas",
			filePath: "quoted.csv",
			options: WriteOptions{
				Headers: []string{"Category"},
				Records: [][]string{{"Salaries, Wages"}},
			},
			validate: func(t *testing.T, content string) {
				assert.Equal(t, "Category\n\"Salaries, Wages\"\n", content)
			},
		},
		{
			name:     "creates nested directories",
			filePath: filepath.Join("nested", "deep", "out.csv"),
			options: WriteOptions{
				Headers: []string{"Category"},
			},
			validate: func(t *testing.T, content string) {
				assert.Equal(t, "Category\n", content)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))
			content, err := os.ReadFile(filepath.Join(dir, tt.filePath))
			require.NoError(t, err)
			tt.validate(t, string(content))
		})
	}
}

func TestCSVWriter_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "append.csv")
	writer := NewCSVWriter(nil)

	require.NoError(t, writer.WriteSimpleCSV(path, []string{"Category", "2024"}, [][]string{{"Rent", "1"}}))
	require.NoError(t, writer.WriteCSV(path, WriteOptions{
		Headers: []string{"ignored"},
		Records: [][]string{{"Utilities", "2"}},
		Append:  true,
	}))

	records := readCSV(t, path)
	assert.Equal(t, [][]string{{"Category", "2024"}, {"Rent", "1"}, {"Utilities", "2"}}, records)
}

func TestCSVWriter_WriteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	table := testutil.TwoYearTable()
	table.Items[0].Values = map[string]float64{table.Columns[0]: 1.5}

	require.NoError(t, NewCSVWriter(nil).WriteTable(path, table))

	records := readCSV(t, path)
	require.Len(t, records, len(table.Items)+1)
	assert.Equal(t, append([]string{"Category"}, table.Columns...), records[0])
	assert.Equal(t, table.Items[0].Category, records[1][0])
	assert.Equal(t, "1.5", records[1][1])
	assert.Equal(t, "", records[1][2], "absent cells stay empty")
}

func TestCSVWriter_WriteView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	view := &domain.View{
		Columns: []string{"2024", "2025"},
		Rows: []domain.MetricRow{
			{Name: domain.MetricGrossProfit, Values: map[string]float64{"2024": 67000, "2025": 80700}},
			{Name: domain.MetricNetProfit, Values: map[string]float64{"2024": 10100}},
		},
	}

	require.NoError(t, NewCSVWriter(nil).WriteView(path, view))

	assert.Equal(t, [][]string{
		{"Metric", "2024", "2025"},
		{"Gross Profit", "67000", "80700"},
		{"Net Profit", "10100", ""},
	}, readCSV(t, path))
}

func TestCSVWriter_NilInputs(t *testing.T) {
	writer := NewCSVWriter(nil)
	dir := t.TempDir()

	err := writer.WriteTable(filepath.Join(dir, "t.csv"), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no table"))

	assert.Error(t, writer.WriteView(filepath.Join(dir, "v.csv"), nil))
}
