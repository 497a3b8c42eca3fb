package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"plforecast/pkg/contracts/domain"
)

// Export file names written by ExportAll.
const (
	ForecastCSV  = "forecast.csv"
	SummaryCSV   = "summary.csv"
	ExecutiveCSV = "executive.csv"
	ForecastXLSX = "forecast.xlsx"
)

// ExportAll writes the forecast, both summaries and the combined workbook into dir
// concurrently. The first failure cancels the rest and is returned. The returned paths
// are in a fixed order regardless of completion order.
func ExportAll(ctx context.Context, dir string, analysis *domain.Analysis) ([]string, error) {
	if analysis == nil || analysis.Forecast == nil {
		return nil, fmt.Errorf("nothing to export")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	start := time.Now()
	writer := NewCSVWriter(nil)
	paths := []string{
		filepath.Join(dir, ForecastCSV),
		filepath.Join(dir, SummaryCSV),
		filepath.Join(dir, ExecutiveCSV),
		filepath.Join(dir, ForecastXLSX),
	}

	jobs := []func() error{
		func() error { return writer.WriteTable(paths[0], &analysis.Forecast.Table) },
		func() error { return writer.WriteView(paths[1], analysis.Summary) },
		func() error { return writer.WriteView(paths[2], analysis.Executive) },
		func() error { return WriteWorkbook(paths[3], analysis) },
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return job()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("export to %s failed: %w", dir, err)
	}

	slog.InfoContext(ctx, "Export completed",
		slog.String("dir", dir),
		slog.Int("files", len(paths)),
		slog.Duration("duration", time.Since(start)))
	return paths, nil
}
