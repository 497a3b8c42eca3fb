package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"plforecast/internal/config"
	"plforecast/internal/dataprocessing"
	"plforecast/internal/exporter"
	"plforecast/internal/infrastructure"
	"plforecast/pkg/contracts/domain"
)

// AnalysisService loads profit-and-loss tables and derives forecasts and summaries
// from them. Every analysis is recomputed from its input; the only state kept is the
// most recently loaded table, which the chat uses when a request carries none.
type AnalysisService struct {
	cfg        config.ForecastConfig
	aggregator *dataprocessing.Aggregator
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger

	mu        sync.RWMutex
	current   *domain.Table
	listeners []func(*domain.Table)
}

// NewAnalysisService creates an analysis service. metrics may be nil.
func NewAnalysisService(cfg config.ForecastConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SheetName == "" {
		cfg.SheetName = dataprocessing.DefaultSheetName
	}
	return &AnalysisService{
		cfg:        cfg,
		aggregator: dataprocessing.NewAggregator(nil),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "analysis_service")),
	}
}

// DefaultYears returns the configured forecast horizon.
func (s *AnalysisService) DefaultYears() (startYear, endYear int) {
	return s.cfg.StartYear, s.cfg.EndYear
}

// ResolveYears fills zero years from configuration. The two years are not
// ordered against each other: an end year at or before the last actual year
// makes the forecast a no-op.
func (s *AnalysisService) ResolveYears(startYear, endYear int) (int, int) {
	if startYear == 0 {
		startYear = s.cfg.StartYear
	}
	if endYear == 0 {
		endYear = s.cfg.EndYear
	}
	return startYear, endYear
}

// LoadWorkbook parses an uploaded workbook and makes it the current dataset.
func (s *AnalysisService) LoadWorkbook(ctx context.Context, r io.Reader, filename string) (*domain.Table, *dataprocessing.LoadReport, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xls":
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidFileType, filename)
	}

	table, report, err := dataprocessing.ParseReader(r, filename, s.loadOptions())
	return s.finishLoad(ctx, table, report, err)
}

// LoadFile parses a workbook from disk and makes it the current dataset.
func (s *AnalysisService) LoadFile(ctx context.Context, path string) (*domain.Table, *dataprocessing.LoadReport, error) {
	table, report, err := dataprocessing.ParseFile(path, s.loadOptions())
	return s.finishLoad(ctx, table, report, err)
}

func (s *AnalysisService) loadOptions() dataprocessing.LoadOptions {
	return dataprocessing.LoadOptions{SheetName: s.cfg.SheetName, Logger: s.logger}
}

func (s *AnalysisService) finishLoad(ctx context.Context, table *domain.Table, report *dataprocessing.LoadReport, err error) (*domain.Table, *dataprocessing.LoadReport, error) {
	format, strategy := "", ""
	if report != nil {
		format, strategy = report.Format, string(report.Strategy)
	}
	infrastructure.RecordWorkbookLoad(ctx, s.metrics, format, strategy, err)

	if err != nil {
		s.logger.WarnContext(ctx, "workbook rejected", slog.String("error", err.Error()))
		return nil, report, err
	}

	s.SetCurrent(table)
	return table, report, nil
}

// Template returns the blank manual entry table and makes it the current dataset.
func (s *AnalysisService) Template() *domain.Table {
	table := dataprocessing.EmptyTemplate()
	s.SetCurrent(table)
	return table
}

// OnDatasetChanged registers fn to run after every replacement of the current
// dataset. fn receives its own copy of the new table.
func (s *AnalysisService) OnDatasetChanged(fn func(table *domain.Table)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SetCurrent replaces the current dataset with a copy of table.
func (s *AnalysisService) SetCurrent(table *domain.Table) {
	s.mu.Lock()
	s.current = table.Clone()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(table.Clone())
	}
}

// Current returns a copy of the current dataset.
func (s *AnalysisService) Current() (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoDataset
	}
	return s.current.Clone(), nil
}

// Forecast projects table to endYear. Zero years fall back to configuration.
func (s *AnalysisService) Forecast(ctx context.Context, table *domain.Table, startYear, endYear int) (*domain.ForecastedTable, error) {
	if table == nil {
		return nil, ErrNoDataset
	}
	startYear, endYear = s.ResolveYears(startYear, endYear)
	return dataprocessing.Forecast(table, startYear, endYear), nil
}

// Analyze forecasts table and summarizes the forecast. Zero years fall back to
// configuration.
func (s *AnalysisService) Analyze(ctx context.Context, table *domain.Table, startYear, endYear int) (*domain.Analysis, error) {
	start := time.Now()

	forecast, err := s.Forecast(ctx, table, startYear, endYear)
	if err != nil {
		return nil, err
	}

	summary := s.aggregator.Summarize(&forecast.Table)
	analysis := &domain.Analysis{
		Forecast:       forecast,
		Summary:        summary,
		Executive:      s.aggregator.SummarizeExecutive(&forecast.Table),
		NetProfitTrend: dataprocessing.NetProfitTrend(summary, forecast.StartYear),
	}

	duration := time.Since(start)
	infrastructure.RecordForecast(ctx, s.metrics, len(forecast.ProjectedYears), duration)

	s.logger.InfoContext(ctx, "analysis completed",
		slog.Int("rows", len(forecast.Items)),
		slog.Int("start_year", forecast.StartYear),
		slog.Int("end_year", forecast.EndYear),
		slog.Any("projected_years", forecast.ProjectedYears),
		slog.Duration("duration", duration))

	return analysis, nil
}

// Classify reports which buckets each row of table feeds.
func (s *AnalysisService) Classify(ctx context.Context, table *domain.Table) (*dataprocessing.ClassificationReport, error) {
	if table == nil {
		return nil, ErrNoDataset
	}
	report := dataprocessing.Classify(table, s.aggregator.Taxonomy())
	s.logger.DebugContext(ctx, "classification computed", slog.Int("rows", len(table.Items)))
	return report, nil
}

// Export writes every artifact of analysis into dir.
func (s *AnalysisService) Export(ctx context.Context, dir string, analysis *domain.Analysis) ([]string, error) {
	paths, err := exporter.ExportAll(ctx, dir, analysis)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "analysis exported", slog.String("dir", dir), slog.Int("files", len(paths)))
	return paths, nil
}
