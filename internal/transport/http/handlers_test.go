package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plforecast/internal/assistant"
	"plforecast/internal/config"
	apierrors "plforecast/internal/errors"
	"plforecast/internal/exporter"
	"plforecast/internal/files"
	"plforecast/internal/middleware"
	"plforecast/internal/services"
	"plforecast/internal/shared/testutil"
	"plforecast/pkg/contracts/domain"
)

type stubProvider struct {
	reply string
	err   error
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) Generate(context.Context, string, string) (string, error) {
	return p.reply, p.err
}

type testServer struct {
	router   chi.Router
	analysis *services.AnalysisService
	paths    *config.Paths
	logs     *testutil.BufferedSlogHandler
}

func newTestServer(t *testing.T, provider assistant.Provider) *testServer {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	dir := t.TempDir()
	paths := &config.Paths{
		DataDir:   filepath.Join(dir, "data"),
		ExportDir: filepath.Join(dir, "exports"),
		LogsDir:   filepath.Join(dir, "logs"),
		WebDir:    filepath.Join(dir, "web"),
	}

	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := middleware.NewValidator(logger, errorHandler, 0)
	analysis := services.NewAnalysisService(config.ForecastConfig{
		SheetName: config.DefaultSheetName,
		StartYear: 2024,
		EndYear:   2026,
	}, nil, logger)
	chat := services.NewChatService(
		assistant.New(provider, 0, logger),
		assistant.NewTranscriptStore(filepath.Join(dir, "session.json")),
		analysis, nil, logger,
	)
	health := services.NewHealthService("test", "", provider.Name(), paths, nil, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api", func(r chi.Router) {
		healthHandler := NewHealthHandler(health, logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)
		r.Post("/logs", NewClientLogHandler(errorHandler, logger).Handle)

		chatHandler := NewChatHandler(chat, validator, errorHandler, logger)
		r.Mount("/chat", chatHandler.Routes())
		r.Mount("/session", chatHandler.SessionRoutes())
		r.Mount("/library", NewLibraryHandler(files.NewManager(paths, logger), analysis, errorHandler, logger).Routes())
		r.Mount("/", NewAnalysisHandler(analysis, validator, errorHandler, paths, 1<<20, logger).Routes())
	})

	return &testServer{router: r, analysis: analysis, paths: paths, logs: logs}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(t *testing.T, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return s.do(t, http.MethodPost, path, bytes.NewReader(body), "application/json")
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func sampleWorkbookBytes(t *testing.T) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.xlsx")
	require.NoError(t, exporter.WriteSampleWorkbook(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})

	tests := []struct {
		path       string
		wantStatus string
	}{
		{"/api/health", "ok"},
		{"/api/health/live", "alive"},
		{"/api/health/ready", "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.NoError(t, s.paths.EnsureDirectories())
			rec := s.do(t, http.MethodGet, tt.path, nil, "")
			assert.Equal(t, http.StatusOK, rec.Code)

			var body services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, "test", body.Version)
		})
	}

	t.Run("version", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/version", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "offline", body["assistant_provider"])
	})
}

func TestReadinessFailsWithoutDirectories(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})
	s.paths.DataDir = filepath.Join(s.paths.DataDir, "missing", "nested")

	rec := s.do(t, http.MethodGet, "/api/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTemplateBecomesCurrentDataset(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})

	rec := s.do(t, http.MethodGet, "/api/dataset", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.TypeConflict, decodeProblem(t, rec)["type"])

	rec = s.do(t, http.MethodGet, "/api/template", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var template domain.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &template))
	assert.NotEmpty(t, template.Items)

	rec = s.do(t, http.MethodGet, "/api/dataset", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadWorkbook(t *testing.T) {
	t.Run("sample workbook", func(t *testing.T) {
		s := newTestServer(t, assistant.OfflineProvider{})
		body, ct := multipartBody(t, "pl.xlsx", sampleWorkbookBytes(t))

		rec := s.do(t, http.MethodPost, "/api/workbooks", body, ct)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp WorkbookResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "xlsx", resp.Report.Format)
		assert.Contains(t, resp.Table.Columns, "2024")
		assert.NotEmpty(t, resp.Table.Items)

		current, err := s.analysis.Current()
		require.NoError(t, err)
		assert.Equal(t, len(resp.Table.Items), len(current.Items))
		testutil.AssertLogContains(t, s.logs, slog.LevelInfo, "workbook uploaded")
	})

	t.Run("wrong extension", func(t *testing.T) {
		s := newTestServer(t, assistant.OfflineProvider{})
		body, ct := multipartBody(t, "pl.csv", []byte("Category,2024\n"))

		rec := s.do(t, http.MethodPost, "/api/workbooks", body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierrors.TypeValidation, decodeProblem(t, rec)["type"])
	})

	t.Run("corrupt workbook", func(t *testing.T) {
		s := newTestServer(t, assistant.OfflineProvider{})
		body, ct := multipartBody(t, "pl.xlsx", []byte("definitely not a zip"))

		rec := s.do(t, http.MethodPost, "/api/workbooks", body, ct)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		s := newTestServer(t, assistant.OfflineProvider{})
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		require.NoError(t, mw.WriteField("note", "no file"))
		require.NoError(t, mw.Close())

		rec := s.do(t, http.MethodPost, "/api/workbooks", buf, mw.FormDataContentType())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		s := newTestServer(t, assistant.OfflineProvider{})
		body, ct := multipartBody(t, "pl.xlsx", bytes.Repeat([]byte("x"), 2<<20))

		rec := s.do(t, http.MethodPost, "/api/workbooks", body, ct)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestForecastEndpoint(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})

	tests := []struct {
		name       string
		body       any
		wantCode   int
		wantField  string
		wantNP2024 float64
	}{
		{
			name:       "explicit table and years",
			body:       ForecastRequest{Table: testutil.TwoYearTable(), StartYear: 2024, EndYear: 2026},
			wantCode:   http.StatusOK,
			wantNP2024: 49500,
		},
		{
			name:       "current dataset and configured years",
			body:       map[string]any{},
			wantCode:   http.StatusOK,
			wantNP2024: 49500,
		},
		{
			name:      "year out of range",
			body:      ForecastRequest{StartYear: 1800},
			wantCode:  http.StatusBadRequest,
			wantField: "start_year",
		},
		{
			name:     "empty table",
			body:     map[string]any{"table": map[string]any{"columns": []string{}, "items": []any{}}},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.postJSON(t, "/api/forecast", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode != http.StatusOK {
				problem := decodeProblem(t, rec)
				if tt.wantField != "" {
					assert.Contains(t, rec.Body.String(), tt.wantField)
				}
				assert.Equal(t, apierrors.TypeValidation, problem["type"])
				return
			}

			var analysis domain.Analysis
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
			require.NotNil(t, analysis.Forecast)
			assert.Equal(t, []string{"2026"}, analysis.Forecast.ProjectedYears)
			assert.Equal(t, tt.wantNP2024, analysis.Summary.Value(domain.MetricNetProfit, "2024"))
			require.NotEmpty(t, analysis.NetProfitTrend)
			assert.Equal(t, "2024", analysis.NetProfitTrend[0].Year)
		})
	}
}

func TestForecastEndpoint_EndBeforeStart(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})

	rec := s.postJSON(t, "/api/forecast", ForecastRequest{Table: testutil.TwoYearTable(), StartYear: 2026, EndYear: 2025})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var analysis domain.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	require.NotNil(t, analysis.Forecast)
	assert.Empty(t, analysis.Forecast.ProjectedYears)
	assert.Equal(t, []string{"2024", "2025"}, analysis.Forecast.Columns)
	require.NotNil(t, analysis.Summary)
	assert.Equal(t, 49500.0, analysis.Summary.Value(domain.MetricNetProfit, "2024"))
	require.NotNil(t, analysis.Executive)
	assert.Equal(t, []string{"2024", "2025"}, analysis.Executive.Columns)
}

func TestClassifyEndpoint(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})

	rec := s.postJSON(t, "/api/classify", map[string]any{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.postJSON(t, "/api/classify", ClassifyRequest{Table: testutil.TwoYearTable()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Rows         []map[string]any `json:"rows"`
		Unclassified int              `json:"unclassified"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.Rows, len(testutil.TwoYearTable().Items))
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})

	rec := s.postJSON(t, "/api/export", ForecastRequest{Table: testutil.TwoYearTable(), StartYear: 2024, EndYear: 2026})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp ExportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Dir)
	assert.NotContains(t, rec.Body.String(), s.paths.ExportDir)
	assert.NotContains(t, resp.Dir, string(filepath.Separator))
	assert.ElementsMatch(t, []string{exporter.ForecastCSV, exporter.SummaryCSV, exporter.ExecutiveCSV, exporter.ForecastXLSX}, resp.Files)
	for _, f := range resp.Files {
		_, err := os.Stat(filepath.Join(s.paths.ExportDir, resp.Dir, f))
		assert.NoError(t, err, f)
	}
}

func TestLibraryEndpoints(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})
	require.NoError(t, os.MkdirAll(s.paths.DataDir, 0755))
	require.NoError(t, exporter.WriteSampleWorkbook(filepath.Join(s.paths.DataDir, "sample.xlsx")))
	require.NoError(t, os.WriteFile(filepath.Join(s.paths.DataDir, "notes.txt"), []byte("x"), 0644))

	t.Run("list workbooks", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/library/workbooks", nil, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LibraryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Workbooks, 1)
		assert.Equal(t, "sample.xlsx", resp.Workbooks[0].Name)
		assert.NotContains(t, rec.Body.String(), s.paths.DataDir)
	})

	t.Run("load workbook", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/library/workbooks/sample.xlsx", nil, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp WorkbookResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Table)
		assert.Equal(t, []string{"2024", "2025"}, resp.Table.Columns)

		current, err := s.analysis.Current()
		require.NoError(t, err)
		assert.Equal(t, resp.Table.Columns, current.Columns)
	})

	t.Run("rejected names", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/library/workbooks/notes.txt", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPost, "/api/library/workbooks/missing.xlsx", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("list exports", func(t *testing.T) {
		rec := s.postJSON(t, "/api/export", ForecastRequest{Table: testutil.TwoYearTable()})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = s.do(t, http.MethodGet, "/api/library/exports", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ExportRunsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Exports, 1)
		assert.Len(t, resp.Exports[0].Files, 4)
	})
}

func TestChatEndpoints(t *testing.T) {
	t.Run("answered and persisted", func(t *testing.T) {
		s := newTestServer(t, stubProvider{reply: "Net profit **grows**."})

		rec := s.postJSON(t, "/api/chat", services.ChatRequest{
			Question: "How is net profit trending?",
			Table:    testutil.TwoYearTable(),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp services.ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Net profit **grows**.", resp.Message)
		assert.Contains(t, resp.HTML, "<strong>grows</strong>")
		assert.Equal(t, assistant.OutcomeAnswered, resp.Outcome)
		assert.Equal(t, "stub", resp.Provider)

		rec = s.do(t, http.MethodGet, "/api/chat/history", nil, "")
		var history HistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
		require.Len(t, history.Messages, 2)
		assert.Equal(t, domain.RoleUser, history.Messages[0].Role)
		assert.Equal(t, domain.RoleAssistant, history.Messages[1].Role)

		rec = s.do(t, http.MethodPost, "/api/session/save", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"messages":2}`, rec.Body.String())

		rec = s.do(t, http.MethodDelete, "/api/chat/history", nil, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = s.do(t, http.MethodPost, "/api/session/load", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"loaded":true,"messages":2}`, rec.Body.String())
	})

	t.Run("provider failure is still a reply", func(t *testing.T) {
		s := newTestServer(t, stubProvider{err: errors.New("quota exceeded")})

		rec := s.postJSON(t, "/api/chat", services.ChatRequest{
			Question: "Why?",
			Table:    testutil.TwoYearTable(),
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp services.ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, assistant.OutcomeError, resp.Outcome)
		assert.Contains(t, resp.Message, "quota exceeded")
	})

	t.Run("no api key", func(t *testing.T) {
		s := newTestServer(t, assistant.OfflineProvider{})

		rec := s.postJSON(t, "/api/chat", services.ChatRequest{
			Question: "Why?",
			Table:    testutil.TwoYearTable(),
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), assistant.NoAPIKeyReply)
	})

	t.Run("rejected requests", func(t *testing.T) {
		s := newTestServer(t, stubProvider{reply: "ok"})

		rec := s.postJSON(t, "/api/chat", services.ChatRequest{Question: ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.postJSON(t, "/api/chat", services.ChatRequest{Question: "   "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.postJSON(t, "/api/chat", services.ChatRequest{Question: "No data yet?"})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("load without session file", func(t *testing.T) {
		s := newTestServer(t, stubProvider{reply: "ok"})

		rec := s.do(t, http.MethodPost, "/api/session/load", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"loaded":false,"messages":0}`, rec.Body.String())
	})
}

func TestClientLogHandler(t *testing.T) {
	s := newTestServer(t, assistant.OfflineProvider{})

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantLevel slog.Level
	}{
		{"error level", `{"level":"error","message":"chart failed","source":"chart.js"}`, http.StatusOK, slog.LevelError},
		{"unknown level", `{"level":"loud","message":"hello"}`, http.StatusOK, slog.LevelInfo},
		{"missing message", `{"level":"info"}`, http.StatusBadRequest, 0},
		{"malformed", `{"level":`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.logs.Clear()
			rec := s.do(t, http.MethodPost, "/api/logs", strings.NewReader(tt.body), "application/json")
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.NotEmpty(t, s.logs.GetRecordsByLevel(tt.wantLevel))
				return
			}
			problem := decodeProblem(t, rec)
			assert.Equal(t, apierrors.TypeValidation, problem["type"])
			assert.Contains(t, []any{"VALIDATION_FAILED", "INVALID_REQUEST"}, problem["error_code"])
		})
	}
}

func TestServeMainApp(t *testing.T) {
	dir := t.TempDir()

	rec := httptest.NewRecorder()
	ServeMainApp(dir, PageData{})(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte(`<html><body>v{{.Version}} {{.StartYear}}-{{.EndYear}}</body></html>`), 0o644))

	rec = httptest.NewRecorder()
	ServeMainApp(dir, PageData{Version: "1.2.0", StartYear: 2024, EndYear: 2028})(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "v1.2.0 2024-2028")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	h := StaticFiles("/static", dir)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
