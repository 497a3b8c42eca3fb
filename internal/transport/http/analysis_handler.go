package http

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"plforecast/internal/config"
	"plforecast/internal/dataprocessing"
	apierrors "plforecast/internal/errors"
	"plforecast/internal/middleware"
	"plforecast/internal/services"
	"plforecast/pkg/contracts/domain"
)

// ForecastRequest asks for an analysis of a table. A missing table means the current
// dataset; zero years fall back to the configured horizon.
type ForecastRequest struct {
	Table     *domain.Table `json:"table,omitempty"`
	StartYear int           `json:"start_year,omitempty" validate:"omitempty,min=1900,max=2100"`
	EndYear   int           `json:"end_year,omitempty" validate:"omitempty,min=1900,max=2100"`
}

// ClassifyRequest asks which summary buckets each row of a table feeds.
type ClassifyRequest struct {
	Table *domain.Table `json:"table,omitempty"`
}

// WorkbookResponse is the normalized table parsed from an upload.
type WorkbookResponse struct {
	Table  *domain.Table              `json:"table"`
	Report *dataprocessing.LoadReport `json:"report"`
}

// ExportResponse lists the files one export run produced. Names are relative to the
// export root, as in the library listing.
type ExportResponse struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// AnalysisHandler serves workbook ingestion, forecasting and export.
type AnalysisHandler struct {
	service      *services.AnalysisService
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	paths        *config.Paths
	maxUpload    int64
	logger       *slog.Logger
}

// NewAnalysisHandler creates an analysis handler. maxUpload <= 0 uses the default limit.
func NewAnalysisHandler(
	service *services.AnalysisService,
	validator *middleware.Validator,
	errorHandler *apierrors.ErrorHandler,
	paths *config.Paths,
	maxUpload int64,
	logger *slog.Logger,
) *AnalysisHandler {
	if maxUpload <= 0 {
		maxUpload = config.DefaultMaxUploadBytes
	}
	return &AnalysisHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		paths:        paths,
		maxUpload:    maxUpload,
		logger:       logger.With(slog.String("component", "analysis_handler")),
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/template", h.GetTemplate)
	r.Get("/dataset", h.GetDataset)
	r.Post("/workbooks", h.UploadWorkbook)
	r.Post("/forecast", h.Forecast)
	r.Post("/classify", h.Classify)
	r.Post("/export", h.Export)

	return r
}

// GetTemplate handles GET /api/template
func (h *AnalysisHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Template())
}

// GetDataset handles GET /api/dataset
func (h *AnalysisHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Current()
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, table)
}

// UploadWorkbook handles POST /api/workbooks with the workbook in the "file" field.
func (h *AnalysisHandler) UploadWorkbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	if err := h.validator.ValidateVar("file", header.Filename, "workbook"); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	table, report, err := h.service.LoadWorkbook(r.Context(), file, header.Filename)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "workbook uploaded",
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size),
		slog.Int("rows", len(table.Items)))

	render.JSON(w, r, WorkbookResponse{Table: table, Report: report})
}

// Forecast handles POST /api/forecast
func (h *AnalysisHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analyze(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, analysis)
}

// Export handles POST /api/export. It runs the same analysis as Forecast and writes
// every artifact into a fresh directory under the export root.
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	analysis, ok := h.analyze(w, r)
	if !ok {
		return
	}

	dir := h.paths.ExportRunDir(time.Now())
	files, err := h.service.Export(r.Context(), dir, analysis)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("export", err))
		return
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, ExportResponse{Dir: filepath.Base(dir), Files: names})
}

// Classify handles POST /api/classify
func (h *AnalysisHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	table, err := h.tableOrCurrent(req.Table)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	report, err := h.service.Classify(r.Context(), table)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, report)
}

func (h *AnalysisHandler) analyze(w http.ResponseWriter, r *http.Request) (*domain.Analysis, bool) {
	var req ForecastRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}

	table, err := h.tableOrCurrent(req.Table)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return nil, false
	}

	analysis, err := h.service.Analyze(r.Context(), table, req.StartYear, req.EndYear)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return nil, false
	}
	return analysis, true
}

// tableOrCurrent keeps an edited table as the current dataset, or falls back to it.
func (h *AnalysisHandler) tableOrCurrent(table *domain.Table) (*domain.Table, error) {
	if table == nil {
		return h.service.Current()
	}
	h.service.SetCurrent(table)
	return table, nil
}
