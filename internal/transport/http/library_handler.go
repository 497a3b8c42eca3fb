package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "plforecast/internal/errors"
	"plforecast/internal/files"
	"plforecast/internal/services"
)

// LibraryResponse lists the workbooks kept in the data directory.
type LibraryResponse struct {
	Workbooks []files.FileInfo `json:"workbooks"`
}

// ExportRunsResponse lists past export runs.
type ExportRunsResponse struct {
	Exports []files.ExportRun `json:"exports"`
}

// LibraryHandler serves the workbooks dropped into the data directory and the
// export runs written so far.
type LibraryHandler struct {
	files        *files.Manager
	service      *services.AnalysisService
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewLibraryHandler creates a library handler.
func NewLibraryHandler(manager *files.Manager, service *services.AnalysisService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *LibraryHandler {
	return &LibraryHandler{
		files:        manager,
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "library_handler")),
	}
}

// Routes returns the library routes
func (h *LibraryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/workbooks", h.ListWorkbooks)
	r.Post("/workbooks/{name}", h.LoadWorkbook)
	r.Get("/exports", h.ListExports)

	return r
}

// ListWorkbooks handles GET /api/library/workbooks
func (h *LibraryHandler) ListWorkbooks(w http.ResponseWriter, r *http.Request) {
	workbooks, err := h.files.Workbooks()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("list workbooks", err))
		return
	}
	render.JSON(w, r, LibraryResponse{Workbooks: workbooks})
}

// LoadWorkbook handles POST /api/library/workbooks/{name}; the workbook becomes
// the current dataset.
func (h *LibraryHandler) LoadWorkbook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	path, err := h.files.ResolveWorkbook(name)
	if err != nil {
		switch {
		case errors.Is(err, files.ErrNotFound):
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError("workbook"))
		case errors.Is(err, files.ErrInvalidName):
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", err.Error()))
		default:
			h.errorHandler.HandleError(w, r, err)
		}
		return
	}

	table, report, err := h.service.LoadFile(r.Context(), path)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	h.logger.InfoContext(r.Context(), "library workbook loaded",
		slog.String("name", name),
		slog.Int("rows", len(table.Items)))

	render.JSON(w, r, WorkbookResponse{Table: table, Report: report})
}

// ListExports handles GET /api/library/exports
func (h *LibraryHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	runs, err := h.files.ExportRuns()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("list exports", err))
		return
	}
	render.JSON(w, r, ExportRunsResponse{Exports: runs})
}
