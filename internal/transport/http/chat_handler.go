package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "plforecast/internal/errors"
	"plforecast/internal/middleware"
	"plforecast/internal/services"
	"plforecast/pkg/contracts/domain"
)

// HistoryResponse is the running transcript.
type HistoryResponse struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// SessionResponse reports a session save or load.
type SessionResponse struct {
	Loaded   *bool `json:"loaded,omitempty"`
	Messages int   `json:"messages"`
}

// ChatHandler serves the assistant chat and its session file.
type ChatHandler struct {
	service      *services.ChatService
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewChatHandler creates a chat handler
func NewChatHandler(service *services.ChatService, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "chat_handler")),
	}
}

// Routes returns the chat routes, mounted at /api/chat
func (h *ChatHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Ask)
	r.Get("/history", h.History)
	r.Delete("/history", h.Clear)

	return r
}

// SessionRoutes returns the session file routes, mounted at /api/session
func (h *ChatHandler) SessionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/save", h.SaveSession)
	r.Post("/load", h.LoadSession)

	return r
}

// Ask handles POST /api/chat. Provider failures still answer 200 with the failure
// as the reply text.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req services.ChatRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Ask(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}
	render.JSON(w, r, resp)
}

// History handles GET /api/chat/history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HistoryResponse{Messages: h.service.History()})
}

// Clear handles DELETE /api/chat/history
func (h *ChatHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.service.Clear()
	h.logger.InfoContext(r.Context(), "chat history cleared")
	w.WriteHeader(http.StatusNoContent)
}

// SaveSession handles POST /api/session/save
func (h *ChatHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Save(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, SessionResponse{Messages: n})
}

// LoadSession handles POST /api/session/load
func (h *ChatHandler) LoadSession(w http.ResponseWriter, r *http.Request) {
	loaded, n, err := h.service.Load(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, SessionResponse{Loaded: &loaded, Messages: n})
}
