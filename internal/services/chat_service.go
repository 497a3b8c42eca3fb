package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"plforecast/internal/assistant"
	apperrors "plforecast/internal/errors"
	"plforecast/internal/infrastructure"
	"plforecast/pkg/contracts/domain"
)

// ChatRequest is one question about a table. A nil Table means the current dataset;
// zero years fall back to the configured horizon.
type ChatRequest struct {
	Question  string        `json:"question" validate:"required,max=4000"`
	Table     *domain.Table `json:"table,omitempty"`
	StartYear int           `json:"start_year,omitempty" validate:"omitempty,min=1900,max=2100"`
	EndYear   int           `json:"end_year,omitempty" validate:"omitempty,min=1900,max=2100"`
}

// ChatResponse carries the reply and the two transcript entries the exchange added.
type ChatResponse struct {
	Message  string               `json:"message"`
	HTML     string               `json:"html"`
	Outcome  string               `json:"outcome"`
	Provider string               `json:"provider"`
	Messages []domain.ChatMessage `json:"messages"`
}

// ChatService runs questions through the assistant against the forecast of a table
// and keeps the running transcript.
type ChatService struct {
	assistant *assistant.Assistant
	store     *assistant.TranscriptStore
	analysis  *AnalysisService
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger

	mu         sync.Mutex
	transcript []domain.ChatMessage
}

// NewChatService creates a chat service. metrics may be nil.
func NewChatService(a *assistant.Assistant, store *assistant.TranscriptStore, analysis *AnalysisService, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		assistant:  a,
		store:      store,
		analysis:   analysis,
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "chat_service")),
		transcript: []domain.ChatMessage{},
	}
}

// Ask answers req.Question. Provider failures become reply text, never errors; errors
// are reserved for requests that cannot be asked at all.
func (s *ChatService) Ask(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	table := req.Table
	if table == nil {
		current, err := s.analysis.Current()
		if err != nil {
			return nil, err
		}
		table = current
	}

	forecast, err := s.analysis.Forecast(ctx, table, req.StartYear, req.EndYear)
	if err != nil {
		return nil, err
	}

	userMsg := domain.ChatMessage{ID: uuid.New().String(), Role: domain.RoleUser, Content: question}
	reply := s.assistant.Ask(ctx, &forecast.Table, question)
	assistantMsg := domain.ChatMessage{ID: uuid.New().String(), Role: domain.RoleAssistant, Content: reply.Message}

	s.mu.Lock()
	s.transcript = append(s.transcript, userMsg, assistantMsg)
	s.mu.Unlock()

	provider := s.assistant.ProviderName()
	infrastructure.RecordChat(ctx, s.metrics, provider, reply.Outcome)
	if reply.Err != nil && reply.Outcome == assistant.OutcomeError {
		appErr := apperrors.NewProviderError(provider, reply.Err)
		s.logger.WarnContext(ctx, "assistant provider failed",
			slog.String("error", appErr.Error()),
			slog.String("provider", provider))
	}

	return &ChatResponse{
		Message:  reply.Message,
		HTML:     reply.HTML,
		Outcome:  reply.Outcome,
		Provider: provider,
		Messages: []domain.ChatMessage{userMsg, assistantMsg},
	}, nil
}

// History returns a copy of the transcript in order.
func (s *ChatService) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Save writes the transcript to the session file.
func (s *ChatService) Save(ctx context.Context) (int, error) {
	history := s.History()
	if err := s.store.Save(&domain.Transcript{ChatHistory: history}); err != nil {
		return 0, apperrors.NewStorageError("save session", err)
	}
	s.logger.InfoContext(ctx, "session saved",
		slog.String("file", s.store.Path()),
		slog.Int("messages", len(history)))
	return len(history), nil
}

// Load replaces the transcript with the session file. A missing file leaves the
// transcript untouched and reports loaded=false.
func (s *ChatService) Load(ctx context.Context) (loaded bool, messages int, err error) {
	transcript, found, err := s.store.Load()
	if err != nil {
		return false, 0, apperrors.NewStorageError("load session", err)
	}
	if !found {
		s.logger.DebugContext(ctx, "no session file", slog.String("file", s.store.Path()))
		return false, len(s.History()), nil
	}

	s.mu.Lock()
	s.transcript = transcript.ChatHistory
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session loaded",
		slog.String("file", s.store.Path()),
		slog.Int("messages", len(transcript.ChatHistory)))
	return true, len(transcript.ChatHistory), nil
}

// Clear drops the in-memory transcript. The session file is not touched.
func (s *ChatService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = []domain.ChatMessage{}
}
