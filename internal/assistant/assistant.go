package assistant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"plforecast/pkg/contracts/domain"
)

// Fixed replies. None of these is an error from the caller's point of view.
const (
	NoAPIKeyReply      = "I need an API Key to answer intelligently!"
	OllamaDownReply    = "⚠️ **Ollama is not running.**\nPlease download it from [ollama.com](https://ollama.com) and run `ollama serve` in a terminal, or switch to OpenAI/Gemini in the settings."
	providerErrorReply = "AI Error: "
)

// Outcome labels for metrics and logs.
const (
	OutcomeAnswered    = "answered"
	OutcomeNoAPIKey    = "no_api_key"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Reply is the assistant's answer to one question.
type Reply struct {
	Message string `json:"message"`
	HTML    string `json:"html"`
	Outcome string `json:"outcome"`
	Err     error  `json:"-"`
}

// Assistant turns a question about a table into a reply using a Provider.
type Assistant struct {
	provider Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates an Assistant. timeout <= 0 means no per-question deadline.
func New(provider Provider, timeout time.Duration, logger *slog.Logger) *Assistant {
	if provider == nil {
		provider = OfflineProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		provider: provider,
		timeout:  timeout,
		logger:   logger.With(slog.String("component", "assistant"), slog.String("provider", provider.Name())),
	}
}

// ProviderName returns the active provider.
func (a *Assistant) ProviderName() string { return a.provider.Name() }

// Ask answers question about table. Provider failures are folded into the reply text;
// Reply.Err keeps the cause for logging.
func (a *Assistant) Ask(ctx context.Context, table *domain.Table, question string) Reply {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.provider.Generate(ctx, BuildSystemPrompt(table), question)

	var reply Reply
	switch {
	case err == nil:
		reply = Reply{Message: text, Outcome: OutcomeAnswered}
	case errors.Is(err, ErrNoAPIKey):
		reply = Reply{Message: NoAPIKeyReply, Outcome: OutcomeNoAPIKey, Err: err}
	case errors.Is(err, ErrProviderUnavailable):
		reply = Reply{Message: OllamaDownReply, Outcome: OutcomeUnavailable, Err: err}
	default:
		reply = Reply{Message: providerErrorReply + err.Error(), Outcome: OutcomeError, Err: err}
	}

	html, renderErr := RenderHTML(reply.Message)
	if renderErr != nil {
		a.logger.WarnContext(ctx, "failed to render reply", slog.String("error", renderErr.Error()))
	}
	reply.HTML = html

	a.logger.InfoContext(ctx, "question answered",
		slog.String("outcome", reply.Outcome),
		slog.Int("question_length", len(question)),
		slog.Duration("duration", time.Since(start)))
	return reply
}
