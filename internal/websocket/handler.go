package websocket

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"plforecast/internal/config"
	apierrors "plforecast/internal/errors"
	"plforecast/internal/infrastructure"
)

// Options tunes the chat socket. Zero fields take the defaults.
type Options struct {
	// AllowedOrigins lists accepted Origin headers; empty or "*" accepts all.
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
	PingPeriod      time.Duration
	PongWait        time.Duration
	// MaxMessageBytes bounds one inbound frame; question frames may carry a whole table.
	MaxMessageBytes int64
}

func (o Options) withDefaults() Options {
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = config.WebSocketReadBufferSize
	}
	if o.WriteBufferSize <= 0 {
		o.WriteBufferSize = config.WebSocketWriteBufferSize
	}
	if o.PongWait <= 0 {
		o.PongWait = config.WebSocketPongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = (o.PongWait * 9) / 10
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 1 << 20
	}
	return o
}

// OptionsFromConfig maps the websocket and security sections onto Options.
func OptionsFromConfig(ws config.WebSocketConfig, security config.SecurityConfig) Options {
	return Options{
		AllowedOrigins:  security.AllowedOrigins,
		ReadBufferSize:  ws.ReadBufferSize,
		WriteBufferSize: ws.WriteBufferSize,
		PingPeriod:      ws.PingPeriod,
		PongWait:        ws.PongWait,
		MaxMessageBytes: ws.MaxMessageBytes,
	}
}

// Handler upgrades GET /ws/chat and attaches the connection to the hub.
type Handler struct {
	hub      *Hub
	asker    Asker
	opts     Options
	upgrader websocket.Upgrader
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewHandler creates the chat socket handler.
func NewHandler(hub *Hub, asker Asker, opts Options, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	opts = opts.withDefaults()
	errorHandler := apierrors.NewErrorHandler(logger, false)
	return &Handler{
		hub:   hub,
		asker: asker,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  opts.ReadBufferSize,
			WriteBufferSize: opts.WriteBufferSize,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
			Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
				errorHandler.HandleError(w, r, apierrors.WebSocketUpgradeError(status, reason))
			},
		},
		metrics: metrics,
		logger:  logger.With(slog.String("component", "websocket.handler")),
	}
}

// ServeHTTP upgrades the request. Failed handshakes are answered with a problem document.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	client := NewClient(h.hub, conn, h.asker, h.opts, infrastructure.GetTraceID(r.Context()), h.metrics, h.logger)
	h.hub.serve(client)
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
