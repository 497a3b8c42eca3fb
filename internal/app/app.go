package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"plforecast/internal/assistant"
	"plforecast/internal/config"
	apierrors "plforecast/internal/errors"
	"plforecast/internal/files"
	"plforecast/internal/infrastructure"
	customMiddleware "plforecast/internal/middleware"
	"plforecast/internal/services"
	handlers "plforecast/internal/transport/http"
	ws "plforecast/internal/websocket"
	"plforecast/pkg/contracts/domain"
)

var (
	// BuildTime is set at compile time with -ldflags "-X plforecast/internal/app.BuildTime=..."
	BuildTime string
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	WebSocketHub  *ws.Hub
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler

	listener net.Listener
	serveErr chan error
	stopOnce sync.Once
	stopErr  error
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Analysis *services.AnalysisService
	Chat     *services.ChatService
	Health   *services.HealthService
	Provider assistant.Provider
}

// NewApplication loads the configuration, initialises the global logger and
// builds the application rooted at the working directory.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, "")
}

// New builds the application from an already loaded configuration. Relative
// paths are resolved against baseDir; an empty baseDir means the working directory.
func New(cfg *config.Config, logger *slog.Logger, baseDir string) (*Application, error) {
	if cfg == nil {
		return nil, apierrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("provider", cfg.Assistant.Provider))

	paths, err := cfg.ResolvePaths(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	logger.Info("Ensuring required directories exist")
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	a.Logger.Info("Initializing services")

	provider, err := assistant.NewProvider(a.Config.Assistant)
	if err != nil {
		return fmt.Errorf("failed to create assistant provider: %w", err)
	}
	a.Logger.Info("Assistant provider selected", slog.String("provider", provider.Name()))

	chatAssistant := assistant.New(provider, a.Config.Assistant.Timeout, a.Logger)
	transcripts := assistant.NewTranscriptStore(a.Paths.SessionFile)

	analysis := services.NewAnalysisService(a.Config.Forecast, a.Metrics, a.Logger)
	chat := services.NewChatService(chatAssistant, transcripts, analysis, a.Metrics, a.Logger)

	a.WebSocketHub = ws.NewHub(a.Metrics, a.Logger)
	a.WebSocketHub.Start()
	hub := a.WebSocketHub
	analysis.OnDatasetChanged(func(table *domain.Table) {
		hub.Notify(fmt.Sprintf("dataset updated: %d line items, columns %s",
			len(table.Items), strings.Join(table.Columns, ", ")))
	})

	health := services.NewHealthService(config.AppVersion, BuildTime, provider.Name(), a.Paths, a.WebSocketHub, a.Logger)

	a.Services = &ServiceContainer{
		Analysis: analysis,
		Chat:     chat,
		Health:   health,
		Provider: provider,
	}

	a.Logger.Info("Services initialized successfully")
	return nil
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// Chat socket; the upgrade is answered before the request middleware group.
	r.Handle(config.WebSocketEndpoint, ws.NewHandler(
		a.WebSocketHub,
		a.Services.Chat,
		ws.OptionsFromConfig(a.Config.WebSocket, a.Config.Security),
		a.Metrics,
		a.Logger,
	))

	validator := customMiddleware.NewValidator(a.Logger, a.ErrorHandler, a.Config.Forecast.MaxUploadBytes)

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Warn("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, validator)
		a.setupStaticRoutes(r)
		a.setupHTMLRoutes(r)

		if a.OTelProviders.PrometheusHTTP != nil {
			r.Handle(config.MetricsEndpoint, a.OTelProviders.PrometheusHTTP)
		}
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API routes
func (a *Application) setupAPIRoutes(r chi.Router, validator *customMiddleware.Validator) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	analysisHandler := handlers.NewAnalysisHandler(
		a.Services.Analysis,
		validator,
		a.ErrorHandler,
		a.Paths,
		a.Config.Forecast.MaxUploadBytes,
		a.Logger,
	)
	chatHandler := handlers.NewChatHandler(a.Services.Chat, validator, a.ErrorHandler, a.Logger)
	clientLogHandler := handlers.NewClientLogHandler(a.ErrorHandler, a.Logger)
	libraryHandler := handlers.NewLibraryHandler(
		files.NewManager(a.Paths, a.Logger),
		a.Services.Analysis,
		a.ErrorHandler,
		a.Logger,
	)

	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(validator.ValidateRequest)

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)
		r.Post("/logs", clientLogHandler.Handle)

		r.Mount("/chat", chatHandler.Routes())
		r.Mount("/session", chatHandler.SessionRoutes())
		r.Mount("/library", libraryHandler.Routes())
		r.Mount("/", analysisHandler.Routes())
	})
}

// setupStaticRoutes serves the front end assets
func (a *Application) setupStaticRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Use(middleware.SetHeader("Cache-Control", "public, max-age=3600"))
		r.Handle("/static/*", handlers.StaticFiles("/static", filepath.Join(a.Paths.WebDir, "static")))
	})
}

// setupHTMLRoutes serves the single page front end
func (a *Application) setupHTMLRoutes(r chi.Router) {
	startYear, endYear := a.Services.Analysis.DefaultYears()
	r.Get("/", handlers.ServeMainApp(a.Paths.WebDir, handlers.PageData{
		Version:   config.AppVersion,
		StartYear: startYear,
		EndYear:   endYear,
	}))
}

// getCORSConfig returns CORS configuration based on environment
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			customMiddleware.RequestIDHeader,
		},
		ExposedHeaders:   []string{customMiddleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start binds the listener and serves in the background. A serve failure
// cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	listener, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = listener
	a.serveErr = make(chan error, 1)

	a.Logger.InfoContext(ctx, "Server starting",
		slog.String("address", listener.Addr().String()),
		slog.String("url", fmt.Sprintf("http://localhost:%d", a.Port())))

	go func() {
		if err := a.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server failed", slog.String("error", err.Error()))
			a.serveErr <- err
			if cancel != nil {
				cancel()
			}
		}
		close(a.serveErr)
	}()

	return nil
}

// Addr returns the bound listener address, or the configured one before Start.
func (a *Application) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Port returns the bound port, or the configured one before Start.
func (a *Application) Port() int {
	if a.listener != nil {
		if tcp, ok := a.listener.Addr().(*net.TCPAddr); ok {
			return tcp.Port
		}
	}
	return a.Config.Server.Port
}

// Stop gracefully shuts down the application. Later calls return the first result.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.stopErr = a.stop(ctx)
	})
	return a.stopErr
}

func (a *Application) stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.WebSocketHub != nil {
		a.WebSocketHub.Shutdown("server shutting down")
	}

	if a.listener != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "OpenTelemetry shutdown error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("otel shutdown: %w", err))
		}
	}

	a.Logger.InfoContext(ctx, "Server stopped")

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}

	return errors.Join(errs...)
}

// Run starts the server and blocks until an interrupt signal or a serve failure.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var serveErr error
	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		serveErr = <-a.serveErr
	}

	stopErr := a.Stop(context.Background())
	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return stopErr
}
