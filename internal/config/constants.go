package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "P&L Forecaster"
	AppVersion = "1.0.0"

	// Workbook defaults
	DefaultSheetName      = "5 YEARS_Annual Profit and Loss"
	DefaultStartYear      = 2024
	DefaultEndYear        = 2028
	DefaultMaxUploadBytes = 10 << 20 // 10MB

	// Chat session
	DefaultSessionFile      = "session_data.json"
	DefaultAssistantTimeout = 60 * time.Second
	DefaultOllamaBaseURL    = "http://localhost:11434/v1"
	DefaultOllamaModel      = "llama2"
	DefaultOpenAIModel      = "gpt-3.5-turbo"
	DefaultGeminiModel      = "gemini-2.0-flash"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// WebSocket
	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// File Paths (relative to the working directory)
	DefaultDataDir   = "data"
	DefaultExportDir = "data/exports"
	DefaultLogsDir   = "logs"
	DefaultWebDir    = "web"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws/chat"
)
