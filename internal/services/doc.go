// Package services implements the business logic layer between the HTTP/WebSocket
// handlers and the forecasting core.
//
// AnalysisService loads workbooks and runs forecast and summary computations.
// ChatService sends questions to the assistant and owns the chat transcript.
// HealthService answers health, readiness and version probes.
//
// Services take their collaborators and a *slog.Logger through their constructors and
// return the sentinel errors in errors.go for requests they cannot serve.
package services
