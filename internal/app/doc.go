// Package app wires the forecaster together and owns the HTTP server lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, config.yaml, .env and PLF_* variables
//	2. Initialize the global slog logger
//	3. Resolve and create the data, export and log directories
//	4. Initialize OpenTelemetry with the Prometheus exporter and business metrics
//	5. Build the assistant provider, transcript store and services
//	6. Start the chat WebSocket hub
//	7. Mount middleware, API, WebSocket, static and metrics routes
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests build the application with New, which takes an already loaded
// configuration and a base directory for the relative paths.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM. Stop then sends every chat socket a
// status frame and closes it, drains in-flight HTTP requests within
// Server.ShutdownTimeout, flushes the OpenTelemetry providers and closes the
// log file.
package app
