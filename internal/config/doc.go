// Package config provides configuration management for the P&L forecaster.
//
// # Configuration Sources
//
// Configuration is layered, later sources overriding earlier ones:
//
//	1. Default values (Default)
//	2. A YAML file (config.yaml, configs/config.yaml or $PLF_CONFIG_FILE)
//	3. Environment variables, after an optional .env file is loaded
//
// # Environment Variables
//
// Variables follow the pattern PLF_<SECTION>_<FIELD>:
//
//	PLF_SERVER_PORT=8080
//	PLF_LOGGING_LEVEL=debug
//	PLF_FORECAST_END_YEAR=2030
//	PLF_ASSISTANT_PROVIDER=ollama
//	PLF_SESSION_FILE=session_data.json
//
// When PLF_ASSISTANT_API_KEY is unset the provider's usual variable is used
// (GEMINI_API_KEY or GOOGLE_API_KEY for gemini, OPENAI_API_KEY for openai).
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := cfg.ResolvePaths("")
package config
