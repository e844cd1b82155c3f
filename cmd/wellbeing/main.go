// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command wellbeing starts the HavenWell backend HTTP server.
//
// This is the entry point for the containerized wellbeing service. It
// reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - WELLBEING_PORT: HTTP server port (default: 12310)
//   - LLM_BACKEND_TYPE: LLM provider - gateway, openai (default: gateway)
//   - GATEWAY_URL_BASE / GATEWAY_API_KEY: AI gateway credentials
//   - STORE_URL_BASE / STORE_SERVICE_KEY: data store credentials (optional)
//   - CRISIS_CATALOG_PATH: YAML crisis resource catalog (optional)
//   - TRENDS_INFLUX_URL / TRENDS_INFLUX_TOKEN: trend storage (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector
//     (default: havenwell-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o wellbeing ./cmd/wellbeing
//
//	# Run
//	./wellbeing
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/havenwell/havenwell/services/wellbeing"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := wellbeing.Config{
		Port:              getEnvInt("WELLBEING_PORT", 12310),
		LLMBackend:        getEnvString("LLM_BACKEND_TYPE", "gateway"),
		OTelEndpoint:      getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "havenwell-otel-collector:4317"),
		CrisisCatalogPath: os.Getenv("CRISIS_CATALOG_PATH"),
		RatePerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		RateBurst:         getEnvInt("RATE_LIMIT_BURST", 10),
	}

	slog.Info("Starting wellbeing service",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
	)

	svc, err := wellbeing.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create wellbeing service: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Wellbeing service error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
