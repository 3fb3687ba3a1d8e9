// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command insight-router starts the AleutianInsight routing HTTP server.
//
// This is the main entry point for the containerized routing service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - ROUTER_PORT: HTTP server port (default: 12310)
//   - LLM_BACKEND_TYPE: LLM provider - openai, ollama, none (default: none)
//   - REDIS_ADDR: Redis host:port for the durable cache tier (optional)
//   - REDIS_PASSWORD: Redis password (optional)
//   - BADGER_DIR: directory for an embedded durable cache tier (optional)
//   - AGENT_CAPABILITY_FILE: YAML agent fleet definition, hot reloaded (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: insight-otel-collector:4317)
//   - ROUTER_LOG_DIR: directory for JSON log files (optional, stderr only when unset)
//
// # Usage
//
//	# Build
//	go build -o insight-router ./cmd/insight-router
//
//	# Run
//	./insight-router
//
//	# Or via container
//	podman-compose up insight-router
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/AleutianAI/AleutianInsight/pkg/logging"
	"github.com/AleutianAI/AleutianInsight/services/router"
)

func main() {
	// Setup structured logging
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "insight-router",
		LogDir:  os.Getenv("ROUTER_LOG_DIR"),
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Build configuration from environment variables
	cfg := router.Config{
		Port:           getEnvInt("ROUTER_PORT", 12310),
		LLMBackend:     getEnvString("LLM_BACKEND_TYPE", "none"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		BadgerDir:      os.Getenv("BADGER_DIR"),
		CapabilityFile: os.Getenv("AGENT_CAPABILITY_FILE"),
		OTelEndpoint:   getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "insight-otel-collector:4317"),
	}

	slog.Info("Starting insight router",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"redis_addr", cfg.RedisAddr,
		"capability_file", cfg.CapabilityFile,
	)

	svc, err := router.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create router service: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Router service error: %v", err)
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
