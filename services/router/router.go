// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package router provides the query routing service for AleutianInsight.
//
// This package contains the main Service type that coordinates all
// components of the routing layer: complexity analysis, user profiles,
// the capability registry, strategy generation, the dual-tier cache,
// the memory coordinator, and observability infrastructure.
//
// # Usage
//
//	cfg := router.Config{Port: 12310}
//	svc, err := router.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package router

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/AleutianInsight/services/agents"
	"github.com/AleutianAI/AleutianInsight/services/cache"
	"github.com/AleutianAI/AleutianInsight/services/llm"
	"github.com/AleutianAI/AleutianInsight/services/memory"
	"github.com/AleutianAI/AleutianInsight/services/router/complexity"
	"github.com/AleutianAI/AleutianInsight/services/router/engine"
	"github.com/AleutianAI/AleutianInsight/services/router/registry"
	"github.com/AleutianAI/AleutianInsight/services/router/routes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the routing service.
//
// # Description
//
// Service abstracts the router lifecycle, enabling testing and
// alternative implementations. Run() blocks and should only be called
// once per instance.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds routing service configuration options.
//
// # Description
//
// Config centralizes all configuration for the routing service. Values
// can be populated from environment variables, config files, or
// programmatically for testing. All fields have sensible defaults.
//
// # Examples
//
//	// Minimal config (uses all defaults, memory-only cache)
//	cfg := Config{}
//
//	// Redis-backed cache with an LLM scorer
//	cfg := Config{
//	    Port:       12310,
//	    LLMBackend: "ollama",
//	    RedisAddr:  "localhost:6379",
//	}
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// LLMBackend specifies the provider used for dimension scoring and
	// agent analyses.
	// Valid values: "openai", "ollama", "none"
	// Default: "none" (deterministic keyword scorer only)
	LLMBackend string

	// RedisAddr is the Redis host:port for the durable cache tier.
	// Takes precedence over BadgerDir when both are set.
	RedisAddr string

	// RedisPassword is the optional Redis password.
	RedisPassword string

	// BadgerDir is the directory for an embedded Badger durable tier.
	// Used when RedisAddr is empty. If both are empty the cache runs
	// memory-only.
	BadgerDir string

	// CapabilityFile is an optional YAML file describing the agent
	// fleet. When set it is loaded at startup and watched for changes.
	CapabilityFile string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "insight-otel-collector:4317"
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	// Default: uses GIN_MODE env var or "debug"
	GinMode string

	// ScoreTimeout bounds a single dimension-scoring call.
	// Default: 10s
	ScoreTimeout time.Duration
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns; the watch goroutine owns its own lifecycle.
type service struct {
	config        Config
	router        *gin.Engine
	llmClient     llm.LLMClient
	cacheService  *cache.Service
	registry      *registry.Registry
	engine        *engine.Engine
	agentsClient  *agents.Client
	tracerCleanup func(context.Context)
	watchCancel   context.CancelFunc
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a routing Service with the given configuration.
//
// # Description
//
// New initializes all routing components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing
//  3. Creates the cache service (Redis, Badger, or memory-only)
//  4. Creates the LLM client if a backend is configured
//  5. Builds the capability registry (file-backed with hot reload, or
//     the built-in fleet)
//  6. Assembles the routing engine
//  7. Sets up HTTP routes
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run routing service
//   - error: Non-nil if initialization fails
//
// # Assumptions
//
//   - Environment variables are set for LLM providers (API keys, URLs)
//   - Network is available for external service connections
func New(cfg Config) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	s.initCache()

	if err := s.initLLMClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	if err := s.initRegistry(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize capability registry: %w", err)
	}

	if err := s.initEngine(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize routing engine: %w", err)
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting insight router server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "none"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "insight-otel-collector:4317"
	}
	if cfg.ScoreTimeout <= 0 {
		cfg.ScoreTimeout = 10 * time.Second
	}
	cfg.EnableMetrics = true
	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Sets up an OTLP trace exporter sending spans to the configured
// collector over insecure gRPC (appropriate for internal networks).
//
// # Outputs
//
//   - func(context.Context): Cleanup function to call on shutdown
//   - error: Non-nil if tracer setup fails
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("insight-router")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initCache selects the durable tier and starts the cache service.
//
// # Description
//
// Prefers Redis when an address is configured, then an embedded Badger
// store, and finally runs memory-only. A durable tier that fails later
// degrades to the memory tier without failing requests, so none of
// these choices is fatal.
func (s *service) initCache() {
	var durable cache.Store

	switch {
	case s.config.RedisAddr != "":
		durable = cache.NewRedisStore(cache.RedisConfig{
			Addr:     s.config.RedisAddr,
			Password: s.config.RedisPassword,
		})
		slog.Info("Using Redis durable cache tier", "addr", s.config.RedisAddr)
	case s.config.BadgerDir != "":
		store, err := cache.NewBadgerStore(s.config.BadgerDir)
		if err != nil {
			slog.Warn("Badger store unavailable, running memory-only",
				"dir", s.config.BadgerDir,
				"error", err)
			break
		}
		durable = store
		slog.Info("Using Badger durable cache tier", "dir", s.config.BadgerDir)
	default:
		slog.Info("No durable cache tier configured, running memory-only")
	}

	s.cacheService = cache.NewService(cache.ServiceConfig{Durable: durable})
}

// initLLMClient initializes the LLM provider client.
//
// # Description
//
// The routing pipeline works without an LLM: the deterministic keyword
// scorer covers dimension analysis, and the analysis endpoint is simply
// not registered. "none" is therefore a fully supported backend.
func (s *service) initLLMClient() error {
	var err error

	switch s.config.LLMBackend {
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		s.llmClient, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	case "none":
		slog.Info("No LLM backend configured, using keyword scorer only")
	default:
		slog.Warn("Unknown LLM backend, using keyword scorer only", "backend", s.config.LLMBackend)
	}

	return err
}

// initRegistry builds the capability registry, optionally file-backed.
func (s *service) initRegistry() error {
	capabilities := registry.DefaultCapabilities()
	if s.config.CapabilityFile != "" {
		loaded, err := registry.LoadCapabilities(s.config.CapabilityFile)
		if err != nil {
			return err
		}
		capabilities = loaded
	}

	s.registry = registry.New(registry.Config{
		Capabilities: capabilities,
		Cache:        s.cacheService,
	})

	if s.config.CapabilityFile != "" {
		watchCtx, cancel := context.WithCancel(context.Background())
		s.watchCancel = cancel
		go func() {
			if err := s.registry.Watch(watchCtx, s.config.CapabilityFile); err != nil {
				slog.Warn("capability file watch stopped", "error", err)
			}
		}()
	}

	return nil
}

// initEngine assembles the routing engine and its agents client.
func (s *service) initEngine() error {
	var scorer complexity.DimensionScorer = complexity.NewKeywordScorer()
	if s.llmClient != nil {
		scorer = complexity.NewLLMScorer(s.llmClient)
		s.agentsClient = agents.NewClient(s.llmClient, slog.Default())
	}

	mem := memory.NewCoordinator(s.cacheService, slog.Default())

	eng, err := engine.New(engine.Config{
		Analyzer: complexity.NewAnalyzer(complexity.AnalyzerConfig{
			Scorer:       scorer,
			ScoreTimeout: s.config.ScoreTimeout,
		}),
		Registry: s.registry,
		Cache:    s.cacheService,
		Memory:   mem,
	})
	if err != nil {
		return err
	}
	s.engine = eng
	return nil
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("insight-router"))

	routes.SetupRoutes(s.router, routes.Deps{
		Engine:        s.engine,
		AgentsClient:  s.agentsClient,
		EnableMetrics: s.config.EnableMetrics,
	})
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.watchCancel != nil {
		s.watchCancel()
	}
	if s.engine != nil {
		s.engine.WaitForPersistence()
	}
	if s.cacheService != nil {
		if err := s.cacheService.Close(); err != nil {
			slog.Warn("cache service close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
