// Copyright (C) 2026 HavenWell (dev@havenwell.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package wellbeing provides the HavenWell backend service.
//
// This package contains the main Service type that coordinates all
// components: HTTP routing, the LLM gateway client, the data store,
// crisis-language scanning, trend storage, and observability.
//
// # Lightweight Mode
//
// Every dependency except the LLM client is optional. Without a data
// store the service still relays chats and generates insights; crisis
// resources come from the file-backed catalog, and the per-user CRUD
// surface is not registered. This keeps a single binary useful from a
// laptop demo up to the full deployment.
//
// # Usage
//
//	cfg := wellbeing.Config{Port: 12310}
//	svc, err := wellbeing.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package wellbeing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

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

	"github.com/havenwell/havenwell/services/datastore"
	"github.com/havenwell/havenwell/services/llm"
	"github.com/havenwell/havenwell/services/safety"
	"github.com/havenwell/havenwell/services/trends"
	"github.com/havenwell/havenwell/services/wellbeing/middleware"
	"github.com/havenwell/havenwell/services/wellbeing/observability"
	"github.com/havenwell/havenwell/services/wellbeing/routes"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the wellbeing service lifecycle.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds wellbeing service configuration. All fields have
// defaults; secrets and endpoints for optional components come from the
// environment so a zero Config is runnable.
type Config struct {
	// Port is the HTTP server port. Default: 12310
	Port int

	// LLMBackend selects the upstream provider.
	// Valid values: "gateway", "openai". Default: "gateway"
	LLMBackend string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "havenwell-otel-collector:4317"
	OTelEndpoint string

	// GinMode sets the Gin framework mode. Default: GIN_MODE env or
	// "debug".
	GinMode string

	// CrisisCatalogPath points at the YAML crisis resource catalog.
	// Empty disables the file-backed catalog.
	CrisisCatalogPath string

	// RatePerMinute and RateBurst shape the per-client limiter on the
	// LLM-backed endpoints. Defaults: 30 sustained, burst 10.
	RatePerMinute int
	RateBurst     int
}

// =============================================================================
// Implementation
// =============================================================================

type service struct {
	config        Config
	router        *gin.Engine
	llmClient     llm.Client
	store         *datastore.Client
	catalog       *datastore.Catalog
	scanner       *safety.Scanner
	trendSink     *trends.Sink
	limiter       *middleware.RateLimiter
	tracerCleanup func(context.Context)
}

// New creates a wellbeing Service.
//
// # Description
//
// New initializes components in dependency order:
//  1. Applies configuration defaults
//  2. Initializes OpenTelemetry tracing and Prometheus metrics
//  3. Builds the crisis-language scanner from the embedded patterns
//  4. Connects the data store, degrading to lightweight mode on failure
//  5. Loads and watches the crisis resource catalog when configured
//  6. Starts the trend sink when InfluxDB is configured
//  7. Creates the LLM client for the configured backend
//  8. Registers routes
//
// Only tracer, scanner, and LLM client failures are fatal; the optional
// components log and disable themselves.
func New(cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	observability.InitMetrics()

	s.scanner, err = safety.NewScanner()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to build the crisis-language scanner: %w", err)
	}

	s.initStore()
	s.initCatalog()
	s.initTrends()

	if err := s.initLLMClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	s.limiter = middleware.NewRateLimiter(s.config.RatePerMinute, s.config.RateBurst)
	s.initRouter()

	return s, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting wellbeing server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12310
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "gateway"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "havenwell-otel-collector:4317"
	}
	if cfg.RatePerMinute == 0 {
		cfg.RatePerMinute = 30
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 10
	}
	return cfg
}

// initTracer sets up the OTLP trace exporter. Uses an insecure gRPC
// connection, appropriate for the internal collector network.
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
		resource.WithAttributes(semconv.ServiceNameKey.String("wellbeing-service")))
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
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initStore connects the data store. Absence of store credentials is
// lightweight mode, not an error.
func (s *service) initStore() {
	store, err := datastore.NewClient()
	if err != nil {
		slog.Warn("Data store not configured, running in lightweight mode", "error", err)
		return
	}
	s.store = store
	slog.Info("Data store client initialized")
}

// initCatalog loads the file-backed crisis resource catalog and watches
// it for edits.
func (s *service) initCatalog() {
	if s.config.CrisisCatalogPath == "" {
		slog.Info("Crisis catalog path not configured, skipping file-backed catalog")
		return
	}
	catalog, err := datastore.LoadCatalog(s.config.CrisisCatalogPath)
	if err != nil {
		slog.Warn("Failed to load crisis catalog", "path", s.config.CrisisCatalogPath, "error", err)
		return
	}
	if err := catalog.Watch(); err != nil {
		slog.Warn("Crisis catalog watch failed, edits require a restart", "error", err)
	}
	s.catalog = catalog
	slog.Info("Crisis catalog loaded", "path", s.config.CrisisCatalogPath)
}

// initTrends starts the InfluxDB mood trend sink when configured.
func (s *service) initTrends() {
	sink, err := trends.NewSink()
	if err != nil {
		slog.Info("Trend storage not configured", "reason", err)
		return
	}
	s.trendSink = sink
}

func (s *service) initLLMClient() error {
	var err error
	switch s.config.LLMBackend {
	case "gateway":
		s.llmClient, err = llm.NewGatewayClient()
		slog.Info("Using AI gateway LLM backend")
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	default:
		return fmt.Errorf("unknown LLM backend %q", s.config.LLMBackend)
	}
	return err
}

func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("wellbeing-service"))

	deps := routes.Deps{
		LLMClient: s.llmClient,
		Store:     s.store,
		Catalog:   s.catalog,
		Scanner:   s.scanner,
		Limiter:   s.limiter,
	}
	if s.trendSink != nil {
		deps.Trends = s.trendSink
	}
	routes.SetupRoutes(s.router, deps)
}

// cleanup releases resources on Run() exit or failed construction.
func (s *service) cleanup() {
	if s.trendSink != nil {
		s.trendSink.Close()
	}
	if s.catalog != nil {
		s.catalog.Close()
	}
	if s.limiter != nil {
		s.limiter.Close()
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
