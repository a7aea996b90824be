package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atacado-lab/sales-analytics/internal/aggregation"
	"github.com/atacado-lab/sales-analytics/internal/core/analytics"
	corecfg "github.com/atacado-lab/sales-analytics/internal/core/config"
	"github.com/atacado-lab/sales-analytics/internal/core/storage/postgres"
	"github.com/atacado-lab/sales-analytics/internal/enrich"
	"github.com/atacado-lab/sales-analytics/internal/metrics"
	"github.com/atacado-lab/sales-analytics/internal/migrations"
	"github.com/atacado-lab/sales-analytics/internal/projection"
	"github.com/atacado-lab/sales-analytics/internal/scan"
	"github.com/atacado-lab/sales-analytics/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "salesd.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	if _, err := os.Stat(*configPath); err != nil {
		slog.Warn("Config file not found, using defaults and environment", "path", *configPath)
		*configPath = ""
	}
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"server", cfg.Server,
		"analytics", cfg.Analytics,
		"metrics", cfg.Metrics,
	)

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		logger,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Provision the read model on development databases
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate, logger); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	validateCtx, cancelValidate := context.WithTimeout(context.Background(), 10*time.Second)
	err = dbAdapter.ValidateSchema(validateCtx)
	cancelValidate()
	if err != nil {
		slog.Error("Read model is incomplete", "error", err)
		os.Exit(1)
	}

	procedure, err := postgres.NewProcedureAdapter(dbAdapter.DB())
	if err != nil {
		slog.Error("Failed to prepare dashboard procedure", "error", err)
		os.Exit(1)
	}
	defer procedure.Close()

	// 3. Initialize Metrics
	var recorder *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.New(reg)
	}

	// 4. Initialize Aggregation
	schema := analytics.DefaultResponseSchema()
	if cfg.Analytics.ResponseSchemaPath != "" {
		schema, err = analytics.LoadResponseSchema(cfg.Analytics.ResponseSchemaPath)
		if err != nil {
			slog.Error("Failed to load response schema", "path", cfg.Analytics.ResponseSchemaPath, "error", err)
			os.Exit(1)
		}
	}

	enricher := enrich.NewEnricher(postgres.NewReferenceAdapter(dbAdapter.DB()), enrich.Options{
		BatchSize: cfg.Analytics.LookupBatchSize,
		Logger:    logger,
		Metrics:   recorder,
	})

	facts := postgres.NewFactAdapter(dbAdapter.DB(), logger)
	params := aggregation.ScanParameter{
		PageSize:    cfg.Analytics.PageSize,
		HardCap:     cfg.Analytics.HardCap,
		OnPageError: scan.PageErrorPolicy(cfg.Analytics.PageErrorPolicy),
		LineValue:   cfg.Analytics.LineValuePolicy,
		Logger:      logger,
		Metrics:     recorder,
	}

	remote := aggregation.NewRemoteAggregationAdapter(procedure, enricher, schema, logger)
	manual := aggregation.NewManualAggregationEngine(facts, enricher, params)
	cities := aggregation.NewCityAggregator(facts, enricher, params)

	slog.Info("Aggregation initialized",
		"page_size", params.PageSize,
		"hard_cap", params.HardCap,
		"page_error_policy", params.OnPageError,
		"line_value_policy", params.LineValue,
		"response_schema_version", schema.Version,
	)

	// 5. Initialize Projection (query API)
	projectionSvc := projection.NewService(remote, manual, cities, projection.Options{
		MaxRangeDays: cfg.Analytics.MaxRangeDays,
		Logger:       logger,
		Metrics:      recorder,
	})

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter, cfg.Server.Mode)
	projectionSvc.RegisterRoutes(srv.Engine)
	if recorder != nil {
		srv.MountMetrics(cfg.Metrics.Path, recorder.Handler())
	}

	// 7. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handler → triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
