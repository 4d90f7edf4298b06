package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/caldermont/data-governance-backend/internal/api/rest"
	"github.com/caldermont/data-governance-backend/internal/domain/values"
	"github.com/caldermont/data-governance-backend/internal/infrastructure/cache"
	"github.com/caldermont/data-governance-backend/internal/infrastructure/config"
	"github.com/caldermont/data-governance-backend/internal/infrastructure/database"
	"github.com/caldermont/data-governance-backend/internal/infrastructure/repository"
	"github.com/caldermont/data-governance-backend/internal/infrastructure/telemetry"
	"github.com/caldermont/data-governance-backend/internal/service/detectors"
	"github.com/caldermont/data-governance-backend/internal/service/gapanalysis"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting data governance backend",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"port", cfg.Server.Port)

	provider, err := telemetry.InitializeOpenTelemetry(ctx, &telemetry.Config{
		ServiceName:    "datagov-api",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  cfg.Telemetry.ExportTimeout,
		BatchTimeout:   cfg.Telemetry.BatchTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	zlog, err := newZapLogger(cfg.Environment)
	if err != nil {
		return err
	}
	defer zlog.Sync()

	pool, err := database.Connect(ctx, &cfg.Database, zlog.Named("database"))
	if err != nil {
		return err
	}
	defer pool.Close()

	statusStore, err := cache.NewRedisStatusStore(&cfg.Redis, zlog.Named("cache"))
	if err != nil {
		return err
	}
	defer statusStore.Close()

	assetRepo := repository.NewAssetRepository(pool, zlog.Named("assets"))
	snapshotRepo := repository.NewSnapshotRepository(pool, zlog.Named("snapshots"))

	frameworks := make([]values.ComplianceFramework, 0, len(values.SupportedFrameworks()))
	for _, name := range values.SupportedFrameworks() {
		frameworks = append(frameworks, values.MustNewComplianceFramework(name))
	}

	detectorSet := []gapanalysis.Detector{
		detectors.NewOrphanedDetector(zlog.Named("orphaned"), detectors.OrphanedConfig{
			StaleAfter: cfg.Analysis.OrphanedStaleAfter,
		}),
		detectors.NewDocumentationAnalyzer(zlog.Named("documentation"), detectors.DocumentationConfig{
			MinDescriptionLength: cfg.Analysis.MinDescriptionLength,
			RefreshWindow:        cfg.Analysis.DocRefreshWindow,
		}),
		detectors.NewComplianceChecker(zlog.Named("compliance"), frameworks, detectors.ComplianceConfig{
			ChecksPerSecond: cfg.Analysis.ComplianceChecksPerSecond,
			Burst:           cfg.Analysis.ComplianceCheckBurst,
		}),
	}

	prioritizer := gapanalysis.NewPrioritizer(decimal.NewFromFloat(cfg.Analysis.HourlyRate))
	service := gapanalysis.NewService(zlog.Named("gapanalysis"), assetRepo, detectorSet, snapshotRepo, statusStore, prioritizer)

	handler := rest.NewHandler(logger, service, snapshotRepo)
	server := rest.NewServer(&cfg.Server, logger, handler)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newZapLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
