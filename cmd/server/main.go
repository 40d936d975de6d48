package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/flood-recovery-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-recovery-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-recovery-service/internal/analysis"
	"github.com/couchcryptid/flood-recovery-service/internal/config"
	"github.com/couchcryptid/flood-recovery-service/internal/observability"
	"github.com/couchcryptid/flood-recovery-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	events, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("failed to open event store", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}

	// Result publishing is feature-flagged via KAFKA_ENABLED.
	var publisher analysis.ResultPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka result publishing enabled",
			"brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	} else {
		logger.Info("kafka result publishing disabled")
	}

	svc := analysis.New(events, publisher, analysis.Defaults{
		GridSize:          cfg.GridSize,
		RecoveryThreshold: cfg.RecoveryThreshold,
		HorizonDays:       cfg.SurvivalHorizonDays,
	}, cfg.ResultCacheSize, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := events.Close(); err != nil {
		logger.Error("event store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
