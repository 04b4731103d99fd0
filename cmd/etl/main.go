// Command etl consumes station precipitation series from Kafka, computes
// drought indices for each and publishes the reports. It also serves health,
// metrics and a synchronous compute endpoint over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/drought-index-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/drought-index-etl/internal/adapter/kafka"
	"github.com/couchcryptid/drought-index-etl/internal/config"
	"github.com/couchcryptid/drought-index-etl/internal/observability"
	"github.com/couchcryptid/drought-index-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("etl exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	logger.Info("starting drought index etl",
		"source_topic", cfg.KafkaSourceTopic,
		"sink_topic", cfg.KafkaSinkTopic,
		"batch_size", cfg.BatchSize,
		"scale", cfg.DefaultScale,
		"indices", cfg.DefaultIndices,
		"pet_fallback_ratio", cfg.PETRatio,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(cfg.ReportOptions(), metrics, logger)
	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	var computer httpadapter.Computer = transformer
	if cfg.ReportCacheSize > 0 {
		computer = pipeline.NewCachedComputer(transformer, cfg.ReportCacheSize, metrics)
		logger.Info("report cache enabled", "size", cfg.ReportCacheSize)
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, computer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	pipelineDone := make(chan error, 1)
	go func() { pipelineDone <- p.Run(ctx) }()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	// The pipeline finishes its in-flight batch before the clients close.
	select {
	case err := <-pipelineDone:
		if err != nil {
			errs = append(errs, err)
		}
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	if err := reader.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := writer.Close(); err != nil {
		errs = append(errs, err)
	}

	logger.Info("shutdown complete")
	return errors.Join(errs...)
}
