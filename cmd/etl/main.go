package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/http"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/feed"
	kafkaadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/kafka"
	s3adapter "github.com/couchcryptid/covid-data-etl/internal/adapter/s3"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/snapshot"
	"github.com/couchcryptid/covid-data-etl/internal/chart"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	memory := snapshot.NewMemorySink()
	targets := []snapshot.Target{{Name: "memory", Writer: memory}}

	if cfg.SnapshotDir != "" {
		dir, err := snapshot.NewDirSink(cfg.SnapshotDir)
		if err != nil {
			logger.Error("snapshot directory unavailable", "dir", cfg.SnapshotDir, "error", err)
			return 1
		}
		targets = append(targets, snapshot.Target{Name: "dir", Writer: dir})
		logger.Info("directory snapshots enabled", "dir", cfg.SnapshotDir)
	}

	if cfg.S3Bucket != "" {
		sink, err := s3adapter.NewSink(ctx, cfg, logger)
		if err != nil {
			logger.Error("s3 sink unavailable", "bucket", cfg.S3Bucket, "error", err)
			return 1
		}
		targets = append(targets, snapshot.Target{Name: "s3", Writer: sink})
		logger.Info("s3 snapshots enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}

	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		targets = append(targets, snapshot.Target{Name: "kafka", Writer: writer})
		logger.Info("kafka snapshots enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSnapshotTopic)
	}

	client := feed.NewClient(cfg.CasesURL, cfg.VaccinationsURL, cfg.FetchTimeout, metrics, logger)
	sink := snapshot.NewMulti(metrics, logger, targets...)
	settings := pipeline.Settings{Window: cfg.Window, MetricSet: cfg.MetricSet}
	p := pipeline.New(client, client, sink, logger, metrics, settings)

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, memory, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
				stop()
			}
		}()
	}

	exitCode := 0
	res, err := p.Run(ctx)
	if err != nil {
		exitCode = 1
	} else if cfg.ChartDir != "" {
		if err := renderCharts(cfg, res, logger); err != nil {
			logger.Error("chart rendering failed", "error", err)
			exitCode = 1
		}
	}

	if srv != nil {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete", "exit_code", exitCode)
	return exitCode
}

func renderCharts(cfg *config.Config, res pipeline.Result, logger *slog.Logger) error {
	r, err := chart.NewRenderer(cfg.ChartDir, logger)
	if err != nil {
		return err
	}
	written, err := r.RenderAll(res.Joined, res.Daily, cfg.MapDate)
	if err != nil {
		return err
	}
	logger.Info("charts rendered", "dir", cfg.ChartDir, "count", len(written))
	return nil
}
