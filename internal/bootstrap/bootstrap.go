// Package bootstrap wires configuration into the pipeline, storage and job
// service used by the silentcut binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maauso/silentcut/internal/config"
	"github.com/maauso/silentcut/internal/job"
	"github.com/maauso/silentcut/internal/media"
	"github.com/maauso/silentcut/internal/observe"
	"github.com/maauso/silentcut/internal/pipeline"
	"github.com/maauso/silentcut/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	VideoService *job.ProcessVideoService
	// Defaults are the detection parameters for requests that omit them.
	Defaults pipeline.Config
	// MetricsHandler serves Prometheus metrics; nil when metrics are disabled.
	MetricsHandler http.Handler
	// Shutdown flushes telemetry. It is never nil.
	Shutdown func(context.Context) error
}

// NewDependencies creates and initializes all dependencies for the server.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*Dependencies, error) {
	deps := &Dependencies{
		Defaults: cfg.PipelineDefaults(),
		Shutdown: func(context.Context) error { return nil },
	}

	var metrics *observe.Metrics
	if cfg.MetricsEnabled {
		m, shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
			ServiceName:    "silentcut",
			ServiceVersion: version,
		})
		if err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
		metrics = m
		deps.Shutdown = shutdown
		deps.MetricsHandler = promhttp.Handler()
	}

	store, err := initStorage(ctx, cfg, logger)
	if err != nil {
		_ = deps.Shutdown(ctx)
		return nil, err
	}

	deps.VideoService = job.NewProcessVideoService(
		job.NewMemoryRepository(),
		NewPipeline(cfg, logger, metrics),
		store,
		logger,
	)
	return deps, nil
}

// NewPipeline builds an ffmpeg-backed pipeline from cfg. metrics may be nil.
func NewPipeline(cfg *config.Config, logger *slog.Logger, metrics *observe.Metrics) *pipeline.Pipeline {
	processor := media.NewFFmpegProcessor(cfg.FFmpegPath,
		media.WithFFprobePath(cfg.FFprobePath),
		media.WithLogger(logger),
	)
	return pipeline.New(processor, processor,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
	)
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(ctx, cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
			slog.String("endpoint", cfg.S3Endpoint),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
