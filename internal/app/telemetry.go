package app

import (
	"context"
	"time"

	"github.com/riskibarqy/draft-combine-pipeline/internal/config"
	"github.com/riskibarqy/draft-combine-pipeline/internal/observability"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
)

// StartTelemetry enables tracing and profiling per config and returns their shutdown.
func StartTelemetry(cfg config.Config, logger *logging.Logger) (func(), error) {
	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, err
	}
	stopProfiling, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
		return nil, err
	}

	return func() {
		if err := stopProfiling(); err != nil {
			logger.Warn("stop pyroscope failed", "error", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("shutdown uptrace failed", "error", err)
		}
	}, nil
}
