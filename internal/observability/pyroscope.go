package observability

import (
	"fmt"

	"github.com/grafana/pyroscope-go"

	"github.com/riskibarqy/draft-combine-pipeline/internal/config"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
)

// Profiles collected for ingest and join runs.
var pipelineProfiles = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileGoroutines,
}

// InitPyroscope starts continuous profiling when enabled. The returned stop
// func flushes pending uploads.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.PyroscopeEnabled {
		logger.Info("profiling disabled")
		return func() error { return nil }, nil
	}

	profiler, err := pyroscope.Start(profilerConfig(cfg, logger))
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}
	logger.Info("profiling enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
		"join_engine", cfg.JoinEngine,
	)
	return profiler.Stop, nil
}

func profilerConfig(cfg config.Config, logger *logging.Logger) pyroscope.Config {
	profiles := make([]pyroscope.ProfileType, len(pipelineProfiles))
	copy(profiles, pipelineProfiles)

	return pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Logger:            profilerLogger{logger.Named("pyroscope")},
		Tags: map[string]string{
			"env":         cfg.AppEnv,
			"service":     cfg.ServiceName,
			"version":     cfg.ServiceVersion,
			"storage":     cfg.StorageDriver,
			"join_engine": cfg.JoinEngine,
		},
		ProfileTypes: profiles,
	}
}

// profilerLogger adapts the printf-style pyroscope logger onto zap.
type profilerLogger struct {
	l *logging.Logger
}

func (p profilerLogger) Infof(format string, args ...any)  { p.l.Info(fmt.Sprintf(format, args...)) }
func (p profilerLogger) Debugf(format string, args ...any) { p.l.Debug(fmt.Sprintf(format, args...)) }
func (p profilerLogger) Errorf(format string, args ...any) { p.l.Error(fmt.Sprintf(format, args...)) }
