package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
)

// NewAdminHandler serves /metrics, /healthz and the pprof endpoints.
func NewAdminHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartAdminServer listens in the background; an empty addr disables it.
func StartAdminServer(addr string, gatherer prometheus.Gatherer, logger *logging.Logger) *http.Server {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(addr) == "" {
		logger.Info("admin server disabled", "reason", "METRICS_ADDR empty")
		return nil
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           NewAdminHandler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("admin server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server stopped", "error", err)
		}
	}()
	return server
}

func ShutdownAdminServer(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
