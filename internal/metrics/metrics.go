package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "combine_pipeline"

// Metrics implements usecase.Recorder and the provider client's RetryObserver.
type Metrics struct {
	pagesPersisted       prometheus.Counter
	rowsWritten          prometheus.Counter
	retries              *prometheus.CounterVec
	retryWaitSeconds     *prometheus.HistogramVec
	runsTotal            *prometheus.CounterVec
	runDurationSeconds   *prometheus.HistogramVec
	checkpointsDiscarded *prometheus.CounterVec
	joinedRows           *prometheus.GaugeVec
	excludedRows         *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		pagesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_persisted_total",
			Help:      "Provider pages written to the raw zone.",
		}),
		rowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Normalized rows written to the raw zone.",
		}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Provider request retries by reason.",
		}, []string{"reason"}),
		retryWaitSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_retry_wait_seconds",
			Help:      "Wait scheduled before each provider retry.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 60},
		}, []string{"reason"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Ingestion invocations by final status.",
		}, []string{"status"}),
		runDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Ingestion invocation latency by final status.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"status"}),
		checkpointsDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoints_discarded_total",
			Help:      "Checkpoints treated as absent, by reason.",
		}, []string{"reason"}),
		joinedRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "joined_rows",
			Help:      "Rows in the last materialized partition of a season.",
		}, []string{"season"}),
		excludedRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "excluded_rows",
			Help:      "Matched rows excluded by cast failures in the last materialization of a season.",
		}, []string{"season"}),
	}
}

func (m *Metrics) PagePersisted(rows int) {
	m.pagesPersisted.Inc()
	m.rowsWritten.Add(float64(rows))
}

func (m *Metrics) RunFinished(status string, elapsed time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDurationSeconds.WithLabelValues(status).Observe(elapsed.Seconds())
}

func (m *Metrics) CheckpointDiscarded(reason string) {
	m.checkpointsDiscarded.WithLabelValues(reason).Inc()
}

func (m *Metrics) JoinMaterialized(season int, joined, excluded int) {
	label := strconv.Itoa(season)
	m.joinedRows.WithLabelValues(label).Set(float64(joined))
	m.excludedRows.WithLabelValues(label).Set(float64(excluded))
}

func (m *Metrics) ObserveRetry(reason string, wait time.Duration) {
	m.retries.WithLabelValues(reason).Inc()
	m.retryWaitSeconds.WithLabelValues(reason).Observe(wait.Seconds())
}
