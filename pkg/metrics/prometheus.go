package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal        *prometheus.CounterVec
	instrumentsTotal *prometheus.CounterVec
	cacheEvents      *prometheus.CounterVec
	fetchRetries     prometheus.Counter
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
	signalsTotal     *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandarscan_runs_total",
				Help: "Total number of scan pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		instrumentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandarscan_instruments_total",
				Help: "Total number of instruments analyzed by outcome",
			},
			[]string{"outcome"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandarscan_cache_events_total",
				Help: "Scan cache events (hit, miss, reject, evict)",
			},
			[]string{"event"},
		),
		fetchRetries: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bandarscan_fetch_retries_total",
				Help: "Total number of upstream fetch retries",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandarscan_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bandarscan_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bandarscan_signals_total",
				Help: "Composed signals by category",
			},
			[]string{"category"},
		),
	}
}

// RecordRun records the outcome of one pipeline run.
func (r *Recorder) RecordRun(outcome string) {
	r.runsTotal.WithLabelValues(outcome).Inc()
}

// RecordInstrument records one analyzed instrument.
func (r *Recorder) RecordInstrument(outcome string) {
	r.instrumentsTotal.WithLabelValues(outcome).Inc()
}

// RecordCache records a scan cache event.
func (r *Recorder) RecordCache(event string) {
	r.cacheEvents.WithLabelValues(event).Inc()
}

// RecordFetchRetry records one upstream retry.
func (r *Recorder) RecordFetchRetry() {
	r.fetchRetries.Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSignal records one composed signal.
func (r *Recorder) RecordSignal(category string) {
	r.signalsTotal.WithLabelValues(category).Inc()
}
