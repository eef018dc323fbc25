package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// status engine.
type Metrics struct {
	SchedulerRunning prometheus.Gauge
	TicksTotal       *prometheus.CounterVec   // labels: job
	TickDuration     *prometheus.HistogramVec // labels: job

	// Status computation metrics.
	BeachesSucceeded  prometheus.Counter
	BeachesFailed     prometheus.Counter
	StatusComputed    *prometheus.CounterVec // labels: status
	SnapshotsWritten  prometheus.Counter
	SnapshotConflicts prometheus.Counter
	Transitions       prometheus.Counter

	// Alerting metrics.
	AlertsEmitted    prometheus.Counter
	AlertsSuppressed prometheus.Counter

	// Ingestion metrics.
	ReadingsIngested prometheus.Counter
	IngestErrors     prometheus.Counter

	// Latest-status cache metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,error}
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SchedulerRunning,
		m.TicksTotal,
		m.TickDuration,
		m.BeachesSucceeded,
		m.BeachesFailed,
		m.StatusComputed,
		m.SnapshotsWritten,
		m.SnapshotConflicts,
		m.Transitions,
		m.AlertsEmitted,
		m.AlertsSuppressed,
		m.ReadingsIngested,
		m.IngestErrors,
		m.CacheLookups,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "beach_status",
			Name:      "scheduler_running",
			Help:      "1 when the scheduler is active, 0 when shut down.",
		}),
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "ticks_total",
			Help:      "Ticks executed per scheduled job.",
		}, []string{"job"}),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "beach_status",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one complete tick per scheduled job.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		BeachesSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "beaches_succeeded_total",
			Help:      "Per-beach status computations that completed.",
		}),
		BeachesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "beaches_failed_total",
			Help:      "Per-beach status computations that failed after retries.",
		}),
		StatusComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "status_computed_total",
			Help:      "Computed statuses by resulting value.",
		}, []string{"status"}),
		SnapshotsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "snapshots_written_total",
			Help:      "Status snapshots persisted.",
		}),
		SnapshotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "snapshot_conflicts_total",
			Help:      "Snapshot writes discarded because the (beach, timestamp) row already existed.",
		}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "transitions_total",
			Help:      "Detected status transitions.",
		}),
		AlertsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "alerts_emitted_total",
			Help:      "Alert events handed to the dispatcher.",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "alerts_suppressed_total",
			Help:      "Rule matches suppressed by cooldown debounce.",
		}),
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "readings_ingested_total",
			Help:      "Readings appended from the ingest topic.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "ingest_errors_total",
			Help:      "Readings dropped due to decode or append failures.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "beach_status",
			Name:      "cache_lookups_total",
			Help:      "Latest-status cache lookups by result.",
		}, []string{"result"}),
	}
}
