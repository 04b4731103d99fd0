package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "drought_etl"

// Outcome labels for IndexPeriods.
const (
	OutcomeDefined   = "defined"
	OutcomeUndefined = "undefined"
)

// Result labels for ReportCache.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Index computation metrics.
	ObservationsProcessed prometheus.Counter
	IndexPeriods          *prometheus.CounterVec   // labels: index={czi,mczi,ci}, outcome={defined,undefined}
	IndexComputeDuration  *prometheus.HistogramVec // labels: index={czi,mczi,ci}
	ReportCache           *prometheus.CounterVec   // labels: result={hit,miss}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total index reports written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Total series requests that failed validation or computation.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-transform-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ObservationsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_processed_total",
			Help:      "Monthly observations contained in successfully computed requests.",
		}),
		IndexPeriods: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_periods_total",
			Help:      "Index periods emitted, by index and whether a value was defined.",
		}, []string{"index", "outcome"}),
		IndexComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_compute_duration_seconds",
			Help:      "Time spent computing one index for one request.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"index"}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "HTTP report cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.ObservationsProcessed,
		m.IndexPeriods,
		m.IndexComputeDuration,
		m.ReportCache,
	}
}

// ObserveIndex records the period outcomes and compute time of one index.
func (m *Metrics) ObserveIndex(index string, defined, undefined int, elapsed time.Duration) {
	m.IndexPeriods.WithLabelValues(index, OutcomeDefined).Add(float64(defined))
	m.IndexPeriods.WithLabelValues(index, OutcomeUndefined).Add(float64(undefined))
	m.IndexComputeDuration.WithLabelValues(index).Observe(elapsed.Seconds())
}
