package metrics

import (
	"net/http"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mail_triage"

// TriageMetrics exposes counters and histograms for the triage pipeline
type TriageMetrics struct {
	stageFallbacks *prometheus.CounterVec
	emailsTotal    *prometheus.CounterVec
	batchesTotal   *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	batchSize      prometheus.Histogram
	sinkRecords    *prometheus.CounterVec
	gatherer       prometheus.Gatherer
}

// NewTriageMetrics registers the pipeline metrics. A nil registry uses the default one.
func NewTriageMetrics(reg *prometheus.Registry) *TriageMetrics {
	m := &TriageMetrics{
		stageFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_fallbacks_total",
			Help:      "Stage results replaced by their fallback value",
		}, []string{"stage", "kind"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "emails_total",
			Help:      "Analyzed emails by action status",
		}, []string{"status", "failed"}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Batch runs by outcome",
		}, []string{"success"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Wall time of a batch run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "processed_emails",
			Help:      "Emails processed per batch run",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		sinkRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "records_total",
			Help:      "Records written to the workflow sink",
		}, []string{"sink", "result"}),
	}

	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	m.gatherer = prometheus.DefaultGatherer
	if reg != nil {
		registerer = reg
		m.gatherer = reg
	}
	registerer.MustRegister(m.stageFallbacks, m.emailsTotal, m.batchesTotal,
		m.batchDuration, m.batchSize, m.sinkRecords)
	return m
}

// ObserveFallback counts a stage that fell back
func (m *TriageMetrics) ObserveFallback(stage string, kind core.StageErrorKind) {
	if m == nil {
		return
	}
	m.stageFallbacks.WithLabelValues(stage, string(kind)).Inc()
}

// ObserveEmail counts a finished email
func (m *TriageMetrics) ObserveEmail(status core.ActionStatus, failed bool) {
	if m == nil {
		return
	}
	label := "false"
	if failed {
		label = "true"
	}
	m.emailsTotal.WithLabelValues(string(status), label).Inc()
}

// ObserveBatch records a finished batch run
func (m *TriageMetrics) ObserveBatch(result *core.BatchResult, elapsed time.Duration) {
	if m == nil || result == nil {
		return
	}
	success := "false"
	if result.Success {
		success = "true"
	}
	m.batchesTotal.WithLabelValues(success).Inc()
	m.batchDuration.Observe(elapsed.Seconds())
	m.batchSize.Observe(float64(result.ProcessedCount))

	if sync := result.SinkSync; sync != nil {
		m.sinkRecords.WithLabelValues(sync.Sink, "succeeded").Add(float64(sync.Succeeded))
		m.sinkRecords.WithLabelValues(sync.Sink, "failed").Add(float64(sync.Failed))
	}
}

// Handler serves the registered metrics
func (m *TriageMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// BreakerStateFunc reports the model circuit breaker state as a string
type BreakerStateFunc func() string

// RegisterBreakerState exposes the breaker state as 0 closed, 1 half-open, 2 open
func RegisterBreakerState(reg prometheus.Registerer, name string, state BreakerStateFunc) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   "llm",
		Name:        "breaker_state",
		Help:        "Model circuit breaker state (0 closed, 1 half-open, 2 open)",
		ConstLabels: prometheus.Labels{"breaker": name},
	}, func() float64 {
		switch state() {
		case "half-open":
			return 1
		case "open":
			return 2
		default:
			return 0
		}
	}))
}
