package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for dispatched queries.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeCancelled   = "cancelled"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Metrics holds the engine's Prometheus instruments.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	pagesFetched     *prometheus.CounterVec
	rowsFetched      *prometheus.CounterVec
	scanDuration     *prometheus.HistogramVec
	truncatedScans   *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	lookupFallbacks  *prometheus.CounterVec
}

// New registers the instruments on reg. A nil reg uses a fresh registry, which
// keeps repeated construction in tests from panicking on duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		pagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_scan_pages_total",
			Help: "Fact pages fetched by source table.",
		}, []string{"source"}),
		rowsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_scan_rows_total",
			Help: "Fact rows fetched by source table.",
		}, []string{"source"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sales_scan_duration_seconds",
			Help:    "Wall time of a full paged scan.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"source"}),
		truncatedScans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_scan_truncated_total",
			Help: "Scans that returned fewer rows than the source holds.",
		}, []string{"source", "reason"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_dashboard_queries_total",
			Help: "Dashboard queries by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sales_dashboard_query_duration_seconds",
			Help:    "Dashboard query latency by strategy.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"strategy"}),
		lookupFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_reference_fallbacks_total",
			Help: "Dimension ids labelled with a fallback because the reference lookup missed or failed.",
		}, []string{"dimension"}),
	}

	reg.MustRegister(
		m.pagesFetched,
		m.rowsFetched,
		m.scanDuration,
		m.truncatedScans,
		m.dispatches,
		m.dispatchDuration,
		m.lookupFallbacks,
	)
	return m
}

// ObservePage records one fetched page.
func (m *Metrics) ObservePage(source string, rows int) {
	if m == nil {
		return
	}
	m.pagesFetched.WithLabelValues(source).Inc()
	m.rowsFetched.WithLabelValues(source).Add(float64(rows))
}

// ObserveScan records a finished scan. reason is empty for complete scans.
func (m *Metrics) ObserveScan(source string, elapsed time.Duration, reason string) {
	if m == nil {
		return
	}
	m.scanDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if reason != "" {
		m.truncatedScans.WithLabelValues(source, reason).Inc()
	}
}

// ObserveDispatch records a dashboard query.
func (m *Metrics) ObserveDispatch(strategy, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(strategy, outcome).Inc()
	m.dispatchDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

// ObserveFallbacks records n ids that received a fallback label.
func (m *Metrics) ObserveFallbacks(dimension string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.lookupFallbacks.WithLabelValues(dimension).Add(float64(n))
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
