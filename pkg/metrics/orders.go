package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle and reporting activity.
type OrderMetrics struct {
	created      prometheus.Counter
	transitions  *prometheus.CounterVec
	conflicts    *prometheus.CounterVec
	reportReqs   *prometheus.CounterVec
	reportCache  *prometheus.CounterVec
	reportTiming *prometheus.HistogramVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted into the ledger.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Applied order transitions by target.",
	}, []string{"target"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transition_conflicts_total",
		Help: "Transitions abandoned after exhausting retry attempts.",
	}, []string{"target"})
	reportReqs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revenue_report_requests_total",
		Help: "Revenue report requests by scope.",
	}, []string{"scope"})
	reportCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "revenue_report_cache_total",
		Help: "Revenue report cache lookups by outcome.",
	}, []string{"outcome"})
	reportTiming := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "revenue_report_duration_seconds",
		Help:    "Time spent building revenue reports.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})
	reg.MustRegister(created, transitions, conflicts, reportReqs, reportCache, reportTiming)
	return &OrderMetrics{
		created:      created,
		transitions:  transitions,
		conflicts:    conflicts,
		reportReqs:   reportReqs,
		reportCache:  reportCache,
		reportTiming: reportTiming,
	}
}

// IncCreated increments the created-orders counter.
func (o *OrderMetrics) IncCreated() {
	if o == nil || o.created == nil {
		return
	}
	o.created.Inc()
}

// IncTransition increments the transition counter for the named target.
func (o *OrderMetrics) IncTransition(target string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(target)).Inc()
}

// IncConflict increments the conflict counter for the named target.
func (o *OrderMetrics) IncConflict(target string) {
	if o == nil || o.conflicts == nil {
		return
	}
	o.conflicts.WithLabelValues(normalizeLabel(target)).Inc()
}

// IncReportRequest increments the report request counter for the named scope.
func (o *OrderMetrics) IncReportRequest(scope string) {
	if o == nil || o.reportReqs == nil {
		return
	}
	o.reportReqs.WithLabelValues(normalizeLabel(scope)).Inc()
}

// IncReportCache increments the cache counter for the given outcome ("hit" or "miss").
func (o *OrderMetrics) IncReportCache(outcome string) {
	if o == nil || o.reportCache == nil {
		return
	}
	o.reportCache.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveReportDuration records the time spent building a report for the scope.
func (o *OrderMetrics) ObserveReportDuration(scope string, duration time.Duration) {
	if o == nil || o.reportTiming == nil {
		return
	}
	o.reportTiming.WithLabelValues(normalizeLabel(scope)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
