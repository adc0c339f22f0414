package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Ledger metrics
	LedgerEntriesTotal      *prometheus.CounterVec
	PaymentTransitionsTotal *prometheus.CounterVec
	ConcurrentConflicts     *prometheus.CounterVec
	AuditFailures           *prometheus.CounterVec

	// Refund metrics
	RefundRequestsTotal *prometheus.CounterVec
	RejectionsTotal     *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerRequests *prometheus.CounterVec

	// Worker metrics
	WorkerMessagesProcessed  *prometheus.CounterVec
	WorkerProcessingDuration *prometheus.HistogramVec
	OutboxRelayed            *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		LedgerEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_entries_total",
				Help:      "Total number of ledger rows created by payment type",
			},
			[]string{"type"},
		),
		PaymentTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_transitions_total",
				Help:      "Total number of committed payment status transitions",
			},
			[]string{"type", "status"},
		),
		ConcurrentConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "concurrent_modifications_total",
				Help:      "Conditional writes that lost a race",
			},
			[]string{"operation"},
		),
		AuditFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audit_append_failures_total",
				Help:      "Best-effort audit appends that failed",
			},
			[]string{"kind"},
		),
		RefundRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refund_requests_total",
				Help:      "Refund request transitions by kind and resulting status",
			},
			[]string{"kind", "status"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Rejection events handled by outcome",
			},
			[]string{"kind", "outcome"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		CircuitBreakerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_requests_total",
				Help:      "Total number of circuit breaker requests",
			},
			[]string{"name", "result"},
		),
		WorkerMessagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_messages_processed_total",
				Help:      "Total number of worker messages processed",
			},
			[]string{"stream", "status"},
		),
		WorkerProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "worker_processing_duration_seconds",
				Help:      "Worker message processing duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"stream"},
		),
		OutboxRelayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_relayed_total",
				Help:      "Outbox entries relayed to the notification stream",
			},
			[]string{"status"},
		),
	}

	factory.MustRegister(
		m.LedgerEntriesTotal,
		m.PaymentTransitionsTotal,
		m.ConcurrentConflicts,
		m.AuditFailures,
		m.RefundRequestsTotal,
		m.RejectionsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CircuitBreakerState,
		m.CircuitBreakerRequests,
		m.WorkerMessagesProcessed,
		m.WorkerProcessingDuration,
		m.OutboxRelayed,
	)

	return m
}

func (m *Metrics) LedgerEntryCreated(paymentType string) {
	if m == nil {
		return
	}
	m.LedgerEntriesTotal.WithLabelValues(paymentType).Inc()
}

func (m *Metrics) PaymentTransition(paymentType, status string) {
	if m == nil {
		return
	}
	m.PaymentTransitionsTotal.WithLabelValues(paymentType, status).Inc()
}

func (m *Metrics) ConcurrentModification(operation string) {
	if m == nil {
		return
	}
	m.ConcurrentConflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) AuditFailed(kind string) {
	if m == nil {
		return
	}
	m.AuditFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) RefundTransition(kind, status string) {
	if m == nil {
		return
	}
	m.RefundRequestsTotal.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Rejection(kind, outcome string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(kind, outcome).Inc()
}

// BreakerState records 0=closed, 1=half-open, 2=open.
func (m *Metrics) BreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) BreakerRequest(name, result string) {
	if m == nil {
		return
	}
	m.CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

func (m *Metrics) WorkerMessage(stream, status string, seconds float64) {
	if m == nil {
		return
	}
	m.WorkerMessagesProcessed.WithLabelValues(stream, status).Inc()
	m.WorkerProcessingDuration.WithLabelValues(stream).Observe(seconds)
}

func (m *Metrics) OutboxRelay(status string) {
	if m == nil {
		return
	}
	m.OutboxRelayed.WithLabelValues(status).Inc()
}
