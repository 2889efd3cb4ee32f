package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	LoginSuccesses  prometheus.Counter
	LoginFailures   *prometheus.CounterVec
	AccountLockouts prometheus.Counter
	TokenRefreshes  prometheus.Counter
	StaleRefreshes  prometheus.Counter

	// Scope resolver metrics
	ScopeDecisions *prometheus.CounterVec

	// Audit pipeline metrics
	AuditRecorded   *prometheus.CounterVec
	AuditSuspicious prometheus.Counter
	AuditDropped    prometheus.Counter
	AuditQueueDepth prometheus.Gauge
	AuditPurged     prometheus.Counter

	// Report scheduler metrics
	ReportRuns       prometheus.Counter
	ReportsDelivered prometheus.Counter
	ReportFailures   prometheus.Counter

	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		LoginSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_login_successes_total",
			Help: "Total number of successful logins",
		}),
		LoginFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campusplace_login_failures_total",
			Help: "Total number of failed logins, labeled by reason",
		}, []string{"reason"}),
		AccountLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_account_lockouts_total",
			Help: "Total number of lockouts triggered by failed attempts",
		}),
		TokenRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_token_refreshes_total",
			Help: "Total number of successful refresh rotations",
		}),
		StaleRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_stale_refreshes_total",
			Help: "Total number of refresh attempts with a superseded token",
		}),
		ScopeDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campusplace_scope_decisions_total",
			Help: "Total number of scope decisions, labeled by outcome",
		}, []string{"outcome"}),
		AuditRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campusplace_audit_entries_total",
			Help: "Total number of audit entries recorded, labeled by severity",
		}, []string{"severity"}),
		AuditSuspicious: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_audit_suspicious_total",
			Help: "Total number of entries flagged suspicious",
		}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_audit_dropped_total",
			Help: "Total number of audit entries dropped by the recorder",
		}),
		AuditQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "campusplace_audit_queue_depth",
			Help: "Current number of entries waiting in the recorder queue",
		}),
		AuditPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_audit_purged_total",
			Help: "Total number of entries removed by the retention worker",
		}),
		ReportRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_report_runs_total",
			Help: "Total number of report scheduler runs",
		}),
		ReportsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_reports_delivered_total",
			Help: "Total number of reports delivered to recipients",
		}),
		ReportFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campusplace_report_failures_total",
			Help: "Total number of report deliveries that failed",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campusplace_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) IncrementLoginSuccesses() {
	m.LoginSuccesses.Inc()
}

// IncrementLoginFailures counts a failed login with its rejection reason
func (m *Metrics) IncrementLoginFailures(reason string) {
	m.LoginFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementAccountLockouts() {
	m.AccountLockouts.Inc()
}

func (m *Metrics) IncrementTokenRefreshes() {
	m.TokenRefreshes.Inc()
}

func (m *Metrics) IncrementStaleRefreshes() {
	m.StaleRefreshes.Inc()
}

// IncrementScopeDecisions counts a scope decision by outcome (allow,
// deny_not_found, deny_forbidden)
func (m *Metrics) IncrementScopeDecisions(outcome string) {
	m.ScopeDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementAuditRecorded(severity string) {
	m.AuditRecorded.WithLabelValues(severity).Inc()
}

func (m *Metrics) IncrementAuditSuspicious() {
	m.AuditSuspicious.Inc()
}

func (m *Metrics) IncrementAuditDropped() {
	m.AuditDropped.Inc()
}

func (m *Metrics) SetAuditQueueDepth(depth int) {
	m.AuditQueueDepth.Set(float64(depth))
}

func (m *Metrics) AddAuditPurged(count int) {
	m.AuditPurged.Add(float64(count))
}

func (m *Metrics) IncrementReportRuns() {
	m.ReportRuns.Inc()
}

func (m *Metrics) AddReportsDelivered(count int) {
	m.ReportsDelivered.Add(float64(count))
}

func (m *Metrics) IncrementReportFailures() {
	m.ReportFailures.Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
