package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctks_console_api_requests_total",
			Help: "Backend API calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // ok|transport|validation|auth|server
	)

	APIRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ctks_console_api_request_seconds",
			Help:    "Backend API call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	WorkflowTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctks_console_workflow_transitions_total",
			Help: "Admin state transitions attempted from the console",
		},
		[]string{"entity", "action", "outcome"}, // ok|refused|failed
	)

	AuditEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctks_console_audit_events_total",
			Help: "Audit events lifecycle counter by stage",
		},
		[]string{"stage"}, // recorded|record_failed|projected|project_failed|dropped
	)
)

var once sync.Once

// MustRegister registers all collectors once; later calls are no-ops so the
// serve command and workers can share a registry.
func MustRegister(r prometheus.Registerer) {
	once.Do(func() {
		r.MustRegister(
			APIRequestsTotal,
			APIRequestSeconds,
			WorkflowTransitionsTotal,
			AuditEventsTotal,
		)
	})
}
