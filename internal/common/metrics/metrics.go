// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_sessions_completed_total",
			Help: "Total number of automation sessions completed, by platform and status",
		},
		[]string{"platform", "status"},
	)

	SessionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "automation_session_duration_seconds",
			Help:    "Duration of a single automation session in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"platform"},
	)

	TasksAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_tasks_accepted_total",
			Help: "Total number of task submissions accepted, by persona",
		},
		[]string{"persona"},
	)

	WorkflowStepsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_workflow_steps_failed_total",
			Help: "Total number of workflow stage iterations that failed and were skipped",
		},
		[]string{"workflow", "stage"},
	)

	BroadcastSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_subscribers",
			Help: "Number of currently connected WebSocket subscribers",
		},
	)

	BroadcastsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_events_sent_total",
			Help: "Total number of events fanned out to subscribers",
		},
	)
)
