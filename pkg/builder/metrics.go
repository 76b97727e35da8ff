package builder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Worker-side execution metrics, exposed by the step server at /metrics
var (
	metricInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argyll_worker_invocations_total",
		Help: "Step invocations handled by this worker, by outcome.",
	}, []string{"step_id", "outcome"})

	metricAsyncTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "argyll_worker_async_tasks_active",
		Help: "Detached async tasks currently running.",
	})

	metricWebhooks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "argyll_worker_webhook_deliveries_total",
		Help: "Async completion webhook deliveries, by outcome.",
	}, []string{"outcome"})
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomePanic   = "panic"
	outcomeError   = "error"
)
