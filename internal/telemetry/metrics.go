package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики системы. Регистрируются в default registry,
// отдаются через promhttp на /metrics каждого бинарника.
var (
	// WorkflowsStarted — количество запущенных workflow instances по видам.
	WorkflowsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textflow_workflows_started_total",
		Help: "Workflow instances started, by activity kind",
	}, []string{"kind"})

	// WorkflowsFinished — количество завершённых instances по видам и статусам.
	WorkflowsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textflow_workflows_finished_total",
		Help: "Workflow instances finished, by activity kind and terminal status",
	}, []string{"kind", "status"})

	// ActivityAttempts — количество попыток activity по видам.
	ActivityAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textflow_activity_attempts_total",
		Help: "Activity execution attempts, by activity kind",
	}, []string{"kind"})

	// ActivityRetries — количество retry (попытки после первой).
	ActivityRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textflow_activity_retries_total",
		Help: "Activity retries scheduled by the retry policy",
	}, []string{"kind"})

	// WorkflowDuration — длительность выполнения instance от старта до терминального статуса.
	WorkflowDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "textflow_workflow_duration_seconds",
		Help:    "Workflow instance duration from RUNNING to terminal status",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// ComponentHealthy — последний результат health-проверки компонента (1/0).
	ComponentHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "textflow_component_healthy",
		Help: "Latest health probe result per component (1 healthy, 0 unhealthy)",
	}, []string{"component"})
)
