package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── API ─────────────────────────────────────────────────────────────────────

	APIEntitiesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskstracking",
		Subsystem: "api",
		Name:      "entities_created_total",
		Help:      "Total entities created through the API, labelled by kind.",
	}, []string{"kind"})

	APITasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskstracking",
		Subsystem: "api",
		Name:      "tasks_completed_total",
		Help:      "Total tasks explicitly completed through the API.",
	})

	APIRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskstracking",
		Subsystem: "api",
		Name:      "rate_limited_total",
		Help:      "Total requests rejected by the rate limiter.",
	})

	// ─── Stats ───────────────────────────────────────────────────────────────────

	StatsQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskstracking",
		Subsystem: "stats",
		Name:      "score_queries_total",
		Help:      "Total score queries, labelled by scope (employee, project, department, top).",
	}, []string{"scope"})

	// ─── Sweeper ─────────────────────────────────────────────────────────────────

	SweeperRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskstracking",
		Subsystem: "sweeper",
		Name:      "runs_total",
		Help:      "Total sweep attempts, labelled by outcome (ok, error, not_leader).",
	}, []string{"outcome"})

	SweeperTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskstracking",
		Subsystem: "sweeper",
		Name:      "transitions_total",
		Help:      "Total items flipped to OVERDUE, labelled by kind (task, project).",
	}, []string{"kind"})

	SweeperLastRunUnix = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskstracking",
		Subsystem: "sweeper",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last completed sweep.",
	})

	// ─── Notifier ────────────────────────────────────────────────────────────────

	NotifierDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskstracking",
		Subsystem: "notifier",
		Name:      "deliveries_total",
		Help:      "Total notification deliveries, labelled by channel and outcome.",
	}, []string{"channel", "outcome"})

	NotifierDLQTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskstracking",
		Subsystem: "notifier",
		Name:      "dlq_total",
		Help:      "Total events forwarded to the dead-letter queue.",
	})
)
