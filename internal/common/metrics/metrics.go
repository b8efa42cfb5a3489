// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReconcileCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_reconcile_cycles_total",
			Help: "Reconciliation cycles by result (ok, skipped, failed)",
		},
		[]string{"result"},
	)

	ReconcileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "offer_reconcile_duration_seconds",
			Help:    "Duration of one reconciliation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	PriceEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_price_events_total",
			Help: "Manager prices folded into applications, by kind",
		},
		[]string{"kind"},
	)

	MalformedCells = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_ledger_malformed_cells_total",
			Help: "Non-empty manager price cells that could not be parsed",
		},
	)

	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_transitions_total",
			Help: "Application status transitions",
		},
		[]string{"from", "to"},
	)

	LedgerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_ledger_errors_total",
			Help: "Failed ledger calls by operation",
		},
		[]string{"op"},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offer_notifications_total",
			Help: "Notification attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	RowsRenumbered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_rows_renumbered_total",
			Help: "Ledger rows decremented after a permanent deletion",
		},
	)

	ReconcileSuspended = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "offer_reconcile_suspended",
			Help: "1 while a permanent deletion holds the reconciliation loop",
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)
)
