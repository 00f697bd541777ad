package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 告警引擎指标
var (
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_dispatch_total",
		Help: "Channel sends by channel and result",
	}, []string{"channel", "result"})

	EscalationsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_escalations_fired_total",
		Help: "Escalation timer firings",
	})

	AcksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_acknowledgments_total",
		Help: "Recipient acknowledgments recorded",
	})

	AlertsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alerts_created_total",
		Help: "Alerts created by level",
	}, []string{"level"})

	AlertsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_archived_total",
		Help: "Alerts moved to archived by the sweep",
	})

	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "alert_sweep_duration_seconds",
		Help:    "Duration of escalation/archival sweep cycles",
		Buckets: prometheus.DefBuckets,
	}, []string{"sweep"})

	SweepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "alert_sweep_failures_total",
		Help: "Sweep cycles skipped due to store errors",
	}, []string{"sweep"})
)
