package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventum_submissions_total",
		Help: "Total proposal submissions, labelled by outcome.",
	}, []string{"outcome"})

	SubmissionsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventum_submissions_dropped_total",
		Help: "Total submissions rejected due to a full pipeline queue.",
	})

	SubmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "eventum_submit_duration_ms",
		Help:    "End-to-end submission pipeline latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	ConflictChecks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventum_conflict_checks_total",
		Help: "Total conflict checks performed.",
	})

	ConflictsFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventum_conflicts_found_total",
		Help: "Total conflicting events reported across all checks.",
	})

	SnapshotRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventum_snapshot_refreshes_total",
		Help: "Event snapshot refresh attempts, labelled by status.",
	}, []string{"status"})

	SnapshotEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventum_snapshot_events",
		Help: "Number of events in the current snapshot.",
	})

	FormSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventum_form_sessions",
		Help: "Number of live form sessions.",
	})

	ClockDragUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventum_clock_drag_updates_total",
		Help: "Clock-drag angle updates accepted (after throttling).",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "eventum_queue_utilization_ratio",
		Help: "Current submission queue utilization (0–1).",
	})
)
