package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScansTotal tracks reminder scans by result
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantcare",
			Subsystem: "reminder",
			Name:      "scans_total",
			Help:      "Total number of reminder scans by result",
		},
		[]string{"result"},
	)

	// ScanDuration tracks how long a scan takes in seconds
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "plantcare",
			Subsystem: "reminder",
			Name:      "scan_duration_seconds",
			Help:      "Duration of reminder scans in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// RemindersDispatched tracks reminders handed to the dispatcher
	RemindersDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantcare",
			Subsystem: "reminder",
			Name:      "dispatched_total",
			Help:      "Total number of reminders dispatched by tier",
		},
		[]string{"tier"},
	)

	// EventsSkipped tracks events whose plant disappeared before the scan reached them
	EventsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "plantcare",
			Subsystem: "reminder",
			Name:      "events_skipped_total",
			Help:      "Total number of care events skipped because the plant was not found",
		},
	)

	// FiringsDropped tracks timer firings dropped because the job was still running
	FiringsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantcare",
			Subsystem: "scheduler",
			Name:      "firings_dropped_total",
			Help:      "Total number of job firings dropped while the previous run was active",
		},
		[]string{"job"},
	)

	// JobRuns tracks finished job runs by status
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "plantcare",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total number of scheduled job runs by status",
		},
		[]string{"job", "status"},
	)
)
