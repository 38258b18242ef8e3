// Package metrics exposes pipeline observability counters. Everything here
// is advisory: no correctness decision reads a metric.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsProcessed counts finished pipeline runs by outcome
	// (completed | failed).
	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagemill",
		Subsystem: "pipeline",
		Name:      "jobs_total",
		Help:      "Pipeline runs by outcome.",
	}, []string{"outcome"})

	// PipelineDuration observes wall-clock seconds per pipeline run.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pagemill",
		Subsystem: "pipeline",
		Name:      "duration_seconds",
		Help:      "Wall-clock duration of one pipeline run.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// PagesCreated counts pages persisted by successful runs.
	PagesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pagemill",
		Subsystem: "pipeline",
		Name:      "pages_created_total",
		Help:      "Pages persisted by completed pipeline runs.",
	})
)
