package lock

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	acquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resource_lock_acquisitions_total",
		Help: "Lock acquisition attempts grouped by outcome.",
	}, []string{"result"})

	holdDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resource_lock_hold_seconds",
		Help:    "Time between acquiring and releasing a lock.",
		Buckets: prometheus.DefBuckets,
	})

	releaseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resource_lock_release_failures_total",
		Help: "Releases that failed or found the lock no longer held.",
	})
)
