package querycache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkline",
		Subsystem: "querycache",
		Name:      "hits_total",
		Help:      "Reads served from a fresh cache entry.",
	}, []string{"root"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkline",
		Subsystem: "querycache",
		Name:      "misses_total",
		Help:      "Reads that went to the backend.",
	}, []string{"root"})

	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkline",
		Subsystem: "querycache",
		Name:      "invalidations_total",
		Help:      "Entries marked stale or dropped.",
	}, []string{"root"})

	cacheDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkline",
		Subsystem: "querycache",
		Name:      "superseded_total",
		Help:      "Responses dropped because a newer request or invalidation was issued.",
	}, []string{"root"})
)
