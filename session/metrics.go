package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "inkline",
		Subsystem: "session",
		Name:      "active",
		Help:      "Sessions held in memory.",
	})
	relationshipActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkline",
		Subsystem: "session",
		Name:      "relationship_actions_total",
		Help:      "Relationship actions by outcome.",
	}, []string{"action", "outcome"})
)
