package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buttonTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "switchlight",
		Subsystem: "button",
		Name:      "transitions_total",
		Help:      "Button edges detected by the publisher",
	}, []string{"state"})

	buttonPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "switchlight",
		Subsystem: "button",
		Name:      "publish_failures_total",
		Help:      "State change messages the broker did not accept",
	})

	networkState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "switchlight",
		Subsystem: "network",
		Name:      "state",
		Help:      "Network bring-up state, 1 for the current state",
	}, []string{"state"})
)

// IncButtonTransition counts a detected edge into state.
func IncButtonTransition(state string) {
	buttonTransitions.WithLabelValues(state).Inc()
	updateCache(func(s *Snapshot) { s.ButtonTransitions++ })
}

// IncPublishFailure counts a message the session failed to publish.
func IncPublishFailure() {
	buttonPublishFailures.Inc()
	updateCache(func(s *Snapshot) { s.PublishFailures++ })
}

// SetNetworkState marks state as current and clears previous.
func SetNetworkState(previous, state string) {
	if previous != "" && previous != state {
		networkState.WithLabelValues(previous).Set(0)
	}
	networkState.WithLabelValues(state).Set(1)
}
