package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message results recorded by IncMessage.
const (
	ResultOn        = "on"
	ResultOff       = "off"
	ResultUnknown   = "unknown"
	ResultMalformed = "malformed"
)

var (
	sessionConnected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "switchlight",
		Subsystem: "session",
		Name:      "connected",
		Help:      "Whether the broker session is connected",
	}, []string{"role"})

	listenerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "switchlight",
		Subsystem: "listener",
		Name:      "messages_total",
		Help:      "Messages delivered to the listener by decode result",
	}, []string{"result"})
)

// SetSessionConnected records the session state for a role.
func SetSessionConnected(role string, connected bool) {
	v := 0.0
	if connected {
		v = 1
	}
	sessionConnected.WithLabelValues(role).Set(v)
}

// IncMessage counts a delivered message by its decode result.
func IncMessage(result string) {
	listenerMessages.WithLabelValues(result).Inc()
	updateCache(func(s *Snapshot) {
		s.MessagesReceived++
		if result == ResultUnknown || result == ResultMalformed {
			s.MessagesRejected++
		}
	})
}
