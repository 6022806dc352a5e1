package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledRenders = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "switchlight",
		Subsystem: "led",
		Name:      "renders_total",
		Help:      "Frames pushed to the LED strip",
	})

	ledRenderErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "switchlight",
		Subsystem: "led",
		Name:      "render_errors_total",
		Help:      "Frames the LED driver failed to push",
	})

	ledColor = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "switchlight",
		Subsystem: "led",
		Name:      "color",
		Help:      "Color of the first pixel of the last frame as 0xRRGGBB",
	})

	fallbackActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "switchlight",
		Subsystem: "led",
		Name:      "fallback_active",
		Help:      "Whether the fallback pattern is running",
	})
)

// ObserveRender records a pushed frame whose first pixel is color.
func ObserveRender(color uint32) {
	ledRenders.Inc()
	ledColor.Set(float64(color))
	updateCache(func(s *Snapshot) { s.Renders++ })
}

// IncRenderError counts a failed frame push.
func IncRenderError() {
	ledRenderErrors.Inc()
}

// SetFallbackActive records whether the fallback pattern is running.
func SetFallbackActive(active bool) {
	v := 0.0
	if active {
		v = 1
	}
	fallbackActive.Set(v)
}
