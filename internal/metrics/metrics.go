// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all pipeline collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	framesProcessed prometheus.Counter
	frameErrors     *prometheus.CounterVec
	detections      *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	regionErrors    prometheus.Counter
	currentAction   prometheus.Gauge
	frameLatency    prometheus.Histogram
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadsense_frames_processed_total",
			Help: "Frames that completed the decision pipeline",
		}),
		frameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadsense_frame_errors_total",
			Help: "Frames abandoned because a collaborator failed",
		}, []string{"stage"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadsense_detections_total",
			Help: "Detections above the score threshold, by category",
		}, []string{"category"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roadsense_notifications_total",
			Help: "Advisory notifications emitted on state transitions",
		}, []string{"action"}),
		regionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roadsense_region_read_errors_total",
			Help: "Traffic-light bands that could not be read",
		}),
		currentAction: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roadsense_current_action",
			Help: "Current advisory action (0=unset, 1=stop, 2=proceed slowly)",
		}),
		frameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roadsense_frame_duration_seconds",
			Help:    "Wall time from frame acquisition to notification decision",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}

	m.registry.MustRegister(
		m.framesProcessed,
		m.frameErrors,
		m.detections,
		m.notifications,
		m.regionErrors,
		m.currentAction,
		m.frameLatency,
	)
	return m
}

// FrameProcessed records one completed frame and its duration.
func (m *Metrics) FrameProcessed(d time.Duration) {
	if m == nil {
		return
	}
	m.framesProcessed.Inc()
	m.frameLatency.Observe(d.Seconds())
}

// FrameError records a frame abandoned at the given stage.
func (m *Metrics) FrameError(stage string) {
	if m == nil {
		return
	}
	m.frameErrors.WithLabelValues(stage).Inc()
}

// Detection records one interpreted detection.
func (m *Metrics) Detection(category string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(category).Inc()
}

// Notification records an emitted advisory.
func (m *Metrics) Notification(action string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(action).Inc()
}

// RegionErrors adds unreadable band count.
func (m *Metrics) RegionErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.regionErrors.Add(float64(n))
}

// SetAction sets the current action gauge.
func (m *Metrics) SetAction(code int) {
	if m == nil {
		return
	}
	m.currentAction.Set(float64(code))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
