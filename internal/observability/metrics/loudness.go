package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// LoudnessMetrics contains all Prometheus metrics related to the loudness detector.
type LoudnessMetrics struct {
	BuffersProcessed prometheus.Counter
	Triggers         prometheus.Counter
	TriggersDropped  prometheus.Counter
	AudioLevel       prometheus.Gauge
}

// NewLoudnessMetrics creates a new instance of LoudnessMetrics registered
// with the given registry.
func NewLoudnessMetrics(registry *prometheus.Registry) (*LoudnessMetrics, error) {
	m := &LoudnessMetrics{
		BuffersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loudness_buffers_processed_total",
			Help: "Total number of audio buffers evaluated against the threshold",
		}),
		Triggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loudness_triggers_total",
			Help: "Total number of loudness triggers emitted",
		}),
		TriggersDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loudness_triggers_dropped_total",
			Help: "Total number of triggers dropped because the output channel was full",
		}),
		AudioLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "loudness_audio_level",
			Help: "Most recent scaled audio level (0-100)",
		}),
	}

	collectors := []prometheus.Collector{
		m.BuffersProcessed,
		m.Triggers,
		m.TriggersDropped,
		m.AudioLevel,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register loudness metrics: %w", err)
		}
	}
	return m, nil
}

// RecordBuffer updates the per-buffer metrics. Nil-safe.
func (m *LoudnessMetrics) RecordBuffer(level int) {
	if m == nil {
		return
	}
	m.BuffersProcessed.Inc()
	m.AudioLevel.Set(float64(level))
}

// RecordTrigger increments the trigger counter.
func (m *LoudnessMetrics) RecordTrigger() {
	if m == nil {
		return
	}
	m.Triggers.Inc()
}

// RecordTriggerDropped increments the dropped trigger counter.
func (m *LoudnessMetrics) RecordTriggerDropped() {
	if m == nil {
		return
	}
	m.TriggersDropped.Inc()
}
