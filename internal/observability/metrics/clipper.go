// Package metrics provides custom Prometheus metrics for the components of the SwingCam application.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClipperMetrics contains all Prometheus metrics related to video capture and clip export.
type ClipperMetrics struct {
	FramesCaptured    prometheus.Counter
	FrameReadFailures prometheus.Counter
	ClipsRequested    prometheus.Counter
	ClipsSaved        prometheus.Counter
	ClipEncodeErrors  prometheus.Counter
	ClipEncodeTime    prometheus.Histogram
}

// NewClipperMetrics creates a new instance of ClipperMetrics registered with
// the given registry. It returns an error if metric registration fails.
func NewClipperMetrics(registry *prometheus.Registry) (*ClipperMetrics, error) {
	m := &ClipperMetrics{
		FramesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipper_frames_captured_total",
			Help: "Total number of video frames captured into the history buffer",
		}),
		FrameReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipper_frame_read_failures_total",
			Help: "Total number of failed frame reads from the video source",
		}),
		ClipsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipper_clips_requested_total",
			Help: "Total number of clip requests enqueued",
		}),
		ClipsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipper_clips_saved_total",
			Help: "Total number of clips successfully written to disk",
		}),
		ClipEncodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipper_clip_encode_errors_total",
			Help: "Total number of clip materializations that failed",
		}),
		ClipEncodeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clipper_clip_encode_duration_seconds",
			Help:    "Duration of clip encode operations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	collectors := []prometheus.Collector{
		m.FramesCaptured,
		m.FrameReadFailures,
		m.ClipsRequested,
		m.ClipsSaved,
		m.ClipEncodeErrors,
		m.ClipEncodeTime,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register clipper metrics: %w", err)
		}
	}
	return m, nil
}

// RecordFrameCaptured increments the captured frame counter. Nil-safe so
// components can run without metrics wired.
func (m *ClipperMetrics) RecordFrameCaptured() {
	if m == nil {
		return
	}
	m.FramesCaptured.Inc()
}

// RecordFrameReadFailure increments the frame read failure counter.
func (m *ClipperMetrics) RecordFrameReadFailure() {
	if m == nil {
		return
	}
	m.FrameReadFailures.Inc()
}

// RecordClipRequested increments the clip request counter.
func (m *ClipperMetrics) RecordClipRequested() {
	if m == nil {
		return
	}
	m.ClipsRequested.Inc()
}

// RecordClipSaved records a successful clip save and its encode duration.
func (m *ClipperMetrics) RecordClipSaved(duration time.Duration) {
	if m == nil {
		return
	}
	m.ClipsSaved.Inc()
	m.ClipEncodeTime.Observe(duration.Seconds())
}

// RecordClipError increments the encode error counter.
func (m *ClipperMetrics) RecordClipError() {
	if m == nil {
		return
	}
	m.ClipEncodeErrors.Inc()
}
