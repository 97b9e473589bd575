// Package observability provides Prometheus metrics functionality for monitoring the SwingCam application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tphakala/swingcam/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry    *prometheus.Registry
	Clipper     *metrics.ClipperMetrics
	Loudness    *metrics.LoudnessMetrics
	DiskManager *metrics.DiskManagerMetrics
	MQTT        *metrics.MQTTMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	clipperMetrics, err := metrics.NewClipperMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create clipper metrics: %w", err)
	}

	loudnessMetrics, err := metrics.NewLoudnessMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create loudness metrics: %w", err)
	}

	diskManagerMetrics, err := metrics.NewDiskManagerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk manager metrics: %w", err)
	}

	mqttMetrics, err := metrics.NewMQTTMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create MQTT metrics: %w", err)
	}

	return &Metrics{
		registry:    registry,
		Clipper:     clipperMetrics,
		Loudness:    loudnessMetrics,
		DiskManager: diskManagerMetrics,
		MQTT:        mqttMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint on the given mux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
