package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MQTTMetrics contains all Prometheus metrics related to MQTT operations.
type MQTTMetrics struct {
	ConnectionStatus  prometheus.Gauge
	MessagesDelivered prometheus.Counter
	Errors            prometheus.Counter
}

// NewMQTTMetrics creates a new instance of MQTTMetrics registered with the
// given registry.
func NewMQTTMetrics(registry *prometheus.Registry) (*MQTTMetrics, error) {
	m := &MQTTMetrics{
		ConnectionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqtt_connection_status",
			Help: "Current MQTT connection status (1 for connected, 0 for disconnected)",
		}),
		MessagesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_messages_delivered_total",
			Help: "Total number of MQTT messages successfully delivered",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqtt_errors_total",
			Help: "Total number of MQTT errors encountered",
		}),
	}

	collectors := []prometheus.Collector{m.ConnectionStatus, m.MessagesDelivered, m.Errors}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register MQTT metrics: %w", err)
		}
	}
	return m, nil
}

// UpdateConnectionStatus updates the MQTT connection status gauge. Nil-safe.
func (m *MQTTMetrics) UpdateConnectionStatus(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.ConnectionStatus.Set(1)
	} else {
		m.ConnectionStatus.Set(0)
	}
}

// RecordMessageDelivered increments the delivered message counter.
func (m *MQTTMetrics) RecordMessageDelivered() {
	if m == nil {
		return
	}
	m.MessagesDelivered.Inc()
}

// RecordError increments the MQTT error counter.
func (m *MQTTMetrics) RecordError() {
	if m == nil {
		return
	}
	m.Errors.Inc()
}
