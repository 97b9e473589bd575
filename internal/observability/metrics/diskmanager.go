package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// DiskManagerMetrics contains all Prometheus metrics related to clip retention.
type DiskManagerMetrics struct {
	ClipsDeleted prometheus.Counter
	CleanupRuns  prometheus.Counter
	DiskUsage    prometheus.Gauge
}

// NewDiskManagerMetrics creates a new instance of DiskManagerMetrics
// registered with the given registry.
func NewDiskManagerMetrics(registry *prometheus.Registry) (*DiskManagerMetrics, error) {
	m := &DiskManagerMetrics{
		ClipsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "diskmanager_clips_deleted_total",
			Help: "Total number of clips deleted by retention policies",
		}),
		CleanupRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "diskmanager_cleanup_runs_total",
			Help: "Total number of retention cleanup runs",
		}),
		DiskUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "diskmanager_disk_usage_percent",
			Help: "Disk usage percentage of the clip directory filesystem",
		}),
	}

	collectors := []prometheus.Collector{m.ClipsDeleted, m.CleanupRuns, m.DiskUsage}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register disk manager metrics: %w", err)
		}
	}
	return m, nil
}

// RecordCleanupRun records one cleanup pass and the number of deleted clips. Nil-safe.
func (m *DiskManagerMetrics) RecordCleanupRun(deleted int) {
	if m == nil {
		return
	}
	m.CleanupRuns.Inc()
	m.ClipsDeleted.Add(float64(deleted))
}

// RecordDiskUsage updates the disk usage gauge.
func (m *DiskManagerMetrics) RecordDiskUsage(percent float64) {
	if m == nil {
		return
	}
	m.DiskUsage.Set(percent)
}
