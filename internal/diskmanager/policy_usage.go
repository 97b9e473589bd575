// policy_usage.go - code for disk usage retention policy
package diskmanager

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/errors"
	"github.com/tphakala/swingcam/internal/observability/metrics"
)

// UsageBasedCleanup deletes the oldest clips while the filesystem holding
// the clip directory is above the configured usage percentage. It returns
// the number of deleted clips.
func UsageBasedCleanup(settings *conf.ClipRetentionSettings, clipDir string, quit <-chan struct{}, m *metrics.DiskManagerMetrics) (int, error) {
	maxUsage, err := conf.ParsePercentage(settings.MaxUsage)
	if err != nil {
		diskLogger.Error("invalid max usage percentage", "max_usage", settings.MaxUsage, "error", err)
		return 0, err
	}

	usage, err := diskUsagePercent(clipDir)
	if err != nil {
		return 0, err
	}
	m.RecordDiskUsage(usage)

	if usage < maxUsage {
		if settings.Debug {
			diskLogger.Debug("disk usage below threshold, nothing to do",
				"usage_percent", usage,
				"max_percent", maxUsage)
		}
		m.RecordCleanupRun(0)
		return 0, nil
	}

	files, err := GetClipFiles(clipDir)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, file := range files {
		select {
		case <-quit:
			diskLogger.Info("cleanup interrupted by quit signal")
			m.RecordCleanupRun(deleted)
			return deleted, nil
		default:
		}

		if deleted >= maxDeletionsPerRun {
			diskLogger.Warn("deletion cap reached, deferring remaining clips to next run")
			break
		}

		if err := os.Remove(file.Path); err != nil {
			diskLogger.Error("failed to delete clip", "path", file.Path, "error", err)
			continue
		}
		deleted++

		usage, err = diskUsagePercent(clipDir)
		if err != nil {
			break
		}
		m.RecordDiskUsage(usage)
		if usage < maxUsage {
			break
		}
	}

	if deleted > 0 {
		diskLogger.Info("usage-based cleanup finished", "deleted", deleted, "usage_percent", usage)
	}
	m.RecordCleanupRun(deleted)
	return deleted, nil
}

// diskUsagePercent returns the used percentage of the filesystem containing path.
func diskUsagePercent(path string) (float64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, errors.New(fmt.Errorf("failed to read disk usage: %w", err)).
			Component("diskmanager").
			Category(errors.CategoryDiskUsage).
			Context("path", path).
			Build()
	}
	return usage.UsedPercent, nil
}
