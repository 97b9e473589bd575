// policy_age.go - code for age retention policy
package diskmanager

import (
	"os"
	"time"

	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/observability/metrics"
)

// AgeBasedCleanup removes clips older than the configured retention period.
// It stops early if the quit channel is closed and returns the number of
// deleted clips.
func AgeBasedCleanup(settings *conf.ClipRetentionSettings, clipDir string, quit <-chan struct{}, m *metrics.DiskManagerMetrics) (int, error) {
	retentionHours, err := conf.ParseRetentionPeriod(settings.MaxAge)
	if err != nil {
		diskLogger.Error("invalid retention period", "max_age", settings.MaxAge, "error", err)
		return 0, err
	}

	if settings.Debug {
		diskLogger.Debug("starting age-based cleanup",
			"clip_dir", clipDir,
			"retention_hours", retentionHours)
	}

	files, err := GetClipFiles(clipDir)
	if err != nil {
		return 0, err
	}

	expirationTime := time.Now().Add(-time.Duration(retentionHours) * time.Hour)
	deleted := 0

	for _, file := range files {
		select {
		case <-quit:
			diskLogger.Info("cleanup interrupted by quit signal")
			m.RecordCleanupRun(deleted)
			return deleted, nil
		default:
		}

		if !file.Timestamp.Before(expirationTime) {
			// Files are sorted oldest first, everything after this is newer
			break
		}
		if deleted >= maxDeletionsPerRun {
			diskLogger.Warn("deletion cap reached, deferring remaining clips to next run")
			break
		}

		if err := os.Remove(file.Path); err != nil {
			diskLogger.Error("failed to delete expired clip", "path", file.Path, "error", err)
			continue
		}
		deleted++
		if settings.Debug {
			diskLogger.Debug("deleted expired clip", "path", file.Path, "age", time.Since(file.Timestamp))
		}
	}

	if deleted > 0 {
		diskLogger.Info("age-based cleanup finished", "deleted", deleted)
	}
	m.RecordCleanupRun(deleted)
	return deleted, nil
}
