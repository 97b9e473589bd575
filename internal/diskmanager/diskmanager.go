// Package diskmanager applies retention policies to the saved clip directory.
package diskmanager

import (
	"log/slog"

	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/errors"
	"github.com/tphakala/swingcam/internal/logging"
	"github.com/tphakala/swingcam/internal/observability/metrics"
)

// maxDeletionsPerRun caps how many clips a single cleanup pass may delete.
const maxDeletionsPerRun = 1000

var diskLogger *slog.Logger

func init() {
	diskLogger = logging.ForService("diskmanager")
	if diskLogger == nil {
		diskLogger = slog.Default().With("service", "diskmanager")
	}
}

// Cleanup runs the retention policy selected in the settings against the
// clip directory. Policy "none" (or empty) is a no-op. It returns the
// number of deleted clips.
func Cleanup(settings *conf.ClipRetentionSettings, clipDir string, quit <-chan struct{}, m *metrics.DiskManagerMetrics) (int, error) {
	switch settings.Policy {
	case "", "none":
		return 0, nil
	case "age":
		return AgeBasedCleanup(settings, clipDir, quit, m)
	case "usage":
		return UsageBasedCleanup(settings, clipDir, quit, m)
	default:
		return 0, errors.Newf("unknown retention policy: %q", settings.Policy).
			Component("diskmanager").
			Category(errors.CategoryValidation).
			Build()
	}
}
