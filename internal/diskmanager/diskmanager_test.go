package diskmanager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/swingcam/internal/conf"
)

// writeClip creates a dummy clip file with the given modification time.
func writeClip(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("clip"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
	return path
}

func TestGetClipFilesSortedOldestFirst(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	newest := writeClip(t, dir, "swing-c.mp4", now)
	oldest := writeClip(t, dir, "swing-a.mp4", now.Add(-48*time.Hour))
	middle := writeClip(t, dir, "swing-b.mkv", now.Add(-24*time.Hour))

	files, err := GetClipFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, oldest, files[0].Path)
	assert.Equal(t, middle, files[1].Path)
	assert.Equal(t, newest, files[2].Path)
}

func TestGetClipFilesSkipsUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeClip(t, dir, "swing-a.mp4", now)
	writeClip(t, dir, "swing-b.mp4.temp", now)
	writeClip(t, dir, "notes.txt", now)

	files, err := GetClipFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "swing-a.mp4"), files[0].Path)
}

func TestGetClipFilesMissingDirectory(t *testing.T) {
	files, err := GetClipFiles(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestAgeBasedCleanupDeletesExpiredClips(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	expired := writeClip(t, dir, "swing-old.mp4", now.Add(-10*24*time.Hour))
	kept := writeClip(t, dir, "swing-new.mp4", now.Add(-time.Hour))

	settings := &conf.ClipRetentionSettings{Policy: "age", MaxAge: "7d"}
	quit := make(chan struct{})

	deleted, err := AgeBasedCleanup(settings, dir, quit, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	assert.NoFileExists(t, expired)
	assert.FileExists(t, kept)
}

func TestAgeBasedCleanupInvalidPeriod(t *testing.T) {
	settings := &conf.ClipRetentionSettings{Policy: "age", MaxAge: "seven days"}
	_, err := AgeBasedCleanup(settings, t.TempDir(), make(chan struct{}), nil)
	assert.Error(t, err)
}

func TestAgeBasedCleanupHonorsQuit(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	survivor := writeClip(t, dir, "swing-old.mp4", now.Add(-10*24*time.Hour))

	settings := &conf.ClipRetentionSettings{Policy: "age", MaxAge: "7d"}
	quit := make(chan struct{})
	close(quit)

	deleted, err := AgeBasedCleanup(settings, dir, quit, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.FileExists(t, survivor)
}

func TestUsageBasedCleanupInvalidPercentage(t *testing.T) {
	settings := &conf.ClipRetentionSettings{Policy: "usage", MaxUsage: "lots"}
	_, err := UsageBasedCleanup(settings, t.TempDir(), make(chan struct{}), nil)
	assert.Error(t, err)
}

func TestUsageBasedCleanupBelowThreshold(t *testing.T) {
	dir := t.TempDir()
	kept := writeClip(t, dir, "swing-a.mp4", time.Now())

	// A real filesystem is never 100% full during tests, so the
	// threshold is not reached and nothing may be deleted.
	settings := &conf.ClipRetentionSettings{Policy: "usage", MaxUsage: "100%"}
	deleted, err := UsageBasedCleanup(settings, dir, make(chan struct{}), nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.FileExists(t, kept)
}

func TestCleanupDispatch(t *testing.T) {
	t.Run("none is a no-op", func(t *testing.T) {
		deleted, err := Cleanup(&conf.ClipRetentionSettings{Policy: "none"}, t.TempDir(), make(chan struct{}), nil)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})

	t.Run("empty policy is a no-op", func(t *testing.T) {
		deleted, err := Cleanup(&conf.ClipRetentionSettings{}, t.TempDir(), make(chan struct{}), nil)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})

	t.Run("unknown policy errors", func(t *testing.T) {
		_, err := Cleanup(&conf.ClipRetentionSettings{Policy: "fifo"}, t.TempDir(), make(chan struct{}), nil)
		assert.Error(t, err)
	})
}
