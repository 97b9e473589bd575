package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Realtime.Video = VideoSettings{
		Device:         "/dev/video0",
		FfmpegPath:     "ffmpeg",
		Width:          1280,
		Height:         720,
		FPS:            30,
		HistorySeconds: 60,
	}
	s.Realtime.Clip = ClipSettings{
		Path:     "clips/",
		LengthMS: 2000,
		DelayMS:  1000,
		Retention: ClipRetentionSettings{
			Policy:   "age",
			MaxAge:   "7d",
			MaxUsage: "80%",
			Interval: 10,
		},
	}
	s.Realtime.Loudness = LoudnessSettings{
		Source:     "sysdefault",
		Threshold:  2500,
		CooldownMS: 2000,
	}
	return s
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"valid", func(s *Settings) {}, false},
		{"zero_width", func(s *Settings) { s.Realtime.Video.Width = 0 }, true},
		{"negative_fps", func(s *Settings) { s.Realtime.Video.FPS = -1 }, true},
		{"zero_history", func(s *Settings) { s.Realtime.Video.HistorySeconds = 0 }, true},
		{"zero_clip_length", func(s *Settings) { s.Realtime.Clip.LengthMS = 0 }, true},
		{"negative_delay", func(s *Settings) { s.Realtime.Clip.DelayMS = -5 }, true},
		{"unknown_policy", func(s *Settings) { s.Realtime.Clip.Retention.Policy = "lru" }, true},
		{"bad_max_age", func(s *Settings) { s.Realtime.Clip.Retention.MaxAge = "soon" }, true},
		{"usage_policy_bad_percentage", func(s *Settings) {
			s.Realtime.Clip.Retention.Policy = "usage"
			s.Realtime.Clip.Retention.MaxUsage = "eighty"
		}, true},
		{"zero_threshold", func(s *Settings) { s.Realtime.Loudness.Threshold = 0 }, true},
		{"negative_cooldown", func(s *Settings) { s.Realtime.Loudness.CooldownMS = -1 }, true},
		{"no_retention", func(s *Settings) { s.Realtime.Clip.Retention.Policy = "none" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tc.mutate(s)
			err := ValidateSettings(s)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseRetentionPeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input     string
		wantHours int
		wantErr   bool
	}{
		{"24h", 24, false},
		{"7d", 168, false},
		{"1w", 168, false},
		{"3m", 2160, false},
		{"1y", 8760, false},
		{"48", 48, false},
		{"", 0, true},
		{"7x", 0, true},
		{"d7", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			hours, err := ParseRetentionPeriod(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantHours, hours)
		})
	}
}

func TestParsePercentage(t *testing.T) {
	t.Parallel()

	value, err := ParsePercentage("80%")
	require.NoError(t, err)
	assert.InDelta(t, 80.0, value, 0.001)

	_, err = ParsePercentage("80")
	assert.Error(t, err)
}
