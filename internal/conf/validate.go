// conf/validate.go settings validation
package conf

import (
	"github.com/tphakala/swingcam/internal/errors"
)

// ValidateSettings checks the loaded settings for values that would make the
// recorder misbehave at runtime. It returns the first problem found.
func ValidateSettings(settings *Settings) error {
	if err := validateVideoSettings(&settings.Realtime.Video); err != nil {
		return err
	}
	if err := validateClipSettings(&settings.Realtime.Clip); err != nil {
		return err
	}
	return validateLoudnessSettings(&settings.Realtime.Loudness)
}

func validateVideoSettings(video *VideoSettings) error {
	if video.Width <= 0 || video.Height <= 0 {
		return errors.Newf("invalid video frame size: %dx%d", video.Width, video.Height).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if video.FPS <= 0 {
		return errors.Newf("invalid estimated fps: %d", video.FPS).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if video.HistorySeconds <= 0 {
		return errors.Newf("invalid history length: %d seconds", video.HistorySeconds).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

func validateClipSettings(clip *ClipSettings) error {
	if clip.LengthMS <= 0 {
		return errors.Newf("invalid clip length: %d ms", clip.LengthMS).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if clip.DelayMS < 0 {
		return errors.Newf("invalid clip delay: %d ms", clip.DelayMS).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	switch clip.Retention.Policy {
	case "", "none", "age", "usage":
	default:
		return errors.Newf("unknown retention policy: %q", clip.Retention.Policy).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if clip.Retention.Policy == "age" {
		if _, err := ParseRetentionPeriod(clip.Retention.MaxAge); err != nil {
			return err
		}
	}
	if clip.Retention.Policy == "usage" {
		if _, err := ParsePercentage(clip.Retention.MaxUsage); err != nil {
			return err
		}
	}
	return nil
}

func validateLoudnessSettings(loudness *LoudnessSettings) error {
	if loudness.Threshold <= 0 {
		return errors.Newf("invalid loudness threshold: %v", loudness.Threshold).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if loudness.CooldownMS < 0 {
		return errors.Newf("invalid cooldown: %d ms", loudness.CooldownMS).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}
