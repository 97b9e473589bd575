// Package loudness detects loud sounds on an audio input and emits trigger events.
package loudness

import (
	"encoding/binary"
	"math"
)

// MeanAmplitude returns the mean absolute amplitude of 16-bit little-endian
// PCM samples. This is the value compared against the trigger threshold.
func MeanAmplitude(samples []byte) float64 {
	if len(samples) < 2 {
		return 0
	}
	// Truncate to an even number of bytes for 16-bit samples
	if len(samples)%2 != 0 {
		samples = samples[:len(samples)-1]
	}

	var sum float64
	for i := 0; i < len(samples); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(samples[i : i+2]))
		sum += math.Abs(float64(sample))
	}
	return sum / float64(len(samples)/2)
}

// ScaledLevel calculates the RMS of the samples and scales it to a 0-100
// range for display and metrics. Clipping forces the level to at least 95.
func ScaledLevel(samples []byte) int {
	if len(samples) < 2 {
		return 0
	}
	if len(samples)%2 != 0 {
		samples = samples[:len(samples)-1]
	}

	var sum float64
	isClipping := false
	sampleCount := len(samples) / 2

	for i := 0; i < len(samples); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(samples[i : i+2]))
		sampleAbs := math.Abs(float64(sample))
		sum += sampleAbs * sampleAbs

		if sample == 32767 || sample == -32768 {
			isClipping = true
		}
	}

	rms := math.Sqrt(sum / float64(sampleCount))

	// Convert RMS to decibels, 32768 is max value for 16-bit audio
	db := 20 * math.Log10(rms/32768.0)

	// Scale decibels to a 0-100 range
	scaledLevel := (db + 60) * (100.0 / 50.0)

	if isClipping {
		scaledLevel = math.Max(scaledLevel, 95)
	}

	if scaledLevel < 0 {
		scaledLevel = 0
	} else if scaledLevel > 100 {
		scaledLevel = 100
	}

	return int(scaledLevel)
}
