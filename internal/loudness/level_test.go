package loudness

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

// pcm encodes int16 samples as little-endian PCM bytes.
func pcm(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestMeanAmplitude(t *testing.T) {
	t.Parallel()

	assert.Zero(t, MeanAmplitude(nil))
	assert.Zero(t, MeanAmplitude([]byte{0x01}), "single byte is not a full sample")

	assert.InDelta(t, 0.0, MeanAmplitude(pcm(0, 0, 0, 0)), 0.001)

	// Negative samples contribute their absolute value
	assert.InDelta(t, 1000.0, MeanAmplitude(pcm(1000, -1000)), 0.001)

	assert.InDelta(t, 500.0, MeanAmplitude(pcm(0, 1000)), 0.001)

	// A trailing odd byte is ignored
	withOddByte := append(pcm(2000, 2000), 0x7f)
	assert.InDelta(t, 2000.0, MeanAmplitude(withOddByte), 0.001)
}

func TestScaledLevelRange(t *testing.T) {
	t.Parallel()

	assert.Zero(t, ScaledLevel(nil))
	assert.Zero(t, ScaledLevel(pcm(0, 0, 0, 0)), "silence maps to zero")

	quiet := ScaledLevel(pcm(10, -10, 12, -12))
	loud := ScaledLevel(pcm(20000, -20000, 20000, -20000))
	assert.Greater(t, loud, quiet)
	assert.LessOrEqual(t, loud, 100)

	// Clipping forces the level to at least 95
	clipping := ScaledLevel(pcm(32767, 100, -32768, 50))
	assert.GreaterOrEqual(t, clipping, 95)
}
