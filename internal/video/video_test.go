package video

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackFrameSize(t *testing.T) {
	t.Parallel()

	frame := BlackFrame(4, 3)
	assert.Len(t, frame, 4*3*bytesPerPixel)
	for _, b := range frame {
		require.Zero(t, b)
	}
}

func TestBoundedBufferKeepsMostRecent(t *testing.T) {
	t.Parallel()

	b := newBoundedBuffer(10)

	_, err := b.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789", b.String())

	// Writing past the limit should drop the oldest bytes
	_, err = b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "3456789abc", b.String())

	// A write larger than the whole buffer keeps only its tail
	n, err := b.Write([]byte("0123456789abcdefghijklmno"))
	require.NoError(t, err)
	assert.Equal(t, 25, n, "the full chunk counts as consumed")
	assert.Equal(t, "fghijklmno", b.String())

	// The bound must hold for later writes too
	_, err = b.Write([]byte("ZZ"))
	require.NoError(t, err)
	assert.Equal(t, "hijklmnoZZ", b.String())
}

func TestNewFFmpegSourceRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config FFmpegSourceConfig
	}{
		{"zero_width", FFmpegSourceConfig{Device: "/dev/video0", Height: 720, FPS: 30}},
		{"zero_height", FFmpegSourceConfig{Device: "/dev/video0", Width: 1280, FPS: 30}},
		{"zero_fps", FFmpegSourceConfig{Device: "/dev/video0", Width: 1280, Height: 720}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewFFmpegSource(tc.config)
			assert.Error(t, err)
		})
	}
}

func TestBuildArgsEndsWithRawPipe(t *testing.T) {
	t.Parallel()

	s := &FFmpegSource{config: FFmpegSourceConfig{
		Device: "/dev/video0",
		Width:  640,
		Height: 480,
		FPS:    25,
	}}

	args := s.buildArgs()
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-i /dev/video0")
	assert.Contains(t, joined, "-pix_fmt rgb24")
	assert.Equal(t, "pipe:1", args[len(args)-1])
}
