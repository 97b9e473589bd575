package video

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/tphakala/swingcam/internal/errors"
)

// boundedBuffer is a thread-safe bounded buffer for retaining the most
// recent stderr output from the FFmpeg process, used for error reporting.
type boundedBuffer struct {
	buffer bytes.Buffer
	mu     sync.Mutex
	size   int
}

func newBoundedBuffer(size int) *boundedBuffer {
	return &boundedBuffer{size: size}
}

func (b *boundedBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n = len(p)
	if b.buffer.Len()+len(p) > b.size {
		// Keep only the most recent output
		excess := b.buffer.Len() + len(p) - b.size
		if excess >= b.buffer.Len() {
			b.buffer.Reset()
		} else {
			b.buffer.Next(excess)
		}
		if len(p) > b.size {
			p = p[len(p)-b.size:]
		}
	}
	if _, err := b.buffer.Write(p); err != nil {
		return 0, err
	}
	return n, nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

// FFmpegSourceConfig holds the configuration for an FFmpeg capture source.
type FFmpegSourceConfig struct {
	FfmpegPath string // path to the ffmpeg binary
	Device     string // camera device, platform specific
	Width      int
	Height     int
	FPS        int
}

// FFmpegSource captures raw rgb24 frames from a camera device through an
// FFmpeg subprocess writing rawvideo to its stdout.
type FFmpegSource struct {
	config    FFmpegSourceConfig
	cmd       *exec.Cmd
	stdout    io.ReadCloser
	stderr    *boundedBuffer
	frameSize int

	mu         sync.Mutex
	exited     bool
	lastExitAt time.Time
}

// NewFFmpegSource starts the FFmpeg capture process and returns the source.
// Construction fails if the process cannot be started.
func NewFFmpegSource(config FFmpegSourceConfig) (*FFmpegSource, error) {
	if config.FfmpegPath == "" {
		config.FfmpegPath = "ffmpeg"
	}
	if config.Width <= 0 || config.Height <= 0 || config.FPS <= 0 {
		return nil, errors.Newf("invalid capture configuration: %dx%d @ %d fps",
			config.Width, config.Height, config.FPS).
			Component("video").
			Category(errors.CategoryValidation).
			Build()
	}

	s := &FFmpegSource{
		config:    config,
		stderr:    newBoundedBuffer(4096),
		frameSize: config.Width * config.Height * bytesPerPixel,
	}

	cmd := exec.Command(config.FfmpegPath, s.buildArgs()...) //nolint:gosec // args come from validated settings
	cmd.Stderr = s.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to create stdout pipe: %w", err)).
			Component("video").
			Category(errors.CategoryVideoSource).
			Build()
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.New(fmt.Errorf("failed to start ffmpeg capture: %w", err)).
			Component("video").
			Category(errors.CategoryVideoSource).
			Context("device", config.Device).
			Build()
	}

	s.cmd = cmd
	s.stdout = stdout

	log.Info("ffmpeg capture started",
		"device", config.Device,
		"size", fmt.Sprintf("%dx%d", config.Width, config.Height),
		"fps", config.FPS)

	return s, nil
}

// buildArgs constructs the FFmpeg arguments for raw frame capture on the
// current platform.
func (s *FFmpegSource) buildArgs() []string {
	size := fmt.Sprintf("%dx%d", s.config.Width, s.config.Height)
	rate := fmt.Sprintf("%d", s.config.FPS)

	args := []string{"-hide_banner", "-loglevel", "error"}

	switch runtime.GOOS {
	case "darwin":
		args = append(args, "-f", "avfoundation", "-framerate", rate, "-video_size", size)
	case "windows":
		args = append(args, "-f", "dshow", "-framerate", rate, "-video_size", size)
	default:
		args = append(args, "-f", "v4l2", "-framerate", rate, "-video_size", size)
	}

	args = append(args,
		"-i", s.config.Device,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	return args
}

// Read pulls one frame from the FFmpeg process. A short read or pipe error
// reports ok=false; the caller is expected to retry on its next iteration.
func (s *FFmpegSource) Read() (Frame, bool) {
	frame := make(Frame, s.frameSize)
	if _, err := io.ReadFull(s.stdout, frame); err != nil {
		s.noteReadFailure(err)
		return nil, false
	}
	return frame, true
}

// noteReadFailure logs read failures without flooding: the process-exit
// notice is emitted at most once a second.
func (s *FFmpegSource) noteReadFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.lastExitAt) < time.Second {
		return
	}
	s.lastExitAt = now

	if !s.exited && s.cmd.ProcessState != nil {
		s.exited = true
	}
	log.Warn("frame read failed",
		"error", err,
		"process_exited", s.exited,
		"ffmpeg_output", s.stderr.String())
}

// Width returns the configured frame width.
func (s *FFmpegSource) Width() int { return s.config.Width }

// Height returns the configured frame height.
func (s *FFmpegSource) Height() int { return s.config.Height }

// Close terminates the FFmpeg process and releases the pipe.
func (s *FFmpegSource) Close() error {
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	log.Info("ffmpeg capture stopped", "device", s.config.Device)
	return nil
}
