package video

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/tphakala/swingcam/internal/errors"
)

// tempExt is the temporary file extension used while FFmpeg is writing the
// clip; the finished file is renamed into place so a partially written clip
// never appears at the destination path.
const tempExt = ".temp"

// FFmpegWriter encodes raw rgb24 frames into an H.264 video file by piping
// them into an FFmpeg subprocess.
type FFmpegWriter struct {
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stderr      *boundedBuffer
	destination string
	tempPath    string
	frameSize   int
	started     time.Time
	closed      bool
}

// NewFFmpegWriter opens an encoder writing to destination at the given
// frame size and rate. The destination directory is created if needed.
func NewFFmpegWriter(ffmpegPath, destination string, width, height, fps int) (*FFmpegWriter, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("failed to create clip directory: %w", err)).
			Component("video").
			Category(errors.CategoryFileIO).
			Build()
	}

	tempPath := destination + tempExt

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", fmt.Sprintf("%d", fps),
		"-i", "-", // Read frames from stdin
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-f", "mp4",
		"-y",
		tempPath,
	}

	w := &FFmpegWriter{
		destination: destination,
		tempPath:    tempPath,
		stderr:      newBoundedBuffer(4096),
		frameSize:   width * height * bytesPerPixel,
		started:     time.Now(),
	}

	cmd := exec.Command(ffmpegPath, args...) //nolint:gosec // args come from validated settings
	cmd.Stderr = w.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to create stdin pipe: %w", err)).
			Component("video").
			Category(errors.CategoryEncode).
			Build()
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.New(fmt.Errorf("failed to start ffmpeg encoder: %w", err)).
			Component("video").
			Category(errors.CategoryEncode).
			Context("destination", destination).
			Build()
	}

	w.cmd = cmd
	w.stdin = stdin
	return w, nil
}

// WriteFrame sends one frame to the encoder. Frames of the wrong size are
// rejected to keep the rawvideo stream aligned.
func (w *FFmpegWriter) WriteFrame(frame Frame) error {
	if len(frame) != w.frameSize {
		return errors.Newf("frame size mismatch: got %d bytes, want %d", len(frame), w.frameSize).
			Component("video").
			Category(errors.CategoryEncode).
			Build()
	}
	if _, err := w.stdin.Write(frame); err != nil {
		return errors.New(fmt.Errorf("failed to write frame to encoder: %w", err)).
			Component("video").
			Category(errors.CategoryEncode).
			Context("ffmpeg_output", w.stderr.String()).
			Build()
	}
	return nil
}

// Close finalizes the encode and moves the finished clip to its
// destination. Safe to call once; later calls return nil.
func (w *FFmpegWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_ = w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		_ = os.Remove(w.tempPath)
		return errors.New(fmt.Errorf("ffmpeg encode failed: %w", err)).
			Component("video").
			Category(errors.CategoryEncode).
			Context("destination", w.destination).
			Context("ffmpeg_output", w.stderr.String()).
			Timing("clip-encode", time.Since(w.started)).
			Build()
	}

	if err := os.Rename(w.tempPath, w.destination); err != nil {
		return errors.New(fmt.Errorf("failed to finalize clip file: %w", err)).
			Component("video").
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}

// NewWriterFactory returns a WriterFactory bound to the given ffmpeg binary.
func NewWriterFactory(ffmpegPath string) WriterFactory {
	return func(destination string, width, height, fps int) (ClipWriter, error) {
		return NewFFmpegWriter(ffmpegPath, destination, width, height, fps)
	}
}
