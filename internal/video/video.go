// Package video provides camera frame capture and clip encoding backed by FFmpeg.
package video

import (
	"log/slog"

	"github.com/tphakala/swingcam/internal/logging"
)

// Frame is one raw video frame in rgb24 pixel order. Frames are immutable
// once read from a source; the capture loop stores them as-is in the
// history buffer.
type Frame []byte

// Source is a live video stream. Read blocks until a frame is available or
// the source fails; it reports failure through the ok flag rather than an
// error because a failed read is a transient, retryable condition for the
// capture loop.
//
// Ownership of the source transfers to the clipper at construction and the
// clipper releases it exactly once during Stop.
type Source interface {
	// Read pulls the next frame. ok is false if no frame could be read.
	Read() (frame Frame, ok bool)
	// Width returns the current frame width in pixels.
	Width() int
	// Height returns the current frame height in pixels.
	Height() int
	// Close releases the underlying device or process.
	Close() error
}

// ClipWriter encodes frames into an output video file. Frames must be
// written oldest first; Close finalizes the file.
type ClipWriter interface {
	WriteFrame(frame Frame) error
	Close() error
}

// WriterFactory opens a ClipWriter for the given destination. The clip
// materializer calls this at save time with the source's current frame
// size so resolution changes are respected.
type WriterFactory func(destination string, width, height, fps int) (ClipWriter, error)

// BlackFrame returns an all-zero placeholder frame for the given size.
func BlackFrame(width, height int) Frame {
	return make(Frame, width*height*bytesPerPixel)
}

const bytesPerPixel = 3 // rgb24

// Package-level logger for video capture and encoding events
var log *slog.Logger

func init() {
	log = logging.ForService("video")
	if log == nil {
		log = slog.Default().With("service", "video")
	}
}
