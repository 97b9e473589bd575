package clipper

import (
	"math"
	"time"

	"github.com/tphakala/swingcam/internal/errors"
)

// saveClip materializes one clip request synchronously inside the capture
// loop. Synchronous invocation is intentional: the clip reflects the buffer
// exactly as it stands when the request is processed, and back-to-back
// requests are serialized without extra locking. Capture pauses for the
// encode duration, which is the accepted trade-off.
//
// Encode failures are logged and counted but never propagate: a bad clip
// request must not take down ongoing capture.
func (c *Clipper) saveClip(cmd clipCommand) {
	started := time.Now()

	if err := c.materialize(cmd.durationMS, cmd.destination); err != nil {
		c.metrics.RecordClipError()
		msg := "failed to save clip"
		if errors.HasCategory(err, errors.CategoryBuffer) {
			// Window selection produced an out-of-range index, which the
			// clamp should make impossible
			msg = "clip window selection bug"
		}
		c.log.Error(msg,
			"destination", cmd.destination,
			"duration_ms", cmd.durationMS,
			"error", err)
		return
	}

	elapsed := time.Since(started)
	c.metrics.RecordClipSaved(elapsed)
	c.log.Info("saved clip",
		"destination", cmd.destination,
		"duration_ms", cmd.durationMS,
		"encode_time_ms", elapsed.Milliseconds())
}

// materialize converts the requested duration to a frame count under the
// estimated frame rate, clamps it to the retained history, and writes the
// selected window oldest first so the clip plays forward.
func (c *Clipper) materialize(durationMS int, destination string) error {
	framesWanted := int(math.Round(float64(durationMS) / c.msPerFrame))
	if framesWanted > c.buffer.Len() {
		// Requesting more than the retained history yields the entire
		// history instead of failing.
		framesWanted = c.buffer.Len()
	}
	start := c.buffer.Len() - framesWanted

	// Query the source size at save time so resolution changes are respected.
	writer, err := c.newWriter(destination, c.source.Width(), c.source.Height(), c.estimatedFPS)
	if err != nil {
		return err
	}

	for i := start; i < c.buffer.Len(); i++ {
		frame, err := c.buffer.At(i)
		if err != nil {
			// Structurally unreachable given the clamp above. Fail the
			// clip loudly instead of clamping again so the logic bug
			// surfaces.
			_ = writer.Close()
			return errors.New(err).
				Component("clipper").
				Category(errors.CategoryBuffer).
				Context("index", i).
				Build()
		}
		if err := writer.WriteFrame(frame); err != nil {
			_ = writer.Close()
			return err
		}
	}

	return writer.Close()
}
