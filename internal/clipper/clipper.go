// Package clipper maintains a bounded in-memory video history and saves the
// most recent moments of it to disk on request.
package clipper

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/tphakala/swingcam/internal/errors"
	"github.com/tphakala/swingcam/internal/logging"
	"github.com/tphakala/swingcam/internal/observability/metrics"
	"github.com/tphakala/swingcam/internal/ringbuf"
	"github.com/tphakala/swingcam/internal/video"
)

// ErrClipperInactive is returned by Clip when the clipper has been stopped.
var ErrClipperInactive = errors.NewStd("clipper is not active")

// ErrCommandQueueFull is returned by Clip when the command channel cannot
// accept another request without blocking the caller.
var ErrCommandQueueFull = errors.NewStd("clipper command queue is full")

// commandQueueSize bounds the command channel. Commands are drained once per
// captured frame, so this only fills if a caller floods clip requests far
// faster than the source produces frames.
const commandQueueSize = 256

// command is the tagged union carried by the command channel.
type command interface {
	isCommand()
}

// clipCommand asks for the most recent durationMS milliseconds of history
// to be saved to destination.
type clipCommand struct {
	durationMS  int
	destination string
}

// stopCommand asks the capture loop to terminate.
type stopCommand struct{}

func (clipCommand) isCommand() {}
func (stopCommand) isCommand() {}

// Config holds construction parameters for a Clipper.
type Config struct {
	Capacity     int                    // number of frames of history to retain
	EstimatedFPS int                    // configured, not measured, source frame rate
	NewWriter    video.WriterFactory    // opens clip encoders at save time
	Metrics      *metrics.ClipperMetrics // optional, nil disables metrics
}

// Clipper continuously captures frames from a video source into a bounded
// history buffer and materializes clips of the recent history on request.
//
// The capture goroutine is the only owner of the frame buffer: it is the
// sole writer and the sole reader during clip extraction, so the buffer
// itself needs no locking. The buffered command channel is the single
// structure shared between caller goroutines and the capture loop.
type Clipper struct {
	source       video.Source
	buffer       *ringbuf.Buffer[video.Frame]
	commands     chan command
	estimatedFPS int
	msPerFrame   float64
	newWriter    video.WriterFactory
	metrics      *metrics.ClipperMetrics
	done         chan struct{}
	log          *slog.Logger

	mu     sync.RWMutex
	active bool
}

// New constructs a Clipper around the given source and starts its capture
// goroutine. The history buffer is pre-filled with black placeholder frames
// sized to the source's current resolution. Ownership of the source
// transfers to the Clipper; it is released by Stop.
func New(source video.Source, config Config) (*Clipper, error) {
	if config.EstimatedFPS <= 0 {
		return nil, errors.Newf("invalid estimated fps: %d", config.EstimatedFPS).
			Component("clipper").
			Category(errors.CategoryValidation).
			Build()
	}
	if config.NewWriter == nil {
		return nil, errors.Newf("clip writer factory is required").
			Component("clipper").
			Category(errors.CategoryValidation).
			Build()
	}

	placeholder := video.BlackFrame(source.Width(), source.Height())
	buffer, err := ringbuf.New(config.Capacity, placeholder)
	if err != nil {
		return nil, err
	}

	log := logging.ForService("clipper")
	if log == nil {
		log = slog.Default().With("service", "clipper")
	}

	c := &Clipper{
		source:       source,
		buffer:       buffer,
		commands:     make(chan command, commandQueueSize),
		estimatedFPS: config.EstimatedFPS,
		msPerFrame:   1000.0 / float64(config.EstimatedFPS),
		newWriter:    config.NewWriter,
		metrics:      config.Metrics,
		done:         make(chan struct{}),
		log:          log,
		active:       true,
	}

	go c.captureLoop()

	c.log.Info("clipper started",
		"capacity_frames", buffer.Len(),
		"estimated_fps", config.EstimatedFPS,
		"history_ms", int(float64(buffer.Len())*c.msPerFrame))

	return c, nil
}

// Clip requests that the most recent durationMS milliseconds of history be
// saved to destination. The call is fire and forget: it returns as soon as
// the request is enqueued and the caller is not notified of encode success
// or failure. Returns ErrClipperInactive after Stop.
func (c *Clipper) Clip(durationMS int, destination string) error {
	if !c.IsActive() {
		return errors.New(ErrClipperInactive).
			Component("clipper").
			Category(errors.CategoryState).
			Build()
	}
	if durationMS < 0 {
		return errors.Newf("invalid clip duration: %d ms", durationMS).
			Component("clipper").
			Category(errors.CategoryValidation).
			Build()
	}

	select {
	case c.commands <- clipCommand{durationMS: durationMS, destination: destination}:
		c.metrics.RecordClipRequested()
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// Stop terminates the capture loop, waits for it to finish and releases the
// video source. It is a no-op if the clipper is already inactive. An
// in-flight clip encode is not interrupted; the stop request queued behind
// it is processed once the encode completes. No timeout is imposed: a video
// source whose Read never returns will delay shutdown indefinitely.
func (c *Clipper) Stop() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.mu.Unlock()

	c.commands <- stopCommand{}
	<-c.done

	if err := c.source.Close(); err != nil {
		c.log.Error("failed to close video source", "error", err)
	}
	c.log.Info("clipper stopped")
}

// IsActive reports whether the clipper is still capturing. Safe to call
// from any goroutine.
func (c *Clipper) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// captureLoop is the single goroutine that both ingests frames and drains
// control commands. It exits only on a stop command.
func (c *Clipper) captureLoop() {
	defer close(c.done)

	for {
		frame, ok := c.source.Read()
		if !ok {
			// Transient source failure: log and retry. The loop never
			// exits because of a failed read, matching the device
			// capture semantics where the next read may well succeed.
			c.metrics.RecordFrameReadFailure()
			continue
		}

		c.buffer.Insert(frame)
		c.metrics.RecordFrameCaptured()

		// Non-blocking drain of one command. The loop must keep pulling
		// frames at the source's production rate, so it never waits here.
		select {
		case cmd := <-c.commands:
			switch cmd := cmd.(type) {
			case stopCommand:
				return
			case clipCommand:
				c.saveClip(cmd)
			default:
				// Unreachable with a correctly typed producer; a new
				// command variant without loop support is a contract
				// break, not a runtime condition to tolerate.
				panic(fmt.Sprintf("clipper: unknown command type %T", cmd))
			}
		default:
		}
	}
}
