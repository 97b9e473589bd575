package loudness

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/logging"
	"github.com/tphakala/swingcam/internal/observability/metrics"
)

// Trigger is one detected loud sound. Level carries the mean amplitude that
// crossed the threshold.
type Trigger struct {
	Level float64
	When  time.Time
}

// Config holds construction parameters for a Detector.
type Config struct {
	Source    string        // capture device by ID or name substring, empty for default
	Threshold float64       // mean amplitude that counts as loud
	Cooldown  time.Duration // minimum delay between triggers
	Debug     bool          // export the triggering PCM buffer as WAV
	DebugPath string        // directory for debug WAV exports
	Metrics   *metrics.LoudnessMetrics
}

// Detector watches an audio sample stream and emits a Trigger whenever the
// mean amplitude of a buffer crosses the threshold. After a trigger it
// sleeps for the cooldown period; audio arriving during the cooldown is
// never evaluated, so one sustained loud event yields one trigger.
type Detector struct {
	config  Config
	samples chan []byte
	out     chan Trigger
	quit    chan struct{}
	done    chan struct{}
	log     *slog.Logger

	// release stops the capture device feeding the samples channel; nil
	// for detectors driven directly through feed (tests).
	release func()

	mu     sync.Mutex
	active bool
}

// sampleQueueSize bounds the buffered sample chunks between the capture
// callback and the detector loop. The callback drops chunks when the
// channel is full, which is exactly the desired behaviour during cooldown.
const sampleQueueSize = 8

// newDetector wires up a detector without any capture device attached.
func newDetector(config Config) *Detector {
	log := logging.ForService("loudness")
	if log == nil {
		log = slog.Default().With("service", "loudness")
	}

	return &Detector{
		config:  config,
		samples: make(chan []byte, sampleQueueSize),
		out:     make(chan Trigger, 16),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		log:     log,
		active:  true,
	}
}

// Start creates a detector capturing from the configured audio input
// device and starts its evaluation loop.
func Start(config Config) (*Detector, error) {
	d := newDetector(config)

	release, err := startCapture(config.Source, d.feed)
	if err != nil {
		return nil, err
	}
	d.release = release

	go d.run()

	d.log.Info("loudness detector started",
		"source", config.Source,
		"threshold", config.Threshold,
		"cooldown_ms", config.Cooldown.Milliseconds())
	return d, nil
}

// Triggers returns the channel on which detected loud sounds are delivered.
// The channel is closed when the detector stops.
func (d *Detector) Triggers() <-chan Trigger {
	return d.out
}

// IsActive reports whether the detector is still running.
func (d *Detector) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Stop terminates the evaluation loop and releases the capture device.
// It is a no-op if the detector is already stopped.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	d.active = false
	d.mu.Unlock()

	close(d.quit)
	<-d.done

	if d.release != nil {
		d.release()
	}
	d.log.Info("loudness detector stopped")
}

// feed hands one PCM chunk to the evaluation loop. It never blocks; chunks
// are dropped when the loop is busy or sleeping through a cooldown.
func (d *Detector) feed(pcm []byte) {
	// Copy: the capture backend reuses its buffer after the callback returns
	chunk := make([]byte, len(pcm))
	copy(chunk, pcm)

	select {
	case d.samples <- chunk:
	default:
	}
}

// run is the detector's evaluation loop.
func (d *Detector) run() {
	defer close(d.done)
	defer close(d.out)

	for {
		select {
		case <-d.quit:
			return
		case chunk := <-d.samples:
			d.config.Metrics.RecordBuffer(ScaledLevel(chunk))

			mean := MeanAmplitude(chunk)
			if mean <= d.config.Threshold {
				continue
			}

			d.log.Info("detected loud sound", "mean_amplitude", mean)
			trigger := Trigger{Level: mean, When: time.Now()}
			select {
			case d.out <- trigger:
				d.config.Metrics.RecordTrigger()
			default:
				// Consumer is not keeping up; losing a trigger is
				// preferable to blocking the evaluation loop.
				d.config.Metrics.RecordTriggerDropped()
				d.log.Warn("trigger dropped, output channel full")
			}

			if d.config.Debug {
				d.exportTriggerBuffer(chunk, trigger.When)
			}

			if d.config.Cooldown > 0 {
				d.sleepCooldown()
			}
			// Discard anything captured while sleeping so sound from
			// the cooldown window is never evaluated
			d.drainStale()
		}
	}
}

// sleepCooldown waits out the cooldown period but still honours Stop.
func (d *Detector) sleepCooldown() {
	timer := time.NewTimer(d.config.Cooldown)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-d.quit:
	}
}

// drainStale discards queued sample chunks without blocking.
func (d *Detector) drainStale() {
	for {
		select {
		case <-d.samples:
		default:
			return
		}
	}
}

// exportTriggerBuffer writes the triggering PCM chunk to a timestamped WAV
// file for inspection. Failures are logged only.
func (d *Detector) exportTriggerBuffer(pcm []byte, when time.Time) {
	name := fmt.Sprintf("trigger-%s.wav", when.Format("060102-150405.000"))
	path := filepath.Join(d.config.DebugPath, name)
	if err := SavePCMDataToWAV(path, pcm, conf.SampleRate, conf.BitDepth, conf.NumChannels); err != nil {
		d.log.Error("failed to export trigger buffer", "path", path, "error", err)
	}
}
