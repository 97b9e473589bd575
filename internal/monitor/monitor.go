// Package monitor connects the loudness detector to the clipper: every
// trigger becomes a saved clip and, optionally, a published MQTT event.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/diskmanager"
	"github.com/tphakala/swingcam/internal/logging"
	"github.com/tphakala/swingcam/internal/loudness"
	"github.com/tphakala/swingcam/internal/mqtt"
	"github.com/tphakala/swingcam/internal/observability/metrics"
)

// clipTimestampFormat names saved clips after their trigger time.
const clipTimestampFormat = "20060102-150405"

// publishTimeout bounds a single MQTT publish so a slow broker cannot
// stall the trigger loop.
const publishTimeout = 10 * time.Second

// ClipRequester is the part of the clipper the monitor drives.
type ClipRequester interface {
	Clip(durationMS int, destination string) error
	IsActive() bool
}

// ClipEvent is the JSON payload published for every saved clip.
type ClipEvent struct {
	ID       string  `json:"id"`
	Node     string  `json:"node"`
	ClipName string  `json:"clip_name"`
	Level    float64 `json:"level"`
	Time     string  `json:"time"`
}

// Config holds construction parameters for a Monitor.
type Config struct {
	NodeName  string
	ClipDir   string
	LengthMS  int // clip duration handed to the clipper
	DelayMS   int // wait after a trigger so the clip covers the aftermath
	Retention conf.ClipRetentionSettings
	Topic     string       // MQTT topic for clip events, ignored when Publisher is nil
	EventLog  *slog.Logger // optional dedicated log file for saved clip events
}

// Monitor runs the trigger loop: it waits for loudness triggers, delays so
// the moment of interest lands inside the history window, requests a clip
// and publishes the clip event. It also owns the periodic retention sweep.
type Monitor struct {
	config    Config
	triggers  <-chan loudness.Trigger
	requester ClipRequester
	publisher mqtt.Client
	metrics   *metrics.DiskManagerMetrics
	quit      chan struct{}
	done      chan struct{}
	log       *slog.Logger

	stopOnce sync.Once
}

// New constructs a Monitor. The publisher may be nil to disable event
// publishing; metrics may be nil to disable retention metrics.
func New(config Config, triggers <-chan loudness.Trigger, requester ClipRequester, publisher mqtt.Client, m *metrics.DiskManagerMetrics) *Monitor {
	log := logging.ForService("monitor")
	if log == nil {
		log = slog.Default().With("service", "monitor")
	}

	return &Monitor{
		config:    config,
		triggers:  triggers,
		requester: requester,
		publisher: publisher,
		metrics:   m,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		log:       log,
	}
}

// Run processes triggers until Stop is called or the trigger channel is
// closed. It blocks; callers normally run it in its own goroutine.
func (m *Monitor) Run() {
	defer close(m.done)

	var retentionTick <-chan time.Time
	if m.config.Retention.Policy != "" && m.config.Retention.Policy != "none" {
		interval := time.Duration(m.config.Retention.Interval) * time.Minute
		if interval <= 0 {
			interval = 10 * time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		retentionTick = ticker.C
	}

	for {
		select {
		case <-m.quit:
			return
		case <-retentionTick:
			m.runRetention()
		case trigger, ok := <-m.triggers:
			if !ok {
				m.log.Info("trigger channel closed, monitor exiting")
				return
			}
			m.handleTrigger(trigger)
		}
	}
}

// Stop terminates the trigger loop and waits for it to finish. Idempotent.
// It stops only the monitor itself; the detector, clipper and publisher are
// owned and shut down by the caller.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.quit)
		<-m.done
	})
}

// handleTrigger converts one loudness trigger into a clip request and an
// MQTT event.
func (m *Monitor) handleTrigger(trigger loudness.Trigger) {
	m.log.Info("loud sound detected",
		"level", trigger.Level,
		"threshold_crossed_at", trigger.When.Format(time.RFC3339))

	// The sound marks the end of the interesting moment. Waiting here
	// shifts the history window so the clip also covers what happened
	// right after the trigger.
	if m.config.DelayMS > 0 {
		select {
		case <-time.After(time.Duration(m.config.DelayMS) * time.Millisecond):
		case <-m.quit:
			return
		}
	}

	clipName := fmt.Sprintf("swing-%s.mp4", trigger.When.Format(clipTimestampFormat))
	destination := filepath.Join(m.config.ClipDir, clipName)

	if err := m.requester.Clip(m.config.LengthMS, destination); err != nil {
		m.log.Error("failed to request clip", "destination", destination, "error", err)
		return
	}

	if m.config.EventLog != nil {
		m.config.EventLog.Info("clip requested",
			"clip_name", clipName,
			"level", trigger.Level,
			"triggered_at", trigger.When.Format(time.RFC3339))
	}

	m.publishEvent(trigger, clipName)
}

// publishEvent sends the clip event to the MQTT broker, if one is configured.
func (m *Monitor) publishEvent(trigger loudness.Trigger, clipName string) {
	if m.publisher == nil {
		return
	}

	event := ClipEvent{
		ID:       uuid.New().String(),
		Node:     m.config.NodeName,
		ClipName: clipName,
		Level:    trigger.Level,
		Time:     trigger.When.Format(time.RFC3339),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		m.log.Error("failed to marshal clip event", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := m.publisher.Publish(ctx, m.config.Topic, string(payload)); err != nil {
		m.log.Error("failed to publish clip event",
			"topic", m.config.Topic,
			"clip_name", clipName,
			"error", err)
	}
}

// runRetention runs one cleanup pass over the clip directory.
func (m *Monitor) runRetention() {
	deleted, err := diskmanager.Cleanup(&m.config.Retention, m.config.ClipDir, m.quit, m.metrics)
	if err != nil {
		m.log.Error("retention cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		m.log.Info("retention cleanup removed clips", "deleted", deleted)
	}
}
