package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tphakala/swingcam/internal/clipper"
	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/errors"
	"github.com/tphakala/swingcam/internal/logging"
	"github.com/tphakala/swingcam/internal/loudness"
	"github.com/tphakala/swingcam/internal/mqtt"
	"github.com/tphakala/swingcam/internal/observability"
	"github.com/tphakala/swingcam/internal/video"
)

// recorderLogger returns the service logger for the recorder assembly.
func recorderLogger() *slog.Logger {
	if log := logging.ForService("monitor"); log != nil {
		return log
	}
	return slog.Default().With("service", "monitor")
}

// RunRecorder assembles the full recorder pipeline from the settings and
// blocks until SIGINT or SIGTERM. It owns the lifecycle of every component
// it starts.
func RunRecorder(settings *conf.Settings) error {
	log := recorderLogger()
	videoSettings := &settings.Realtime.Video
	clipSettings := &settings.Realtime.Clip

	if !conf.IsFfmpegAvailable(videoSettings.FfmpegPath) {
		return errors.Newf("ffmpeg not found, set realtime.video.ffmpegpath or install ffmpeg on PATH").
			Component("monitor").
			Category(errors.CategoryConfig).
			Build()
	}

	if err := os.MkdirAll(clipSettings.Path, 0o755); err != nil {
		return errors.New(fmt.Errorf("failed to create clip directory: %w", err)).
			Component("monitor").
			Category(errors.CategoryFileIO).
			Context("path", clipSettings.Path).
			Build()
	}

	obs, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	quitChan := make(chan struct{})

	if settings.Realtime.Telemetry.Enabled {
		endpoint, err := observability.NewEndpoint(settings.Realtime.Telemetry.Listen, obs)
		if err != nil {
			return err
		}
		endpoint.Start(&wg, quitChan)
	}

	source, err := video.NewFFmpegSource(video.FFmpegSourceConfig{
		FfmpegPath: videoSettings.FfmpegPath,
		Device:     videoSettings.Device,
		Width:      videoSettings.Width,
		Height:     videoSettings.Height,
		FPS:        videoSettings.FPS,
	})
	if err != nil {
		return err
	}

	clip, err := clipper.New(source, clipper.Config{
		Capacity:     videoSettings.FPS * videoSettings.HistorySeconds,
		EstimatedFPS: videoSettings.FPS,
		NewWriter:    video.NewWriterFactory(videoSettings.FfmpegPath),
		Metrics:      obs.Clipper,
	})
	if err != nil {
		source.Close() //nolint:errcheck
		return err
	}

	detector, err := loudness.Start(loudness.Config{
		Source:    settings.Realtime.Loudness.Source,
		Threshold: settings.Realtime.Loudness.Threshold,
		Cooldown:  time.Duration(settings.Realtime.Loudness.CooldownMS) * time.Millisecond,
		Debug:     settings.Realtime.Loudness.Debug,
		DebugPath: settings.Realtime.Loudness.DebugPath,
		Metrics:   obs.Loudness,
	})
	if err != nil {
		clip.Stop()
		return err
	}

	publisher := connectPublisher(settings, obs, log)

	eventLog, closeEventLog := openEventLog(&settings.Realtime.Log, log)
	if closeEventLog != nil {
		defer closeEventLog() //nolint:errcheck
	}

	mon := New(Config{
		NodeName:  settings.Main.Name,
		ClipDir:   clipSettings.Path,
		LengthMS:  clipSettings.LengthMS,
		DelayMS:   clipSettings.DelayMS,
		Retention: clipSettings.Retention,
		Topic:     settings.Realtime.MQTT.Topic,
		EventLog:  eventLog,
	}, detector.Triggers(), clip, publisher, obs.DiskManager)
	go mon.Run()

	log.Info("recorder running",
		"node", settings.Main.Name,
		"clip_dir", clipSettings.Path,
		"history_seconds", videoSettings.HistorySeconds)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("shutdown signal received", "signal", sig.String())

	// Detector first so no new triggers arrive, then the monitor so no
	// clip requests are in flight, then the clipper which finishes any
	// queued encode before releasing the camera.
	detector.Stop()
	mon.Stop()
	clip.Stop()
	if publisher != nil {
		publisher.Disconnect()
	}

	close(quitChan)
	wg.Wait()
	return nil
}

// openEventLog opens the dedicated rotating clip-event log when it is
// enabled. Failure to open the file degrades to the main log only.
func openEventLog(cfg *conf.LogConfig, log *slog.Logger) (*slog.Logger, func() error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opts := logging.OptionsForRotation(cfg.Rotation, cfg.MaxSize)
	eventLog, closeLog, err := logging.NewFileLogger(cfg.Path, "clips", slog.LevelInfo, opts)
	if err != nil {
		log.Warn("failed to open clip event log", "path", cfg.Path, "error", err)
		return nil, nil
	}
	return eventLog, closeLog
}

// connectPublisher creates and connects the MQTT client when publishing is
// enabled. A broker that is down at startup is not fatal: the client keeps
// reconnecting in the background.
func connectPublisher(settings *conf.Settings, obs *observability.Metrics, log *slog.Logger) mqtt.Client {
	mqttSettings := &settings.Realtime.MQTT
	if !mqttSettings.Enabled {
		return nil
	}

	config := mqtt.DefaultConfig()
	config.Broker = mqttSettings.Broker
	config.Username = mqttSettings.Username
	config.Password = mqttSettings.Password
	config.Retain = mqttSettings.Retain

	client, err := mqtt.NewClient(config, obs.MQTT)
	if err != nil {
		log.Warn("mqtt client setup failed, event publishing disabled", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		log.Warn("mqtt broker not reachable, will keep retrying in background", "error", err)
	}
	return client
}
