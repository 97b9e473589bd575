// config.go: This file contains the configuration for the SwingCam application.
// It defines the settings struct and functions to load and access the settings.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig contains settings for a rotated log file.
type LogConfig struct {
	Enabled  bool   // true to enable this log
	Path     string // path to log file
	Rotation string // rotation type: daily, weekly or size
	MaxSize  int64  // max size in bytes for size rotation
}

// VideoSettings contains settings for the camera capture pipeline.
type VideoSettings struct {
	Device         string // camera device, e.g. /dev/video0 or avfoundation index
	FfmpegPath     string // path to ffmpeg binary, "ffmpeg" to use PATH
	Width          int    // capture frame width in pixels
	Height         int    // capture frame height in pixels
	FPS            int    // estimated frames per second of the source
	HistorySeconds int    // seconds of video history retained in memory
}

// ClipRetentionSettings controls cleanup of old clips.
type ClipRetentionSettings struct {
	Debug    bool   // true to enable retention debug
	Policy   string // retention policy, "none", "age" or "usage"
	MaxAge   string // maximum age of clips to keep, e.g. "7d"
	MaxUsage string // maximum disk usage percentage before cleanup, e.g. "80%"
	Interval int    // minutes between cleanup runs
}

// ClipSettings contains settings for triggered clip export.
type ClipSettings struct {
	Path      string                // directory for saved clips
	LengthMS  int                   // clip duration in milliseconds
	DelayMS   int                   // delay after trigger before clipping, so the clip covers the sound's aftermath
	Retention ClipRetentionSettings // retention settings
}

// LoudnessSettings contains settings for the loudness trigger.
type LoudnessSettings struct {
	Source     string // audio capture source ("sysdefault", device name, etc.)
	Threshold  float64
	CooldownMS int  // minimum delay between triggers in milliseconds
	Debug      bool // true to export the triggering audio buffer as WAV
	DebugPath  string
}

// MQTTSettings contains settings for clip event publishing.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT event publishing
	Broker   string // MQTT broker URL
	Topic    string // topic to publish clip events to
	Username string
	Password string
	Retain   bool // true to retain messages at the broker
}

// TelemetrySettings contains settings for the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to enable Prometheus telemetry endpoint
	Listen  string // listen address and port
}

// RealtimeSettings contains all settings for the realtime recorder.
type RealtimeSettings struct {
	Video     VideoSettings
	Clip      ClipSettings
	Loudness  LoudnessSettings
	MQTT      MQTTSettings
	Telemetry TelemetrySettings
	Log       LogConfig
}

// Settings is the top level configuration struct.
type Settings struct {
	Debug bool // true to enable debug level logging

	Main struct {
		Name string    // node name, used to identify the recorder instance
		Log  LogConfig // main application log
	}

	Realtime RealtimeSettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and makes it the current one.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes a config file with current defaults to the
// first default config path and loads it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}

	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, yamlData, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("Created default config file at %s", configPath)
	return viper.ReadInConfig()
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
