package loudness

import (
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"

	"github.com/gen2brain/malgo"

	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/errors"
)

// DeviceInfo holds information about an audio capture device.
type DeviceInfo struct {
	Index int
	Name  string
	ID    string
}

// platformBackends returns the preferred miniaudio backend for the current OS.
func platformBackends() []malgo.Backend {
	switch runtime.GOOS {
	case "linux":
		return []malgo.Backend{malgo.BackendAlsa}
	case "windows":
		return []malgo.Backend{malgo.BackendWasapi}
	case "darwin":
		return []malgo.Backend{malgo.BackendCoreaudio}
	default:
		return nil
	}
}

// startCapture opens a capture device at the detector's fixed
// format (mono S16, 44.1kHz) and invokes onSamples for every received
// buffer. The source selects the device by decoded ID or name substring;
// empty means the system default. It returns a release function that stops
// the device and frees the context.
func startCapture(source string, onSamples func(pcm []byte)) (release func(), err error) {
	malgoCtx, err := malgo.InitContext(platformBackends(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to initialize audio context: %w", err)).
			Component("loudness").
			Category(errors.CategoryAudioSource).
			Build()
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = conf.NumChannels
	deviceConfig.SampleRate = conf.SampleRate
	deviceConfig.PeriodSizeInFrames = conf.FramesPerBuffer
	deviceConfig.Alsa.NoMMap = 1

	if source != "" {
		infos, err := malgoCtx.Devices(malgo.Capture)
		if err != nil {
			malgoCtx.Uninit() //nolint:errcheck
			malgoCtx.Free()
			return nil, errors.New(fmt.Errorf("failed to enumerate capture devices: %w", err)).
				Component("loudness").
				Category(errors.CategoryAudioSource).
				Build()
		}
		selected, found := selectCaptureDevice(infos, source)
		if !found {
			malgoCtx.Uninit() //nolint:errcheck
			malgoCtx.Free()
			return nil, errors.Newf("no capture device matches source %q", source).
				Component("loudness").
				Category(errors.CategoryAudioSource).
				Build()
		}
		deviceConfig.Capture.DeviceID = selected.ID.Pointer()
	}

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSamples, pInputSamples []byte, frameCount uint32) {
			onSamples(pInputSamples)
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		malgoCtx.Uninit() //nolint:errcheck
		malgoCtx.Free()
		return nil, errors.New(fmt.Errorf("failed to initialize capture device: %w", err)).
			Component("loudness").
			Category(errors.CategoryAudioSource).
			Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		malgoCtx.Uninit() //nolint:errcheck
		malgoCtx.Free()
		return nil, errors.New(fmt.Errorf("failed to start capture device: %w", err)).
			Component("loudness").
			Category(errors.CategoryAudioSource).
			Build()
	}

	release = func() {
		_ = device.Stop()
		device.Uninit()
		malgoCtx.Uninit() //nolint:errcheck
		malgoCtx.Free()
	}
	return release, nil
}

// selectCaptureDevice picks the enumerated device matching the configured
// source. It reports false when nothing matches.
func selectCaptureDevice(infos []malgo.DeviceInfo, source string) (malgo.DeviceInfo, bool) {
	for _, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			continue
		}
		if matchesDevice(decodedID, info.Name(), info.IsDefault == 1, source) {
			return info, true
		}
	}
	return malgo.DeviceInfo{}, false
}

// matchesDevice checks whether one capture device satisfies the configured
// source. "sysdefault" is an ALSA device name; platforms without ALSA map
// it to the system default device.
func matchesDevice(decodedID, name string, isDefault bool, source string) bool {
	if source == "sysdefault" && runtime.GOOS != "linux" {
		return isDefault
	}
	return decodedID == source || strings.Contains(name, source)
}

// ListCaptureDevices returns the available audio capture devices.
func ListCaptureDevices() ([]DeviceInfo, error) {
	malgoCtx, err := malgo.InitContext(platformBackends(), malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	defer func() {
		malgoCtx.Uninit() //nolint:errcheck
		malgoCtx.Free()
	}()

	infos, err := malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for i, info := range infos {
		decodedID, err := hexToASCII(info.ID.String())
		if err != nil {
			// Skip devices with undecodable IDs
			continue
		}
		devices = append(devices, DeviceInfo{
			Index: i,
			Name:  info.Name(),
			ID:    decodedID,
		})
	}

	return devices, nil
}

// hexToASCII converts a hexadecimal string to an ASCII string.
func hexToASCII(hexStr string) (string, error) {
	bytes, err := hex.DecodeString(hexStr)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
