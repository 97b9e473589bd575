// conf/utils.go helper functions for configuration and platform specifics
package conf

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/tphakala/swingcam/internal/errors"
)

// GetDefaultConfigPaths returns a list of default config paths for the current OS.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			filepath.Join(homeDir, "AppData", "Local", "swingcam"),
			".",
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "swingcam"),
			"/etc/swingcam",
			".",
		}
	}

	return configPaths, nil
}

// defaultVideoDevice returns a sensible camera device default for the current OS.
func defaultVideoDevice() string {
	switch runtime.GOOS {
	case "darwin":
		return "0" // avfoundation device index
	case "windows":
		return "video=Integrated Camera"
	default:
		return "/dev/video0"
	}
}

// ParsePercentage converts a string like "80%" to a float64.
func ParsePercentage(percentage string) (float64, error) {
	if before, ok := strings.CutSuffix(percentage, "%"); ok {
		value, err := strconv.ParseFloat(before, 64)
		if err != nil {
			return 0, err
		}
		return value, nil
	}
	return 0, errors.Newf("invalid percentage format").
		Component("conf").
		Category(errors.CategoryValidation).
		Context("input", percentage).
		Build()
}

// ParseRetentionPeriod converts a string like "24h", "7d", "1w", "3m", "1y" to hours.
func ParseRetentionPeriod(retention string) (int, error) {
	if retention == "" {
		return 0, fmt.Errorf("retention period cannot be empty")
	}

	lastChar := retention[len(retention)-1]
	numberPart := retention[:len(retention)-1]

	// Handle case where the input is a plain integer
	if lastChar >= '0' && lastChar <= '9' {
		hours, err := strconv.Atoi(retention)
		if err != nil {
			return 0, fmt.Errorf("invalid retention period format: %s", retention)
		}
		return hours, nil
	}

	number, err := strconv.Atoi(numberPart)
	if err != nil {
		return 0, fmt.Errorf("invalid retention period format: %s", retention)
	}

	switch lastChar {
	case 'h':
		return number, nil
	case 'd':
		return number * 24, nil
	case 'w':
		return number * 24 * 7, nil
	case 'm':
		return number * 24 * 30, nil // Approximation, as months vary in length
	case 'y':
		return number * 24 * 365, nil // Ignoring leap years
	default:
		return 0, fmt.Errorf("invalid suffix for retention period: %c", lastChar)
	}
}

// IsFfmpegAvailable checks if the configured ffmpeg binary can be found.
func IsFfmpegAvailable(ffmpegPath string) bool {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if filepath.IsAbs(ffmpegPath) {
		_, err := os.Stat(ffmpegPath)
		return err == nil
	}
	_, err := exec.LookPath(ffmpegPath)
	return err == nil
}
