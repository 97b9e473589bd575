package realtime

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/swingcam/internal/conf"
	"github.com/tphakala/swingcam/internal/monitor"
)

// Command creates the command that runs the recorder.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Record clips of loud moments in realtime",
		Long:  "Capture continuous video history and save a clip whenever a loud sound is detected.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return monitor.RunRecorder(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Realtime.Clip.Path, "clippath", viper.GetString("realtime.clip.path"), "Path to save video clips")
	cmd.Flags().IntVar(&settings.Realtime.Clip.LengthMS, "cliplength", viper.GetInt("realtime.clip.lengthms"), "Clip length in milliseconds")
	cmd.Flags().StringVar(&settings.Realtime.Video.Device, "device", viper.GetString("realtime.video.device"), "Camera device to capture from")
	cmd.Flags().IntVar(&settings.Realtime.Video.FPS, "fps", viper.GetInt("realtime.video.fps"), "Estimated frame rate of the camera")
	cmd.Flags().IntVar(&settings.Realtime.Video.HistorySeconds, "history", viper.GetInt("realtime.video.historyseconds"), "Seconds of video history kept in memory")
	cmd.Flags().Float64Var(&settings.Realtime.Loudness.Threshold, "threshold", viper.GetFloat64("realtime.loudness.threshold"), "Mean amplitude that counts as a loud sound")
	cmd.Flags().BoolVar(&settings.Realtime.Telemetry.Enabled, "telemetry", viper.GetBool("realtime.telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Realtime.Telemetry.Listen, "listen", viper.GetString("realtime.telemetry.listen"), "Listen address and port of telemetry endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
