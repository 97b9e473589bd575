package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/swingcam/internal/loudness"
)

// Command creates the command that lists audio capture devices.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List available audio capture devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := loudness.ListCaptureDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("No audio capture devices found")
				return nil
			}
			fmt.Println("Available audio capture devices:")
			for _, device := range devices {
				fmt.Printf("  %d: %s [%s]\n", device.Index, device.Name, device.ID)
			}
			return nil
		},
	}
}
