// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "SwingCam")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "swingcam.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("realtime.video.device", defaultVideoDevice())
	viper.SetDefault("realtime.video.ffmpegpath", "ffmpeg")
	viper.SetDefault("realtime.video.width", 1280)
	viper.SetDefault("realtime.video.height", 720)
	viper.SetDefault("realtime.video.fps", 30)
	viper.SetDefault("realtime.video.historyseconds", 60)

	viper.SetDefault("realtime.clip.path", "clips/")
	viper.SetDefault("realtime.clip.lengthms", 2000)
	viper.SetDefault("realtime.clip.delayms", 1000)
	viper.SetDefault("realtime.clip.retention.policy", "none")
	viper.SetDefault("realtime.clip.retention.maxage", "7d")
	viper.SetDefault("realtime.clip.retention.maxusage", "80%")
	viper.SetDefault("realtime.clip.retention.interval", 10)
	viper.SetDefault("realtime.clip.retention.debug", false)

	viper.SetDefault("realtime.loudness.source", "sysdefault")
	viper.SetDefault("realtime.loudness.threshold", 2500)
	viper.SetDefault("realtime.loudness.cooldownms", 2000)
	viper.SetDefault("realtime.loudness.debug", false)
	viper.SetDefault("realtime.loudness.debugpath", "triggers/")

	viper.SetDefault("realtime.mqtt.enabled", false)
	viper.SetDefault("realtime.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("realtime.mqtt.topic", "swingcam")
	viper.SetDefault("realtime.mqtt.username", "")
	viper.SetDefault("realtime.mqtt.password", "")
	viper.SetDefault("realtime.mqtt.retain", false)

	viper.SetDefault("realtime.telemetry.enabled", false)
	viper.SetDefault("realtime.telemetry.listen", "0.0.0.0:8090")

	viper.SetDefault("realtime.log.enabled", false)
	viper.SetDefault("realtime.log.path", "swingcam-clips.txt")
}
