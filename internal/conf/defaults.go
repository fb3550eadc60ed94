// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/handsoff.log")
	viper.SetDefault("logging.file_output.level", "info")

	viper.SetDefault("classifier.k", DefaultK)
	viper.SetDefault("classifier.metric", "euclidean")

	viper.SetDefault("training.samples", TrainingTimes)
	viper.SetDefault("training.sampledelay", 100*time.Millisecond)

	viper.SetDefault("detection.pollinterval", 200*time.Millisecond)
	viper.SetDefault("detection.touchedconfidence", TouchedConfidence)

	viper.SetDefault("embedding.model", "models/feature_extractor.tflite")
	viper.SetDefault("embedding.threads", 0)
	viper.SetDefault("embedding.inputsize", 0)

	viper.SetDefault("camera.frame", "frame.jpg")
	viper.SetDefault("camera.replaydir", "")
	viper.SetDefault("camera.maxage", 2*time.Second)

	viper.SetDefault("alert.sound", "")
	viper.SetDefault("alert.title", "Hands off")
	viper.SetDefault("alert.body", "You just touched your face")

	viper.SetDefault("notification.cooldown", 3*time.Second)
	viper.SetDefault("notification.push.urls", []string{})
	viper.SetDefault("notification.push.ratelimit", 30*time.Second)
	viper.SetDefault("notification.push.timeout", 10*time.Second)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.listen", "127.0.0.1:8090")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
}
