package realtime

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/handsoff-go/internal/analysis"
	"github.com/tphakala/handsoff-go/internal/conf"
)

// Command creates a new command for guided training followed by realtime detection.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		unattended bool
		stepDelay  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Train on your camera and detect face touches in realtime",
		Long: `Guide through two training steps, first not touching then touching your face,
and then watch the camera and alert on every face touch until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var prompt analysis.Prompter = analysis.NewConsolePrompter(os.Stdin, os.Stdout)
			if unattended {
				prompt = analysis.AutoPrompter{Delay: stepDelay}
			}
			return analysis.RealtimeAnalysis(cmd.Context(), settings, prompt)
		},
	}

	cmd.Flags().BoolVar(&unattended, "unattended", false, "Start every step automatically instead of waiting for Enter")
	cmd.Flags().DurationVar(&stepDelay, "step-delay", 3*time.Second, "Pause before each step in unattended mode")

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Camera.Frame, "frame", viper.GetString("camera.frame"), "Snapshot file kept current by the camera capture tool")
	cmd.Flags().StringVar(&settings.Camera.ReplayDir, "replay", viper.GetString("camera.replaydir"), "Directory of recorded frames to replay instead of the live snapshot")
	cmd.Flags().StringVar(&settings.Embedding.Model, "model", viper.GetString("embedding.model"), "Path to the TensorFlow Lite feature extractor")
	cmd.Flags().IntVar(&settings.Training.Samples, "samples", viper.GetInt("training.samples"), "Samples collected per training step")
	cmd.Flags().Float64Var(&settings.Detection.TouchedConfidence, "confidence", viper.GetFloat64("detection.touchedconfidence"), "Confidence that must be exceeded to report a touch")
	cmd.Flags().StringVar(&settings.Alert.Sound, "sound", viper.GetString("alert.sound"), "WAV file played on a touch, empty for the built-in tone")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", viper.GetString("telemetry.listen"), "Listen address and port of telemetry endpoint")

	// Bind flags to the viper settings
	for key, flag := range map[string]string{
		"camera.frame":                "frame",
		"camera.replaydir":            "replay",
		"embedding.model":             "model",
		"training.samples":            "samples",
		"detection.touchedconfidence": "confidence",
		"alert.sound":                 "sound",
		"telemetry.enabled":           "telemetry",
		"telemetry.listen":            "listen",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
