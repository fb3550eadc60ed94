// env.go - Environment variable configuration and validation
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "HANDSOFF_DEBUG", validateEnvBool},

		// Classifier
		{"classifier.k", "HANDSOFF_CLASSIFIER_K", validateEnvPositiveInt},
		{"classifier.metric", "HANDSOFF_CLASSIFIER_METRIC", validateEnvMetric},

		// Training and detection
		{"training.samples", "HANDSOFF_TRAINING_SAMPLES", validateEnvPositiveInt},
		{"training.sampledelay", "HANDSOFF_TRAINING_SAMPLEDELAY", validateEnvDuration},
		{"detection.pollinterval", "HANDSOFF_DETECTION_POLLINTERVAL", validateEnvDuration},
		{"detection.touchedconfidence", "HANDSOFF_DETECTION_TOUCHEDCONFIDENCE", validateEnvConfidence},

		// Model and camera paths
		{"embedding.model", "HANDSOFF_EMBEDDING_MODEL", validateEnvPath},
		{"embedding.threads", "HANDSOFF_EMBEDDING_THREADS", validateEnvThreads},
		{"camera.frame", "HANDSOFF_CAMERA_FRAME", nil},
		{"camera.replaydir", "HANDSOFF_CAMERA_REPLAYDIR", validateEnvPath},

		// Alerts
		{"alert.sound", "HANDSOFF_ALERT_SOUND", validateEnvPath},
		{"notification.cooldown", "HANDSOFF_NOTIFICATION_COOLDOWN", validateEnvDuration},
		{"notification.push.urls", "HANDSOFF_NOTIFICATION_PUSH_URLS", nil},

		// Observability
		{"telemetry.enabled", "HANDSOFF_TELEMETRY_ENABLED", validateEnvBool},
		{"sentry.enabled", "HANDSOFF_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "HANDSOFF_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateEnvThreads(value string) error {
	threads, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid threads: %w", err)
	}
	if threads < 0 {
		return fmt.Errorf("threads must be non-negative, got %d", threads)
	}
	return nil
}

func validateEnvMetric(value string) error {
	if !slices.Contains(validMetrics, value) {
		return fmt.Errorf("must be one of: %s", strings.Join(validMetrics, ", "))
	}
	return nil
}

func validateEnvDuration(value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("duration must be non-negative, got %s", d)
	}
	return nil
}

func validateEnvConfidence(value string) error {
	c, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid confidence: %w", err)
	}
	if c < 0.0 || c >= 1.0 {
		return fmt.Errorf("confidence must be in [0.0, 1.0), got %g", c)
	}
	return nil
}

func validateEnvPath(value string) error {
	cleanedPath := filepath.Clean(value)

	for part := range strings.SplitSeq(cleanedPath, string(os.PathSeparator)) {
		if part == ".." {
			return fmt.Errorf("path traversal detected in cleaned path: %s", cleanedPath)
		}
	}

	// Reported as a warning; the component that opens the path fails properly
	if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
		return fmt.Errorf("warning: file does not exist: %s", cleanedPath)
	}

	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return bindEnvVars()
}
