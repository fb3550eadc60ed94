// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// validMetrics lists the distance metrics the classifier understands
var validMetrics = []string{"euclidean", "cosine"}

var validLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validators := []func(*Settings) error{
		validateLoggingSettings,
		validateClassifierSettings,
		validateTrainingSettings,
		validateDetectionSettings,
		validateEmbeddingSettings,
		validateAlertSettings,
		validateNotificationSettings,
		validateTelemetrySettings,
	}

	for _, validate := range validators {
		if err := validate(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func joinErrors(section string, errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s settings errors: %s", section, strings.Join(errs, "; "))
}

func validateLoggingSettings(s *Settings) error {
	var errs []string
	level := s.Logging.DefaultLevel
	if level != "" && !slices.Contains(validLogLevels, level) {
		errs = append(errs, fmt.Sprintf("unknown default log level %q", level))
	}
	for module, lvl := range s.Logging.ModuleLevels {
		if !slices.Contains(validLogLevels, lvl) {
			errs = append(errs, fmt.Sprintf("unknown log level %q for module %s", lvl, module))
		}
	}
	return joinErrors("logging", errs)
}

func validateClassifierSettings(s *Settings) error {
	var errs []string
	if s.Classifier.K < 1 {
		errs = append(errs, fmt.Sprintf("k must be at least 1, got %d", s.Classifier.K))
	}
	if !slices.Contains(validMetrics, s.Classifier.Metric) {
		errs = append(errs, fmt.Sprintf("metric must be one of %s, got %q", strings.Join(validMetrics, ", "), s.Classifier.Metric))
	}
	return joinErrors("classifier", errs)
}

func validateTrainingSettings(s *Settings) error {
	var errs []string
	if s.Training.Samples < 1 {
		errs = append(errs, fmt.Sprintf("samples must be at least 1, got %d", s.Training.Samples))
	}
	if s.Training.SampleDelay < 0 {
		errs = append(errs, "sample delay must not be negative")
	}
	return joinErrors("training", errs)
}

func validateDetectionSettings(s *Settings) error {
	var errs []string
	if s.Detection.PollInterval <= 0 {
		errs = append(errs, "poll interval must be positive")
	}
	if c := s.Detection.TouchedConfidence; c < 0 || c >= 1 {
		errs = append(errs, fmt.Sprintf("touched confidence must be in [0, 1), got %g", c))
	}
	return joinErrors("detection", errs)
}

func validateEmbeddingSettings(s *Settings) error {
	var errs []string
	if s.Embedding.Threads < 0 {
		errs = append(errs, "threads must not be negative")
	}
	if s.Embedding.InputSize < 0 {
		errs = append(errs, "input size must not be negative")
	}
	if s.Camera.Frame == "" && s.Camera.ReplayDir == "" {
		errs = append(errs, "either camera.frame or camera.replaydir must be set")
	}
	if s.Camera.MaxAge < 0 {
		errs = append(errs, "camera max age must not be negative")
	}
	return joinErrors("embedding", errs)
}

func validateAlertSettings(s *Settings) error {
	var errs []string
	if strings.TrimSpace(s.Alert.Title) == "" {
		errs = append(errs, "alert title must not be empty")
	}
	return joinErrors("alert", errs)
}

func validateNotificationSettings(s *Settings) error {
	var errs []string
	if s.Notification.Cooldown < 0 {
		errs = append(errs, "cooldown must not be negative")
	}
	for _, raw := range s.Notification.Push.URLs {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" {
			// The URL itself may carry credentials, so only its position is reported
			errs = append(errs, fmt.Sprintf("push url #%d is not a valid service URL", slices.Index(s.Notification.Push.URLs, raw)+1))
		}
	}
	if len(s.Notification.Push.URLs) > 0 && s.Notification.Push.RateLimit < 0 {
		errs = append(errs, "push rate limit must not be negative")
	}
	return joinErrors("notification", errs)
}

func validateTelemetrySettings(s *Settings) error {
	var errs []string
	if s.Telemetry.Enabled && s.Telemetry.Listen == "" {
		errs = append(errs, "telemetry listen address must be set when telemetry is enabled")
	}
	if s.Sentry.Enabled && s.Sentry.DSN == "" {
		errs = append(errs, "sentry dsn must be set when sentry is enabled")
	}
	return joinErrors("telemetry", errs)
}
