// config.go: settings struct for the hands-off detector and functions to load and save it.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
)

//go:embed config.yaml
var configFiles embed.FS

// ClassifierSettings configures the nearest-neighbor exemplar classifier
type ClassifierSettings struct {
	K      int    // number of neighbors consulted per prediction
	Metric string // distance metric: "euclidean" or "cosine"
}

// TrainingSettings configures guided exemplar collection
type TrainingSettings struct {
	Samples     int           // exemplars captured per phase
	SampleDelay time.Duration // pause between consecutive samples
}

// DetectionSettings configures the continuous inference loop
type DetectionSettings struct {
	PollInterval      time.Duration // delay between inference ticks
	TouchedConfidence float64       // confidence that must be exceeded to report a touch
}

// EmbeddingSettings configures the feature extraction model
type EmbeddingSettings struct {
	Model     string // path to a TensorFlow Lite feature extractor
	Threads   int    // interpreter threads, 0 for automatic
	InputSize int    // square input edge in pixels, 0 to read it from the model
}

// CameraSettings tells the embedder where frames come from
type CameraSettings struct {
	Frame     string        // snapshot file continuously overwritten by a capture tool
	ReplayDir string        // directory of frames replayed in order instead of a live snapshot
	MaxAge    time.Duration // snapshots older than this are treated as unavailable, 0 disables the check
}

// AlertSettings configures the alert sound and notification text
type AlertSettings struct {
	Sound string // WAV file to play, empty for the built-in tone
	Title string // notification title
	Body  string // notification body
}

// PushSettings configures optional push notification delivery
type PushSettings struct {
	URLs      []string      // shoutrrr service URLs
	RateLimit time.Duration // minimum spacing between pushes
	Timeout   time.Duration // per-send timeout
}

// NotificationSettings configures the notification service
type NotificationSettings struct {
	Cooldown time.Duration // identical notifications inside this window are suppressed
	Push     PushSettings
}

// TelemetrySettings controls the Prometheus metrics endpoint
type TelemetrySettings struct {
	Enabled bool   // expose metrics over HTTP
	Listen  string // listen address for the metrics endpoint
}

// SentrySettings controls optional error reporting
type SentrySettings struct {
	Enabled bool
	DSN     string
}

// Settings contains all configuration options for the application.
type Settings struct {
	Debug bool // true to enable debug mode

	// Version is the build version, set at startup
	Version string `yaml:"-" mapstructure:"-"`

	Logging      logger.LoggingConfig
	Classifier   ClassifierSettings
	Training     TrainingSettings
	Detection    DetectionSettings
	Embedding    EmbeddingSettings
	Camera       CameraSettings
	Alert        AlertSettings
	Notification NotificationSettings
	Telemetry    TelemetrySettings
	Sentry       SentrySettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file, .env file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	// A missing .env file is not an error
	_ = godotenv.Load()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal-config").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// SetConfigFile makes Load read path instead of searching the default config paths.
// A missing file is then an error.
func SetConfigFile(path string) {
	viper.SetConfigFile(path)
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

	// function defined in defaults.go
	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		// Invalid environment values are reported but do not stop startup;
		// ValidateSettings rejects values that are actually unusable.
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Run on defaults; the file is only written on request
			GetLogger().Debug("no config file found, using defaults")
			return nil
		}
		return errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Category(errors.CategoryConfiguration).
			Context("operation", "read-config").
			Build()
	}

	GetLogger().Debug("config file loaded", logger.String("path", viper.ConfigFileUsed()))
	return nil
}

// WriteDefaultConfig writes the embedded default configuration to the first default config path.
// An existing file is left untouched.
func WriteDefaultConfig() (string, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return "", fmt.Errorf("error reading embedded config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", errors.FileError(fmt.Errorf("error creating directories for config file: %w", err), configPath)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return "", errors.FileError(fmt.Errorf("error writing default config file: %w", err), configPath)
	}

	return configPath, nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// MarshalYAML renders settings as YAML in the same layout the config file uses.
func MarshalYAML(settings *Settings) ([]byte, error) {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return data, nil
}
