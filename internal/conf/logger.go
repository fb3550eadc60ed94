// Package conf provides configuration management for the hands-off detector.
package conf

import "github.com/tphakala/handsoff-go/internal/logger"

// GetLogger returns the config package logger scoped to the config module.
// The logger is fetched from the global logger each time so it picks up the
// central logger once main has installed it.
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}
