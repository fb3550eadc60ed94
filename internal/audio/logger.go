package audio

import "github.com/tphakala/handsoff-go/internal/logger"

// GetLogger returns the audio package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("audio")
}
