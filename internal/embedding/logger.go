package embedding

import "github.com/tphakala/handsoff-go/internal/logger"

// GetLogger returns the embedding package logger
func GetLogger() logger.Logger {
	return logger.Global().Module("embedding")
}
