package training

import (
	"sync"

	"github.com/tphakala/handsoff-go/internal/logger"
)

var (
	pkgLogger  logger.Logger
	loggerOnce sync.Once
)

// GetLogger returns the training package logger
func GetLogger() logger.Logger {
	loggerOnce.Do(func() {
		pkgLogger = logger.Global().Module("training")
	})
	return pkgLogger
}
