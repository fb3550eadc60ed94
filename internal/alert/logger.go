package alert

import (
	"sync"

	"github.com/tphakala/handsoff-go/internal/logger"
)

var (
	pkgLogger  logger.Logger
	loggerOnce sync.Once
)

// GetLogger returns the alert package logger
func GetLogger() logger.Logger {
	loggerOnce.Do(func() {
		pkgLogger = logger.Global().Module("alert")
	})
	return pkgLogger
}
