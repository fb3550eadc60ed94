package classifier

import (
	"sync"

	"github.com/tphakala/handsoff-go/internal/logger"
)

var (
	pkgLogger  logger.Logger
	loggerOnce sync.Once
)

// GetLogger returns the classifier package logger
func GetLogger() logger.Logger {
	loggerOnce.Do(func() {
		pkgLogger = logger.Global().Module("classifier")
	})
	return pkgLogger
}
