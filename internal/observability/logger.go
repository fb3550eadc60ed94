// Package observability provides Prometheus metrics functionality for monitoring the hands-off detector.
package observability

import "github.com/tphakala/handsoff-go/internal/logger"

// Package-level cached logger instance.
var log = logger.Global().Module("telemetry")
