package notification

import (
	"context"

	"github.com/tphakala/handsoff-go/internal/logger"
)

// LogProvider writes notifications to the structured log
type LogProvider struct {
	log logger.Logger
}

// NewLogProvider returns a provider logging to l, or to the package logger when l is nil
func NewLogProvider(l logger.Logger) *LogProvider {
	if l == nil {
		l = GetLogger()
	}
	return &LogProvider{log: l}
}

// GetName returns "log"
func (p *LogProvider) GetName() string { return "log" }

// Send logs the notification
func (p *LogProvider) Send(_ context.Context, n *Notification) error {
	p.log.Info(n.Title,
		logger.String("message", n.Message),
		logger.String("id", n.ID),
		logger.Time("timestamp", n.Timestamp))
	return nil
}
