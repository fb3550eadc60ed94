package notification

import (
	"github.com/tphakala/handsoff-go/internal/conf"
	"github.com/tphakala/handsoff-go/internal/observability/metrics"
)

// NewServiceFromSettings builds a Service that always logs notifications and pushes
// them through shoutrrr when push URLs are configured.
func NewServiceFromSettings(settings *conf.Settings, recorder metrics.Recorder) (*Service, error) {
	opts := []Option{
		WithMetrics(recorder),
		WithProvider(NewLogProvider(GetLogger())),
	}

	push := settings.Notification.Push
	if len(push.URLs) > 0 {
		p, err := NewShoutrrrProvider(push.URLs, push.RateLimit, push.Timeout, recorder)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithProvider(p))
	}

	return NewService(Config{Cooldown: settings.Notification.Cooldown}, opts...), nil
}
