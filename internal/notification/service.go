package notification

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
	"github.com/tphakala/handsoff-go/internal/observability/metrics"
)

// Defaults
const (
	DefaultCooldown    = 3 * time.Second
	DefaultQueueSize   = 16
	DefaultSendTimeout = 10 * time.Second
)

// Config configures the notification Service
type Config struct {
	Cooldown    time.Duration // repeats of a title inside this window are suppressed, 0 means DefaultCooldown
	QueueSize   int           // pending notifications, 0 means DefaultQueueSize
	SendTimeout time.Duration // per-provider send timeout, 0 means DefaultSendTimeout
}

// Option configures a Service
type Option func(*Service)

// WithProvider adds a delivery provider
func WithProvider(p Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.providers = append(s.providers, p)
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = metrics.OrNoOp(r)
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// Service throttles notifications and dispatches them to providers
type Service struct {
	cfg       Config
	providers []Provider
	recent    *cache.Cache
	queue     chan *Notification
	metrics   metrics.Recorder
	log       logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	stats  Stats
}

// NewService starts a notification service with its dispatch worker.
// Close must be called to stop the worker.
func NewService(cfg Config, opts ...Option) *Service {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cfg: cfg,
		// No janitor goroutine: expired entries are replaced by Add
		recent:  cache.New(cfg.Cooldown, 0),
		queue:   make(chan *Notification, cfg.QueueSize),
		metrics: metrics.NewNoOpRecorder(),
		log:     GetLogger(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Go(s.run)
	return s
}

// Notify requests a notification. Repeats of title inside the cooldown window are
// suppressed and reported as success. Delivery happens asynchronously.
func (s *Service) Notify(title, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New(ErrServiceClosed).
			Component("notification").
			Category(errors.CategoryState).
			Build()
	}
	s.stats.Requested++

	// Add fails while an unexpired entry for the key exists
	if err := s.recent.Add(title, struct{}{}, cache.DefaultExpiration); err != nil {
		s.stats.Suppressed++
		s.metrics.RecordOperation(metrics.OpNotification, metrics.StatusSuppressed)
		s.log.Debug("notification suppressed by cooldown", logger.String("title", title))
		return nil
	}

	n := NewNotification(title, body)
	select {
	case s.queue <- n:
		s.metrics.RecordOperation(metrics.OpNotification, metrics.StatusSuccess)
		return nil
	default:
		s.stats.Dropped++
		s.metrics.RecordOperation(metrics.OpNotification, metrics.StatusError)
		return errors.New(ErrQueueFull).
			Component("notification").
			Category(errors.CategoryLimit).
			Context("queue_size", s.cfg.QueueSize).
			Build()
	}
}

// run delivers queued notifications until the service is closed
func (s *Service) run() {
	for {
		select {
		case n := <-s.queue:
			s.dispatch(n)
		case <-s.ctx.Done():
			// Deliver what was accepted before Close
			for {
				select {
				case n := <-s.queue:
					s.dispatch(n)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) dispatch(n *Notification) {
	for _, p := range s.providers {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SendTimeout)
		err := p.Send(ctx, n)
		cancel()

		s.mu.Lock()
		if err != nil {
			s.stats.Failed++
		} else {
			s.stats.Delivered++
		}
		s.mu.Unlock()

		if err != nil {
			s.log.Warn("notification delivery failed",
				logger.String("provider", p.GetName()),
				logger.String("id", n.ID),
				logger.Error(err))
		}
	}
}

// Stats returns a snapshot of the counters
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close stops accepting notifications, delivers the queued ones and stops the worker
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}
