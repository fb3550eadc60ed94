package training

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/tphakala/handsoff-go/internal/classifier"
	"github.com/tphakala/handsoff-go/internal/embedding"
	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
	"github.com/tphakala/handsoff-go/internal/observability/metrics"
)

// Default collection parameters
const (
	DefaultSamples     = 50
	DefaultSampleDelay = 100 * time.Millisecond
)

// Sentinel errors. Returned errors wrap these; match them with errors.Is.
var (
	ErrTrainingComplete = errors.NewStd("training already complete")
	ErrPhaseInProgress  = errors.NewStd("training phase already in progress")
)

// Config configures exemplar collection
type Config struct {
	Samples     int           // exemplars per phase, 0 means DefaultSamples
	SampleDelay time.Duration // pause after each sample, negative means none
}

// Progress describes collection progress inside a phase
type Progress struct {
	Phase   Phase
	Sample  int // samples collected so far, 1-based
	Total   int
	Percent int // round(Sample/Total*100)
}

// Observer receives training progress. Calls are made from the goroutine running RunPhase.
type Observer interface {
	TrainingProgress(p Progress)
	PhaseChanged(from, to Phase)
}

// ExemplarStore receives the collected exemplars
type ExemplarStore interface {
	AddExample(vector []float32, label classifier.Label) error
	Len() int
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithObserver registers an observer for progress updates
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Coordinator) {
		c.metrics = metrics.OrNoOp(r)
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// Coordinator runs training phases against an exemplar store
type Coordinator struct {
	session   *Session
	source    embedding.Source
	store     ExemplarStore
	cfg       Config
	observers []Observer
	metrics   metrics.Recorder
	log       logger.Logger
	running   atomic.Bool
}

// New creates a coordinator for session
func New(session *Session, source embedding.Source, store ExemplarStore, cfg Config, opts ...Option) *Coordinator {
	if cfg.Samples <= 0 {
		cfg.Samples = DefaultSamples
	}
	if cfg.SampleDelay < 0 {
		cfg.SampleDelay = 0
	}

	c := &Coordinator{
		session: session,
		source:  source,
		store:   store,
		cfg:     cfg,
		metrics: metrics.NewNoOpRecorder(),
		log:     GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.String("session_id", session.ID()))
	return c
}

// Session returns the session driven by the coordinator
func (c *Coordinator) Session() *Session {
	return c.session
}

// RunPhase collects the exemplars of the current phase and advances the session
// when all of them are stored. A capture failure or cancellation aborts the phase:
// exemplars added so far stay in the store, the phase does not change and the
// next RunPhase starts the phase over from sample zero.
func (c *Coordinator) RunPhase(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New(ErrPhaseInProgress).
			Component("training").
			Category(errors.CategoryState).
			Build()
	}
	defer c.running.Store(false)

	phase := c.session.Phase()
	label, ok := phase.Label()
	if !ok {
		return errors.New(ErrTrainingComplete).
			Component("training").
			Category(errors.CategoryState).
			Context("phase", phase.String()).
			Build()
	}

	c.session.resetCounter()
	start := time.Now()
	c.log.Info("training phase started",
		logger.String("phase", phase.String()),
		logger.String("label", label.String()),
		logger.Int("samples", c.cfg.Samples))

	for i := range c.cfg.Samples {
		if err := c.collect(ctx, phase, label, i); err != nil {
			c.metrics.RecordOperation(metrics.OpTrainingPhase, metrics.StatusAborted)
			c.log.Warn("training phase aborted",
				logger.String("phase", phase.String()),
				logger.Int("collected", c.session.SamplesCollected()),
				logger.Error(err))
			return err
		}
	}

	from, to := c.session.advance()
	c.metrics.RecordOperation(metrics.OpTrainingPhase, metrics.StatusSuccess)
	c.metrics.SetGauge(metrics.GaugeTrainingPhase, float64(to))
	c.log.Info("training phase complete",
		logger.String("phase", from.String()),
		logger.String("next", to.String()),
		logger.Int("exemplars", c.store.Len()),
		logger.Duration("duration", time.Since(start)))
	for _, o := range c.observers {
		o.PhaseChanged(from, to)
	}
	return nil
}

// collect captures and stores sample i, waits the sample delay and reports progress
func (c *Coordinator) collect(ctx context.Context, phase Phase, label classifier.Label, i int) error {
	if ctx.Err() != nil {
		return c.cancelled(ctx, phase)
	}

	embedStart := time.Now()
	vector, err := c.source.Embed(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return c.cancelled(ctx, phase)
		}
		c.metrics.RecordError(metrics.OpEmbedding, categoryOf(err))
		return errors.New(fmt.Errorf("sample %d of %s: %w", i+1, phase, err)).
			Component("training").
			Category(errors.CategoryTraining).
			Context("phase", phase.String()).
			Context("sample", i+1).
			Build()
	}
	c.metrics.RecordDuration(metrics.OpEmbedding, time.Since(embedStart).Seconds())

	if err := c.store.AddExample(vector, label); err != nil {
		return errors.New(fmt.Errorf("store sample %d of %s: %w", i+1, phase, err)).
			Component("training").
			Category(errors.CategoryTraining).
			Context("phase", phase.String()).
			Context("sample", i+1).
			Build()
	}

	n := c.session.incrementCounter()
	c.metrics.RecordOperation(metrics.OpTrainingSample, label.String())
	c.metrics.SetGauge(metrics.GaugeExemplars, float64(c.store.Len()))

	progress := Progress{
		Phase:   phase,
		Sample:  n,
		Total:   c.cfg.Samples,
		Percent: percent(n, c.cfg.Samples),
	}
	c.log.Debug("training sample stored",
		logger.String("phase", phase.String()),
		logger.Int("sample", n),
		logger.Int("percent", progress.Percent))

	if err := sleep(ctx, c.cfg.SampleDelay, func() error { return c.cancelled(ctx, phase) }); err != nil {
		return err
	}
	for _, o := range c.observers {
		o.TrainingProgress(progress)
	}
	return nil
}

func (c *Coordinator) cancelled(ctx context.Context, phase Phase) error {
	return errors.New(ctx.Err()).
		Component("training").
		Category(errors.CategoryCancellation).
		Context("phase", phase.String()).
		Build()
}

// percent returns round(n/total*100)
func percent(n, total int) int {
	return int(math.Round(float64(n) / float64(total) * 100))
}

// sleep waits d or until ctx is done, in which case it returns onCancel()
func sleep(ctx context.Context, d time.Duration, onCancel func() error) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return onCancel()
	case <-timer.C:
		return nil
	}
}

// categoryOf returns the error category label for metrics
func categoryOf(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return string(ee.ErrorCategory())
	}
	return string(errors.CategoryGeneric)
}
