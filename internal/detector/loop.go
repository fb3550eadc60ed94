// Package detector runs the continuous face-touch inference loop.
//
// Every tick embeds the current frame, classifies it and reports a touch when the
// winning label is touching with a confidence strictly above the threshold. A touch
// sets the touched flag and fires the trigger; any other prediction clears the flag.
// Ticks whose frame cannot be captured are skipped and leave the flag unchanged.
package detector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tphakala/handsoff-go/internal/classifier"
	"github.com/tphakala/handsoff-go/internal/embedding"
	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
	"github.com/tphakala/handsoff-go/internal/observability/metrics"
)

// Defaults
const (
	DefaultPollInterval      = 200 * time.Millisecond
	DefaultTouchedConfidence = 0.8
)

// ErrNotReady is returned by Run before training has completed
var ErrNotReady = errors.NewStd("training not complete")

// Predictor classifies embeddings
type Predictor interface {
	Predict(vector []float32) (classifier.Result, error)
}

// ReadinessChecker reports whether training has completed
type ReadinessChecker interface {
	Ready() bool
}

// Trigger is invoked for every tick that detects a touch
type Trigger interface {
	Trigger()
}

// TriggerFunc adapts a function to Trigger
type TriggerFunc func()

// Trigger calls f()
func (f TriggerFunc) Trigger() { f() }

// Indicator shows the touched state to the user
type Indicator interface {
	SetTouched(touched bool)
}

// Config configures the loop
type Config struct {
	PollInterval      time.Duration // delay between ticks, 0 means DefaultPollInterval
	TouchedConfidence float64       // threshold that must be exceeded, 0 means DefaultTouchedConfidence
}

// TickOutcome classifies what a tick did
type TickOutcome int

const (
	TickTouched         TickOutcome = iota // touch detected, trigger fired
	TickNotTouched                         // prediction below threshold or another label
	TickSkippedCapture                     // no embedding, flag unchanged
	TickSkippedPredict                     // prediction failed, flag unchanged
)

// String returns the outcome name
func (o TickOutcome) String() string {
	switch o {
	case TickTouched:
		return "touched"
	case TickNotTouched:
		return "not_touched"
	case TickSkippedCapture:
		return "skipped_capture"
	case TickSkippedPredict:
		return "skipped_predict"
	default:
		return "unknown"
	}
}

// TickResult describes one loop iteration
type TickResult struct {
	Outcome TickOutcome
	Result  classifier.Result // zero when skipped
	Touched bool              // flag after the tick
}

// Option configures a Loop
type Option func(*Loop)

// WithIndicator adds an indicator updated on every evaluated tick
func WithIndicator(i Indicator) Option {
	return func(l *Loop) {
		if i != nil {
			l.indicators = append(l.indicators, i)
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(r metrics.Recorder) Option {
	return func(l *Loop) {
		l.metrics = metrics.OrNoOp(r)
	}
}

// WithLogger sets the logger
func WithLogger(lg logger.Logger) Option {
	return func(l *Loop) {
		if lg != nil {
			l.log = lg
		}
	}
}

// Loop is the inference loop. Run may be called by one goroutine at a time;
// Touched and Tick are safe to call concurrently.
type Loop struct {
	session    ReadinessChecker
	source     embedding.Source
	predictor  Predictor
	trigger    Trigger
	cfg        Config
	indicators []Indicator
	metrics    metrics.Recorder
	log        logger.Logger

	mu      sync.RWMutex
	touched bool
}

// New creates an inference loop
func New(session ReadinessChecker, source embedding.Source, predictor Predictor, trigger Trigger, cfg Config, opts ...Option) *Loop {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.TouchedConfidence <= 0 {
		cfg.TouchedConfidence = DefaultTouchedConfidence
	}

	l := &Loop{
		session:   session,
		source:    source,
		predictor: predictor,
		trigger:   trigger,
		cfg:       cfg,
		metrics:   metrics.NewNoOpRecorder(),
		log:       GetLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Touched returns the touched flag
func (l *Loop) Touched() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.touched
}

// Run ticks every poll interval until ctx is cancelled, then returns nil.
// It returns ErrNotReady when training has not completed. A frame that cannot be
// embedded only skips its tick, but an embedding whose dimension differs from the
// exemplars ends Run with classifier.ErrDimensionMismatch.
func (l *Loop) Run(ctx context.Context) error {
	if !l.session.Ready() {
		return errors.New(ErrNotReady).
			Component("detector").
			Category(errors.CategoryState).
			Build()
	}

	l.log.Info("detection started",
		logger.Duration("poll_interval", l.cfg.PollInterval),
		logger.Float64("touched_confidence", l.cfg.TouchedConfidence))

	timer := time.NewTimer(0)
	defer timer.Stop()

	var ticks, touches uint64
	for {
		select {
		case <-ctx.Done():
			l.log.Info("detection stopped",
				logger.Uint64("ticks", ticks),
				logger.Uint64("touches", touches))
			return nil
		case <-timer.C:
		}

		res, err := l.Tick(ctx)
		ticks++
		if errors.Is(err, classifier.ErrDimensionMismatch) {
			l.log.Error("embedding dimension does not match the trained exemplars, detection stopped",
				logger.Uint64("ticks", ticks),
				logger.Error(err))
			return err
		}
		if err == nil && res.Outcome == TickTouched {
			touches++
		}
		timer.Reset(l.cfg.PollInterval)
	}
}

// Tick runs one iteration without sleeping. Skipped ticks return the error that
// caused the skip along with the result.
func (l *Loop) Tick(ctx context.Context) (TickResult, error) {
	start := time.Now()
	vector, err := l.source.Embed(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.metrics.RecordError(metrics.OpEmbedding, categoryOf(err))
			l.log.Debug("tick skipped, no embedding", logger.Error(err))
		}
		return TickResult{Outcome: TickSkippedCapture, Touched: l.Touched()}, err
	}
	l.metrics.RecordDuration(metrics.OpEmbedding, time.Since(start).Seconds())

	predictStart := time.Now()
	result, err := l.predictor.Predict(vector)
	if err != nil {
		l.metrics.RecordError(metrics.OpPrediction, categoryOf(err))
		if !errors.Is(err, classifier.ErrDimensionMismatch) {
			l.log.Warn("prediction failed, no alert raised", logger.Error(err))
		}
		return TickResult{Outcome: TickSkippedPredict, Touched: l.Touched()},
			errors.New(fmt.Errorf("predict: %w", err)).
				Component("detector").
				Category(errors.CategoryInference).
				Build()
	}
	l.metrics.RecordDuration(metrics.OpPrediction, time.Since(predictStart).Seconds())
	l.metrics.RecordOperation(metrics.OpPrediction, result.Label.String())

	touched := l.isTouch(result)
	l.setTouched(touched)
	if touched {
		l.log.Debug("face touch detected", logger.Float64("confidence", result.Confidence))
		l.trigger.Trigger()
		return TickResult{Outcome: TickTouched, Result: result, Touched: true}, nil
	}
	return TickResult{Outcome: TickNotTouched, Result: result, Touched: false}, nil
}

// isTouch applies the decision rule to a prediction
func (l *Loop) isTouch(r classifier.Result) bool {
	return r.Label == classifier.LabelTouching && r.Confidence > l.cfg.TouchedConfidence
}

func (l *Loop) setTouched(touched bool) {
	l.mu.Lock()
	changed := l.touched != touched
	l.touched = touched
	l.mu.Unlock()

	if changed {
		l.metrics.SetGauge(metrics.GaugeTouched, boolToFloat(touched))
	}
	for _, i := range l.indicators {
		i.SetTouched(touched)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// categoryOf returns the error category label for metrics
func categoryOf(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return string(ee.ErrorCategory())
	}
	return string(errors.CategoryGeneric)
}
