package detector

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/handsoff-go/internal/classifier"
	"github.com/tphakala/handsoff-go/internal/embedding"
	"github.com/tphakala/handsoff-go/internal/logger"
	"github.com/tphakala/handsoff-go/internal/observability/metrics"
)

var quietLogger = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }

// scriptedPredictor returns queued results in order, repeating the last one
type scriptedPredictor struct {
	mu      sync.Mutex
	results []classifier.Result
	err     error
}

func (p *scriptedPredictor) Predict([]float32) (classifier.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return classifier.Result{}, p.err
	}
	r := p.results[0]
	if len(p.results) > 1 {
		p.results = p.results[1:]
	}
	return r, nil
}

type countingTrigger struct{ n atomic.Int32 }

func (c *countingTrigger) Trigger() { c.n.Add(1) }

type recordingIndicator struct {
	mu     sync.Mutex
	states []bool
}

func (r *recordingIndicator) SetTouched(t bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, t)
}

func vectorSource() embedding.Source {
	return embedding.SourceFunc(func(context.Context) ([]float32, error) {
		return []float32{1, 2, 3}, nil
	})
}

func result(label classifier.Label, confidence float64) classifier.Result {
	return classifier.Result{Label: label, Confidence: confidence, Neighbors: 10}
}

func TestTickDecisionRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		result      classifier.Result
		wantOutcome TickOutcome
		wantTrigger int32
	}{
		{"touching above threshold", result(classifier.LabelTouching, 0.9), TickTouched, 1},
		{"touching at full confidence", result(classifier.LabelTouching, 1.0), TickTouched, 1},
		{"touching exactly at threshold", result(classifier.LabelTouching, 0.8), TickNotTouched, 0},
		{"touching below threshold", result(classifier.LabelTouching, 0.7), TickNotTouched, 0},
		{"not touching", result(classifier.LabelNotTouching, 1.0), TickNotTouched, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			trig := &countingTrigger{}
			l := New(readyFlag(true), vectorSource(), &scriptedPredictor{results: []classifier.Result{tt.result}},
				trig, Config{}, WithLogger(quietLogger))

			res, err := l.Tick(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantTrigger, trig.n.Load())
			assert.Equal(t, tt.wantOutcome == TickTouched, l.Touched())
		})
	}
}

func TestTickFlagTransitions(t *testing.T) {
	t.Parallel()

	trig := &countingTrigger{}
	ind := &recordingIndicator{}
	rec := metrics.NewTestRecorder()
	pred := &scriptedPredictor{results: []classifier.Result{
		result(classifier.LabelTouching, 0.9),
		result(classifier.LabelTouching, 0.9),
		result(classifier.LabelNotTouching, 0.6),
	}}
	l := New(readyFlag(true), vectorSource(), pred, trig, Config{},
		WithLogger(quietLogger), WithIndicator(ind), WithMetrics(rec))

	for range 3 {
		_, err := l.Tick(t.Context())
		require.NoError(t, err)
	}

	assert.False(t, l.Touched())
	assert.Equal(t, int32(2), trig.n.Load())
	assert.Equal(t, []bool{true, true, false}, ind.states)
	assert.Equal(t, 2, rec.GetOperationCount(metrics.OpPrediction, "touched"))
	assert.Equal(t, 1, rec.GetOperationCount(metrics.OpPrediction, "not_touch"))
	touched, ok := rec.GetGauge(metrics.GaugeTouched)
	require.True(t, ok)
	assert.InDelta(t, 0, touched, 0)
}

func TestTickCaptureFailureLeavesFlag(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	src := embedding.SourceFunc(func(context.Context) ([]float32, error) {
		if fail.Load() {
			return nil, fmt.Errorf("%w: frame missing", embedding.ErrCaptureUnavailable)
		}
		return []float32{1}, nil
	})
	trig := &countingTrigger{}
	ind := &recordingIndicator{}
	rec := metrics.NewTestRecorder()
	l := New(readyFlag(true), src, &scriptedPredictor{results: []classifier.Result{result(classifier.LabelTouching, 1)}},
		trig, Config{}, WithLogger(quietLogger), WithIndicator(ind), WithMetrics(rec))

	_, err := l.Tick(t.Context())
	require.NoError(t, err)
	require.True(t, l.Touched())

	fail.Store(true)
	res, err := l.Tick(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, embedding.ErrCaptureUnavailable)
	assert.Equal(t, TickSkippedCapture, res.Outcome)
	assert.True(t, res.Touched)
	assert.True(t, l.Touched())
	assert.Equal(t, int32(1), trig.n.Load())
	assert.Equal(t, []bool{true}, ind.states)
	assert.Equal(t, 1, rec.GetErrorCount(metrics.OpEmbedding, "generic"))
}

func TestTickPredictFailureFailsClosed(t *testing.T) {
	t.Parallel()

	trig := &countingTrigger{}
	pred := &scriptedPredictor{err: fmt.Errorf("%w: got 3, want 4", classifier.ErrDimensionMismatch)}
	l := New(readyFlag(true), vectorSource(), pred, trig, Config{}, WithLogger(quietLogger))

	res, err := l.Tick(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, classifier.ErrDimensionMismatch)
	assert.Equal(t, TickSkippedPredict, res.Outcome)
	assert.False(t, l.Touched())
	assert.Zero(t, trig.n.Load())
}

func TestRunRequiresReadySession(t *testing.T) {
	t.Parallel()

	l := New(readyFlag(false), vectorSource(), &scriptedPredictor{}, &countingTrigger{}, Config{}, WithLogger(quietLogger))
	err := l.Run(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRunTicksUntilCancelled(t *testing.T) {
	t.Parallel()

	trig := &countingTrigger{}
	pred := &scriptedPredictor{results: []classifier.Result{result(classifier.LabelTouching, 1)}}
	l := New(readyFlag(true), vectorSource(), pred, trig, Config{PollInterval: time.Millisecond}, WithLogger(quietLogger))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return trig.n.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.True(t, l.Touched())
}

func TestRunWithTrainedClassifier(t *testing.T) {
	t.Parallel()

	clf, err := classifier.New(classifier.DefaultConfig(), classifier.WithLogger(quietLogger))
	require.NoError(t, err)
	for i := range 10 {
		require.NoError(t, clf.AddExample([]float32{0, float32(i) * 0.01}, classifier.LabelNotTouching))
		require.NoError(t, clf.AddExample([]float32{10, float32(i) * 0.01}, classifier.LabelTouching))
	}

	var query atomic.Value
	query.Store([]float32{10, 0})
	src := embedding.SourceFunc(func(context.Context) ([]float32, error) {
		return query.Load().([]float32), nil
	})
	trig := &countingTrigger{}
	l := New(readyFlag(true), src, clf, trig, Config{}, WithLogger(quietLogger))

	res, err := l.Tick(t.Context())
	require.NoError(t, err)
	assert.Equal(t, TickTouched, res.Outcome)
	assert.InDelta(t, 1.0, res.Result.Confidence, 1e-9)

	query.Store([]float32{0, 0})
	res, err = l.Tick(t.Context())
	require.NoError(t, err)
	assert.Equal(t, TickNotTouched, res.Outcome)
	assert.Equal(t, int32(1), trig.n.Load())
}

func TestRunStopsOnDimensionChange(t *testing.T) {
	t.Parallel()

	clf, err := classifier.New(classifier.Config{K: 1, Metric: classifier.MetricEuclidean},
		classifier.WithLogger(quietLogger))
	require.NoError(t, err)
	require.NoError(t, clf.AddExample([]float32{0, 0}, classifier.LabelNotTouching))
	require.NoError(t, clf.AddExample([]float32{10, 10}, classifier.LabelTouching))

	// the camera model is swapped after two ticks
	var calls atomic.Int32
	src := embedding.SourceFunc(func(context.Context) ([]float32, error) {
		if calls.Add(1) <= 2 {
			return []float32{10, 10}, nil
		}
		return []float32{10, 10, 10}, nil
	})
	trig := &countingTrigger{}
	rec := metrics.NewTestRecorder()
	l := New(readyFlag(true), src, clf, trig, Config{PollInterval: time.Millisecond},
		WithLogger(quietLogger), WithMetrics(rec))

	done := make(chan error, 1)
	go func() { done <- l.Run(t.Context()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, classifier.ErrDimensionMismatch)
	case <-time.After(time.Second):
		t.Fatal("Run kept polling after the embedding dimension changed")
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(2), trig.n.Load())
	assert.Equal(t, 1, rec.GetErrorCount(metrics.OpPrediction, "validation"))
}

func TestRunSkipsCaptureFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	src := embedding.SourceFunc(func(context.Context) ([]float32, error) {
		if calls.Add(1)%2 == 1 {
			return nil, fmt.Errorf("%w: frame missing", embedding.ErrCaptureUnavailable)
		}
		return []float32{1, 2, 3}, nil
	})
	trig := &countingTrigger{}
	pred := &scriptedPredictor{results: []classifier.Result{result(classifier.LabelTouching, 1)}}
	l := New(readyFlag(true), src, pred, trig, Config{PollInterval: time.Millisecond}, WithLogger(quietLogger))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return trig.n.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(6))
}

func TestTickOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "touched", TickTouched.String())
	assert.Equal(t, "not_touched", TickNotTouched.String())
	assert.Equal(t, "skipped_capture", TickSkippedCapture.String())
	assert.Equal(t, "skipped_predict", TickSkippedPredict.String())
	assert.Equal(t, "unknown", TickOutcome(42).String())
}

func TestTriggerFunc(t *testing.T) {
	t.Parallel()

	called := false
	var trig Trigger = TriggerFunc(func() { called = true })
	trig.Trigger()
	assert.True(t, called)
}
