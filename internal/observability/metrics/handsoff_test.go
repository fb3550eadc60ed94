package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandsOffMetricsRecordOperation(t *testing.T) {
	t.Parallel()

	m, err := NewHandsOffMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	var r Recorder = m
	for range 3 {
		r.RecordOperation(OpTrainingSample, "not_touch")
	}
	r.RecordOperation(OpPrediction, "touched")
	r.RecordOperation(OpAlertTrigger, StatusPlayed)
	r.RecordOperation(OpAlertTrigger, StatusSuppressed)
	r.RecordOperation(OpAlertTrigger, StatusSuppressed)
	r.RecordOperation(OpNotification, StatusSuccess)
	r.RecordOperation("unknown", "ignored")

	assert.InDelta(t, 3, testutil.ToFloat64(m.TrainingSamplesTotal.WithLabelValues("not_touch")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("touched")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlertTriggersTotal.WithLabelValues(StatusPlayed)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AlertTriggersTotal.WithLabelValues(StatusSuppressed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NotificationsTotal.WithLabelValues(StatusSuccess)), 0)
}

func TestHandsOffMetricsGaugesAndErrors(t *testing.T) {
	t.Parallel()

	m, err := NewHandsOffMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.SetGauge(GaugeTouched, 1)
	m.SetGauge(GaugeTrainingPhase, 2)
	m.SetGauge(GaugeExemplars, 100)
	m.RecordError(OpEmbedding, "frame-capture")
	m.RecordError(OpEmbedding, "frame-capture")
	m.RecordDuration(OpPrediction, 0.002)

	assert.InDelta(t, 1, testutil.ToFloat64(m.TouchedGauge), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.TrainingPhaseGauge), 0)
	assert.InDelta(t, 100, testutil.ToFloat64(m.ExemplarsGauge), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(OpEmbedding, "frame-capture")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.PredictionDuration))
}

func TestHandsOffMetricsDoubleRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewHandsOffMetrics(registry)
	require.NoError(t, err)
	_, err = NewHandsOffMetrics(registry)
	assert.Error(t, err)
}

func TestTestRecorder(t *testing.T) {
	t.Parallel()

	r := NewTestRecorder()
	assert.False(t, r.HasRecordedMetrics())

	r.RecordOperation(OpPrediction, "touched")
	r.RecordOperation(OpPrediction, "touched")
	r.RecordDuration(OpPrediction, 0.5)
	r.RecordError(OpPrediction, "classifier")
	r.SetGauge(GaugeTouched, 1)

	assert.Equal(t, 2, r.GetOperationCount(OpPrediction, "touched"))
	assert.Zero(t, r.GetOperationCount(OpPrediction, "not_touch"))
	assert.Equal(t, []float64{0.5}, r.GetDurations(OpPrediction))
	assert.Nil(t, r.GetDurations(OpEmbedding))
	assert.Equal(t, 1, r.GetErrorCount(OpPrediction, "classifier"))
	assert.Equal(t, map[string]map[string]int{OpPrediction: {"classifier": 1}}, r.GetAllErrors())
	v, ok := r.GetGauge(GaugeTouched)
	assert.True(t, ok)
	assert.InDelta(t, 1, v, 0)

	r.Reset()
	assert.False(t, r.HasRecordedMetrics())
}

func TestOrNoOp(t *testing.T) {
	t.Parallel()

	assert.IsType(t, &NoOpRecorder{}, OrNoOp(nil))
	r := NewTestRecorder()
	assert.Same(t, r, OrNoOp(r))
}
