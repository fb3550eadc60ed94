package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/handsoff-go/internal/logger"
)

// HandsOffMetrics contains all Prometheus metrics of the training and detection pipeline.
// It implements Recorder.
type HandsOffMetrics struct {
	// Training
	TrainingSamplesTotal *prometheus.CounterVec
	TrainingPhasesTotal  *prometheus.CounterVec
	TrainingPhaseGauge   prometheus.Gauge
	ExemplarsGauge       prometheus.Gauge

	// Inference
	PredictionsTotal   *prometheus.CounterVec
	PredictionDuration prometheus.Histogram
	EmbeddingDuration  prometheus.Histogram
	ErrorsTotal        *prometheus.CounterVec
	TouchedGauge       prometheus.Gauge

	// Alerts
	AlertTriggersTotal  *prometheus.CounterVec
	SoundPlaybacksTotal *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	PushDeliveriesTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewHandsOffMetrics creates the metrics and registers them with registry.
// It returns an error if metric registration fails.
func NewHandsOffMetrics(registry *prometheus.Registry) (*HandsOffMetrics, error) {
	m := &HandsOffMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register hands-off metrics: %w", err)
	}
	return m, nil
}

func (m *HandsOffMetrics) initMetrics() {
	m.TrainingSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handsoff_training_samples_total",
			Help: "Total number of exemplars collected during training, partitioned by label",
		},
		[]string{"label"},
	)
	m.TrainingPhasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handsoff_training_phases_total",
			Help: "Total number of training phase runs by outcome",
		},
		[]string{"status"},
	)
	m.TrainingPhaseGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "handsoff_training_phase",
			Help: "Current training phase (0=collect negative, 1=collect positive, 2=ready)",
		},
	)
	m.ExemplarsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "handsoff_exemplars",
			Help: "Number of exemplars in the store",
		},
	)

	m.PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handsoff_predictions_total",
			Help: "Total number of predictions partitioned by winning label",
		},
		[]string{"label"},
	)
	m.PredictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "handsoff_prediction_duration_seconds",
			Help:    "Time taken to classify one embedding",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms/10, BucketFactor2, BucketCount10),
		},
	)
	m.EmbeddingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "handsoff_embedding_duration_seconds",
			Help:    "Time taken to capture a frame and extract its embedding",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
	)
	m.ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handsoff_errors_total",
			Help: "Total number of errors by operation and error type",
		},
		[]string{"operation", "error_type"},
	)
	m.TouchedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "handsoff_touched",
			Help: "Whether a face touch is currently detected (1=touched, 0=not touched)",
		},
	)

	m.AlertTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handsoff_alert_triggers_total",
			Help: "Total number of alert triggers by sound outcome",
		},
		[]string{"status"}, // played, suppressed, error
	)
	m.SoundPlaybacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handsoff_sound_playbacks_total",
			Help: "Total number of alert sound playbacks by outcome",
		},
		[]string{"status"},
	)
	m.NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handsoff_notifications_total",
			Help: "Total number of notification requests by outcome",
		},
		[]string{"status"}, // success, suppressed, error
	)
	m.PushDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handsoff_push_deliveries_total",
			Help: "Total number of push deliveries by outcome",
		},
		[]string{"status"},
	)
}

// RecordOperation implements Recorder.
func (m *HandsOffMetrics) RecordOperation(operation, status string) {
	switch operation {
	case OpTrainingSample:
		m.TrainingSamplesTotal.WithLabelValues(status).Inc()
	case OpTrainingPhase:
		m.TrainingPhasesTotal.WithLabelValues(status).Inc()
	case OpPrediction:
		m.PredictionsTotal.WithLabelValues(status).Inc()
	case OpAlertTrigger:
		m.AlertTriggersTotal.WithLabelValues(status).Inc()
	case OpSoundPlayback:
		m.SoundPlaybacksTotal.WithLabelValues(status).Inc()
	case OpNotification:
		m.NotificationsTotal.WithLabelValues(status).Inc()
	case OpPushDelivery:
		m.PushDeliveriesTotal.WithLabelValues(status).Inc()
	default:
		log.Debug("unknown metrics operation", logger.String("operation", operation))
	}
}

// RecordDuration implements Recorder.
func (m *HandsOffMetrics) RecordDuration(operation string, seconds float64) {
	switch operation {
	case OpPrediction:
		m.PredictionDuration.Observe(seconds)
	case OpEmbedding:
		m.EmbeddingDuration.Observe(seconds)
	}
}

// RecordError implements Recorder.
func (m *HandsOffMetrics) RecordError(operation, errorType string) {
	m.ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetGauge implements Recorder.
func (m *HandsOffMetrics) SetGauge(gauge string, value float64) {
	switch gauge {
	case GaugeTrainingPhase:
		m.TrainingPhaseGauge.Set(value)
	case GaugeTouched:
		m.TouchedGauge.Set(value)
	case GaugeExemplars:
		m.ExemplarsGauge.Set(value)
	}
}

// Describe implements the prometheus.Collector interface.
func (m *HandsOffMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.TrainingSamplesTotal.Describe(ch)
	m.TrainingPhasesTotal.Describe(ch)
	m.TrainingPhaseGauge.Describe(ch)
	m.ExemplarsGauge.Describe(ch)
	m.PredictionsTotal.Describe(ch)
	m.PredictionDuration.Describe(ch)
	m.EmbeddingDuration.Describe(ch)
	m.ErrorsTotal.Describe(ch)
	m.TouchedGauge.Describe(ch)
	m.AlertTriggersTotal.Describe(ch)
	m.SoundPlaybacksTotal.Describe(ch)
	m.NotificationsTotal.Describe(ch)
	m.PushDeliveriesTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *HandsOffMetrics) Collect(ch chan<- prometheus.Metric) {
	m.TrainingSamplesTotal.Collect(ch)
	m.TrainingPhasesTotal.Collect(ch)
	m.TrainingPhaseGauge.Collect(ch)
	m.ExemplarsGauge.Collect(ch)
	m.PredictionsTotal.Collect(ch)
	m.PredictionDuration.Collect(ch)
	m.EmbeddingDuration.Collect(ch)
	m.ErrorsTotal.Collect(ch)
	m.TouchedGauge.Collect(ch)
	m.AlertTriggersTotal.Collect(ch)
	m.SoundPlaybacksTotal.Collect(ch)
	m.NotificationsTotal.Collect(ch)
	m.PushDeliveriesTotal.Collect(ch)
}
