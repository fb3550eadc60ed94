// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Operation type constants passed to Recorder methods.
const (
	// OpTrainingSample represents one exemplar collected during training.
	OpTrainingSample = "training_sample"
	// OpTrainingPhase represents a completed or aborted training phase.
	OpTrainingPhase = "training_phase"
	// OpEmbedding represents frame capture and feature extraction.
	OpEmbedding = "embedding"
	// OpPrediction represents a nearest-neighbor prediction.
	OpPrediction = "prediction"
	// OpAlertTrigger represents a trigger received by the alert debouncer.
	OpAlertTrigger = "alert_trigger"
	// OpSoundPlayback represents an alert sound playback.
	OpSoundPlayback = "sound_playback"
	// OpNotification represents a notification request.
	OpNotification = "notification"
	// OpPushDelivery represents a push delivery through an external service.
	OpPushDelivery = "push_delivery"
)

// Gauge name constants passed to Recorder.SetGauge.
const (
	// GaugeTrainingPhase is the current training phase (0 negative, 1 positive, 2 ready).
	GaugeTrainingPhase = "training_phase"
	// GaugeTouched is 1 while a face touch is detected.
	GaugeTouched = "touched"
	// GaugeExemplars is the number of exemplars in the store.
	GaugeExemplars = "exemplars"
)

// Status label values.
const (
	StatusSuccess    = "success"
	StatusError      = "error"
	StatusAborted    = "aborted"
	StatusPlayed     = "played"
	StatusSuppressed = "suppressed"
	StatusFinished   = "finished"
)

// Histogram bucket configuration constants.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001
	// BucketStart10ms is the starting bucket for 10ms histograms (10ms to ~40s range).
	BucketStart10ms = 0.01
	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
)

// ShutdownTimeout is the timeout for graceful shutdown of the metrics endpoint.
const ShutdownTimeout = 5 * time.Second
