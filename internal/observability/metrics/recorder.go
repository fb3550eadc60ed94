// Package metrics provides custom Prometheus metrics for the hands-off detector.
package metrics

// Recorder defines a minimal interface for recording metrics.
// Components depend on it rather than on concrete collectors, so metrics stay optional.
type Recorder interface {
	// RecordOperation records an operation with its outcome.
	// The operation parameter is one of the Op constants, status describes the outcome
	// (a label name, "played", "suppressed", "success").
	RecordOperation(operation, status string)

	// RecordDuration records the duration of an operation in seconds.
	RecordDuration(operation string, seconds float64)

	// RecordError records an error occurrence with its type.
	RecordError(operation, errorType string)

	// SetGauge sets the current value of a state gauge, one of the Gauge constants.
	SetGauge(gauge string, value float64)
}

// NoOpRecorder is a no-op implementation of the Recorder interface.
// It is used when metrics recording is not needed.
type NoOpRecorder struct{}

// RecordOperation does nothing.
func (n *NoOpRecorder) RecordOperation(operation, status string) {}

// RecordDuration does nothing.
func (n *NoOpRecorder) RecordDuration(operation string, seconds float64) {}

// RecordError does nothing.
func (n *NoOpRecorder) RecordError(operation, errorType string) {}

// SetGauge does nothing.
func (n *NoOpRecorder) SetGauge(gauge string, value float64) {}

// NewNoOpRecorder creates a new no-op recorder instance.
func NewNoOpRecorder() *NoOpRecorder {
	return &NoOpRecorder{}
}

// OrNoOp returns r, or a NoOpRecorder when r is nil
func OrNoOp(r Recorder) Recorder {
	if r == nil {
		return NewNoOpRecorder()
	}
	return r
}
