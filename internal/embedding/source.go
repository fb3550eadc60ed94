// Package embedding turns camera frames into fixed-length feature vectors.
//
// A Source yields the embedding of the current frame. The production Source is a
// FrameEmbedder: a FrameSource supplying decoded frames composed with an Extractor
// running a pretrained TensorFlow Lite feature extractor. Every capture failure is
// reported as an error wrapping ErrCaptureUnavailable.
package embedding

import (
	"context"
	"fmt"

	"github.com/tphakala/handsoff-go/internal/errors"
)

// Sentinel errors. Returned errors wrap these; match them with errors.Is.
var (
	ErrCaptureUnavailable = errors.NewStd("capture unavailable")
	ErrExtractionFailed   = errors.NewStd("feature extraction failed")
)

// Source yields the embedding of the current camera frame
type Source interface {
	Embed(ctx context.Context) ([]float32, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context) ([]float32, error)

// Embed calls f(ctx)
func (f SourceFunc) Embed(ctx context.Context) ([]float32, error) {
	return f(ctx)
}

// captureError wraps cause so that it matches ErrCaptureUnavailable
func captureError(cause error, source, operation string) error {
	var err error
	if cause == nil {
		err = ErrCaptureUnavailable
	} else {
		err = fmt.Errorf("%w: %w", ErrCaptureUnavailable, cause)
	}
	return errors.New(err).
		Component("embedding").
		Category(errors.CategoryCapture).
		Context("source", source).
		Context("operation", operation).
		Build()
}

// cancelledError reports a context that ended while waiting for a frame
func cancelledError(ctx context.Context) error {
	return errors.New(ctx.Err()).
		Component("embedding").
		Category(errors.CategoryCancellation).
		Build()
}
