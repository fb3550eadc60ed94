package embedding

import (
	"context"
	"fmt"
	"image"

	"github.com/tphakala/handsoff-go/internal/errors"
)

// FeatureExtractor maps a frame to an embedding vector
type FeatureExtractor interface {
	Extract(img image.Image) ([]float32, error)
}

// FrameEmbedder composes a FrameSource and a FeatureExtractor into a Source
type FrameEmbedder struct {
	frames    FrameSource
	extractor FeatureExtractor
}

// NewFrameEmbedder returns a Source embedding frames from frames with extractor
func NewFrameEmbedder(frames FrameSource, extractor FeatureExtractor) *FrameEmbedder {
	return &FrameEmbedder{frames: frames, extractor: extractor}
}

// Embed captures the current frame and extracts its embedding
func (fe *FrameEmbedder) Embed(ctx context.Context) ([]float32, error) {
	img, err := fe.frames.Frame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelledError(ctx)
		}
		if errors.Is(err, ErrCaptureUnavailable) {
			return nil, err
		}
		return nil, captureError(err, "frame_source", "frame")
	}

	vector, err := fe.extractor.Extract(img)
	if err != nil {
		if errors.Is(err, ErrExtractionFailed) {
			return nil, err
		}
		return nil, errors.New(fmt.Errorf("%w: %w", ErrExtractionFailed, err)).
			Component("embedding").
			Category(errors.CategoryEmbedding).
			Build()
	}
	return vector, nil
}
