package classifier

import (
	"fmt"
	"math"

	"github.com/tphakala/handsoff-go/internal/errors"
)

// Metric names a distance function between embedding vectors
type Metric string

const (
	MetricEuclidean Metric = "euclidean"
	MetricCosine    Metric = "cosine"
)

// ParseMetric validates a metric name
func ParseMetric(s string) (Metric, error) {
	m := Metric(s)
	if _, err := m.distance(); err != nil {
		return "", err
	}
	return m, nil
}

type distanceFunc func(a, b []float32) float64

func (m Metric) distance() (distanceFunc, error) {
	switch m {
	case MetricEuclidean:
		return euclidean, nil
	case MetricCosine:
		return cosine, nil
	default:
		return nil, errors.New(fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, string(m))).
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
}

// euclidean returns the L2 distance, accumulated in float64.
// Callers guarantee len(a) == len(b).
func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// cosine returns 1 - cosine similarity. A zero vector is at distance 1 from everything.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
