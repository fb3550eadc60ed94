package classifier

import (
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
)

func newTestClassifier(t *testing.T, cfg Config) *Classifier {
	t.Helper()
	c, err := New(cfg, WithLogger(logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)))
	require.NoError(t, err)
	return c
}

// seedClusters inserts n exemplars per label around (-1,0,0) and (1,0,0).
// Negatives are inserted first; offsets mirror so equal-index exemplars are
// equidistant from the origin.
func seedClusters(t *testing.T, c *Classifier, n int) {
	t.Helper()
	for i := range n {
		require.NoError(t, c.AddExample([]float32{-1, 0.01 * float32(i), 0}, LabelNotTouching))
	}
	for i := range n {
		require.NoError(t, c.AddExample([]float32{1, 0.01 * float32(i), 0}, LabelTouching))
	}
}

func TestPredictEmptyStore(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, DefaultConfig())
	_, err := c.Predict([]float32{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyStore)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

func TestAddExampleDimensionMismatch(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, DefaultConfig())
	require.NoError(t, c.AddExample([]float32{1, 2, 3}, LabelNotTouching))

	err := c.AddExample([]float32{1, 2}, LabelTouching)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 1, c.Len(), "rejected exemplar must not be stored")

	_, err = c.Predict([]float32{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestAddExampleRejectsInvalidVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		vector []float32
	}{
		{"empty", nil},
		{"nan", []float32{1, float32(math.NaN())}},
		{"inf", []float32{float32(math.Inf(1)), 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClassifier(t, DefaultConfig())
			err := c.AddExample(tt.vector, LabelTouching)
			assert.ErrorIs(t, err, ErrInvalidVector)
			assert.Equal(t, 0, c.Dimension())
		})
	}
}

func TestAddExampleCopiesVector(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, DefaultConfig())
	v := []float32{1, 2, 3}
	require.NoError(t, c.AddExample(v, LabelTouching))
	v[0] = 99

	got := c.Exemplars()
	require.Len(t, got, 1)
	assert.Equal(t, []float32{1, 2, 3}, got[0].Vector)

	got[0].Vector[1] = 42
	assert.Equal(t, []float32{1, 2, 3}, c.Exemplars()[0].Vector)
}

func TestPredictClusters(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, DefaultConfig())
	seedClusters(t, c, 50)

	res, err := c.Predict([]float32{1, 0.1, 0})
	require.NoError(t, err)
	assert.Equal(t, LabelTouching, res.Label)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
	assert.Equal(t, 10, res.Neighbors)
	assert.InDelta(t, 0.0, res.Confidences[LabelNotTouching], 1e-9)

	res, err = c.Predict([]float32{-1, 0.1, 0})
	require.NoError(t, err)
	assert.Equal(t, LabelNotTouching, res.Label)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}

func TestPredictMidpointTieBreak(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, DefaultConfig())
	seedClusters(t, c, 50)

	res, err := c.Predict([]float32{0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.Equal(t, LabelNotTouching, res.Label, "equal distances order by insertion, negatives first")
	assert.InDelta(t, 0.5, res.Confidences[LabelTouching], 1e-9)
	assert.InDelta(t, 0.5, res.Confidences[LabelNotTouching], 1e-9)
}

func TestPredictTieGoesToNearestLabel(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, Config{K: 4, Metric: MetricEuclidean})
	// Two votes each; the single closest exemplar is touching
	require.NoError(t, c.AddExample([]float32{0.5}, LabelNotTouching))
	require.NoError(t, c.AddExample([]float32{0.6}, LabelNotTouching))
	require.NoError(t, c.AddExample([]float32{0.1}, LabelTouching))
	require.NoError(t, c.AddExample([]float32{0.9}, LabelTouching))

	res, err := c.Predict([]float32{0})
	require.NoError(t, err)
	assert.Equal(t, LabelTouching, res.Label)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
}

func TestPredictUsesAllExemplarsWhenFewerThanK(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, DefaultConfig())
	require.NoError(t, c.AddExample([]float32{0, 0}, LabelTouching))
	require.NoError(t, c.AddExample([]float32{0, 1}, LabelTouching))
	require.NoError(t, c.AddExample([]float32{5, 5}, LabelNotTouching))

	res, err := c.Predict([]float32{0, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Neighbors)
	assert.Equal(t, LabelTouching, res.Label)
	assert.InDelta(t, 2.0/3.0, res.Confidence, 1e-9)
}

func TestPredictNeverMismatchesWithConsistentDimensions(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	const dim = 16

	c := newTestClassifier(t, DefaultConfig())
	vec := func() []float32 {
		v := make([]float32, dim)
		for i := range v {
			v[i] = rng.Float32()*2 - 1
		}
		return v
	}

	for i := range 200 {
		require.NoError(t, c.AddExample(vec(), Label(i%2)))
		res, err := c.Predict(vec())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Confidence, 0.5)
		assert.LessOrEqual(t, res.Confidence, 1.0)
	}
	assert.Equal(t, map[Label]int{LabelNotTouching: 100, LabelTouching: 100}, c.ExampleCounts())
}

func TestCosineMetric(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, Config{K: 1, Metric: MetricCosine})
	require.NoError(t, c.AddExample([]float32{1, 0}, LabelNotTouching))
	require.NoError(t, c.AddExample([]float32{0, 1}, LabelTouching))

	// Far in L2 but aligned with the touching exemplar
	res, err := c.Predict([]float32{0.1, 10})
	require.NoError(t, err)
	assert.Equal(t, LabelTouching, res.Label)
	assert.Equal(t, MetricCosine, c.Metric())
}

func TestDistanceFunctions(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 5.0, euclidean([]float32{0, 0}, []float32{3, 4}), 1e-12)
	assert.InDelta(t, 0.0, cosine([]float32{1, 1}, []float32{2, 2}), 1e-12)
	assert.InDelta(t, 1.0, cosine([]float32{0, 0}, []float32{2, 2}), 1e-12)
	assert.InDelta(t, 2.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-12)
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{K: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{K: 3, Metric: "manhattan"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	c, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultK, c.K())
	assert.Equal(t, MetricEuclidean, c.Metric())
}

func TestConcurrentAddAndPredict(t *testing.T) {
	t.Parallel()

	c := newTestClassifier(t, DefaultConfig())
	require.NoError(t, c.AddExample([]float32{0, 0}, LabelNotTouching))

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Go(func() {
			for i := range 50 {
				_ = c.AddExample([]float32{float32(w), float32(i)}, Label(w%2))
				_, err := c.Predict([]float32{float32(i), float32(w)})
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 201, c.Len())
}

func TestLabelRoundTrip(t *testing.T) {
	t.Parallel()

	for _, l := range []Label{LabelNotTouching, LabelTouching, Label(7)} {
		parsed, err := ParseLabel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}

	_, err := ParseLabel("waving")
	assert.Error(t, err)

	m, err := ParseMetric("cosine")
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, m)
	_, err = ParseMetric("hamming")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
