// Package classifier implements an in-memory exemplar store with k-nearest-neighbor
// classification of embedding vectors.
//
// Exemplars are appended during training and never removed. Prediction performs an
// exact search over all exemplars, orders neighbors by (distance, insertion order),
// and takes a majority vote over the K closest. A vote tie goes to the label that
// appears first in that order.
package classifier

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
)

// DefaultK is the number of neighbors consulted when Config.K is zero
const DefaultK = 10

// Sentinel errors. Returned errors wrap these; match them with errors.Is.
var (
	ErrDimensionMismatch = errors.NewStd("vector dimension mismatch")
	ErrEmptyStore        = errors.NewStd("exemplar store is empty")
	ErrInvalidVector     = errors.NewStd("invalid vector")
	ErrInvalidConfig     = errors.NewStd("invalid classifier config")
)

// Config configures a Classifier
type Config struct {
	K      int    // neighbors consulted per prediction
	Metric Metric // distance metric
}

// DefaultConfig returns K=10 with Euclidean distance
func DefaultConfig() Config {
	return Config{K: DefaultK, Metric: MetricEuclidean}
}

// Exemplar is a labeled embedding vector held by the store
type Exemplar struct {
	Vector []float32
	Label  Label
}

// Result is the outcome of a prediction
type Result struct {
	Label       Label             // winning label
	Confidence  float64           // fraction of consulted neighbors voting for Label
	Confidences map[Label]float64 // vote fraction for every label present in the store
	Neighbors   int               // number of neighbors consulted, min(K, Len())
}

// Option configures a Classifier
type Option func(*Classifier)

// WithLogger sets the logger used by the classifier
func WithLogger(l logger.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}

// Classifier is a k-nearest-neighbor classifier over an append-only exemplar store.
// It is safe for concurrent use.
type Classifier struct {
	mu        sync.RWMutex
	cfg       Config
	distance  distanceFunc
	dim       int // fixed by the first inserted exemplar, 0 while empty
	exemplars []Exemplar
	counts    map[Label]int
	log       logger.Logger
}

// New creates an empty classifier
func New(cfg Config, opts ...Option) (*Classifier, error) {
	if cfg.K == 0 {
		cfg.K = DefaultK
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricEuclidean
	}
	if cfg.K < 0 {
		return nil, errors.New(fmt.Errorf("%w: k must be positive, got %d", ErrInvalidConfig, cfg.K)).
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	distance, err := cfg.Metric.distance()
	if err != nil {
		return nil, err
	}

	c := &Classifier{
		cfg:      cfg,
		distance: distance,
		counts:   make(map[Label]int),
		log:      GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AddExample stores a copy of vector under label.
// The first insert fixes the store dimensionality.
func (c *Classifier) AddExample(vector []float32, label Label) error {
	if err := validateVector(vector); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dim != 0 && len(vector) != c.dim {
		return dimensionError(len(vector), c.dim, "add_example")
	}
	if c.dim == 0 {
		c.dim = len(vector)
		c.log.Debug("exemplar dimensionality fixed", logger.Int("dimension", c.dim))
	}

	c.exemplars = append(c.exemplars, Exemplar{Vector: slices.Clone(vector), Label: label})
	c.counts[label]++

	c.log.Trace("exemplar added",
		logger.String("label", label.String()),
		logger.Int("count", c.counts[label]),
		logger.Int("total", len(c.exemplars)))
	return nil
}

type neighbor struct {
	distance float64
	index    int
	label    Label
}

// Predict classifies vector by majority vote over its K nearest exemplars.
func (c *Classifier) Predict(vector []float32) (Result, error) {
	if err := validateVector(vector); err != nil {
		return Result{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.exemplars) == 0 {
		return Result{}, errors.New(ErrEmptyStore).
			Component("classifier").
			Category(errors.CategoryState).
			Context("operation", "predict").
			Build()
	}
	if len(vector) != c.dim {
		return Result{}, dimensionError(len(vector), c.dim, "predict")
	}

	neighbors := make([]neighbor, len(c.exemplars))
	for i, ex := range c.exemplars {
		neighbors[i] = neighbor{distance: c.distance(vector, ex.Vector), index: i, label: ex.Label}
	}
	slices.SortFunc(neighbors, func(a, b neighbor) int {
		return cmp.Or(cmp.Compare(a.distance, b.distance), cmp.Compare(a.index, b.index))
	})

	k := min(c.cfg.K, len(neighbors))
	nearest := neighbors[:k]

	votes := make(map[Label]int, len(c.counts))
	var order []Label // labels by first appearance among the nearest
	for _, n := range nearest {
		if votes[n.label] == 0 {
			order = append(order, n.label)
		}
		votes[n.label]++
	}

	winner := order[0]
	for _, label := range order[1:] {
		if votes[label] > votes[winner] {
			winner = label
		}
	}

	confidences := make(map[Label]float64, len(c.counts))
	for label := range c.counts {
		confidences[label] = float64(votes[label]) / float64(k)
	}

	return Result{
		Label:       winner,
		Confidence:  float64(votes[winner]) / float64(k),
		Confidences: confidences,
		Neighbors:   k,
	}, nil
}

// Len returns the number of stored exemplars
func (c *Classifier) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.exemplars)
}

// Dimension returns the store dimensionality, or 0 while the store is empty
func (c *Classifier) Dimension() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dim
}

// ExampleCounts returns the number of exemplars per label
func (c *Classifier) ExampleCounts() map[Label]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.counts)
}

// Exemplars returns copies of all exemplars in insertion order
func (c *Classifier) Exemplars() []Exemplar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Exemplar, len(c.exemplars))
	for i, ex := range c.exemplars {
		out[i] = Exemplar{Vector: slices.Clone(ex.Vector), Label: ex.Label}
	}
	return out
}

// K returns the configured neighbor count
func (c *Classifier) K() int { return c.cfg.K }

// Metric returns the configured distance metric
func (c *Classifier) Metric() Metric { return c.cfg.Metric }

func validateVector(vector []float32) error {
	if len(vector) == 0 {
		return errors.New(fmt.Errorf("%w: empty vector", ErrInvalidVector)).
			Component("classifier").
			Category(errors.CategoryValidation).
			Build()
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.New(fmt.Errorf("%w: non-finite value at index %d", ErrInvalidVector, i)).
				Component("classifier").
				Category(errors.CategoryValidation).
				Context("index", i).
				Build()
		}
	}
	return nil
}

func dimensionError(got, want int, operation string) error {
	return errors.New(fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, got, want)).
		Component("classifier").
		Category(errors.CategoryValidation).
		Context("operation", operation).
		Context("got_dimension", got).
		Context("want_dimension", want).
		Build()
}
