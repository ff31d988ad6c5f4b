package randx

import (
	"errors"
	"fmt"
	"math"
)

const weightTolerance = 1e-9

// WeightedChooser selects one of a fixed set of values according to normalized
// weights. Weights are validated once at construction: they must be positive
// and sum to 1.
type WeightedChooser[T any] struct {
	values  []T
	weights []float64
}

// NewWeightedChooser validates weights and returns a chooser.
func NewWeightedChooser[T any](values []T, weights []float64) (*WeightedChooser[T], error) {
	if len(values) == 0 {
		return nil, errors.New("randx: no values")
	}
	if len(values) != len(weights) {
		return nil, fmt.Errorf("randx: %d values but %d weights", len(values), len(weights))
	}

	var sum float64
	for i, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("randx: weight %d is not positive", i)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("randx: weights sum to %g, want 1", sum)
	}

	return &WeightedChooser[T]{
		values:  append([]T(nil), values...),
		weights: append([]float64(nil), weights...),
	}, nil
}

// Choose draws one value using rng.
func (c *WeightedChooser[T]) Choose(rng Rand) T {
	draw := rng.Float64()
	var sum float64
	for i, w := range c.weights {
		sum += w
		if draw < sum {
			return c.values[i]
		}
	}
	// Float64 returns values in [0,1); rounding can still leave the last bucket.
	return c.values[len(c.values)-1]
}
