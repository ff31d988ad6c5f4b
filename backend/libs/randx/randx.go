// Package randx wraps random number generation behind a small interface so that
// the probabilistic pieces of the system (status draws, telemetry walks, error
// injection) stay deterministic under test.
package randx

import (
	"math/rand"
	"time"
)

// Rand is the subset of math/rand used by the simulator and rule engine.
// *math/rand.Rand satisfies it; tests substitute scripted implementations.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// New returns a time-seeded Rand for production use.
func New() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewSeeded returns a deterministic Rand.
func NewSeeded(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}
