// Package regression provides the lightweight statistical models fitted on
// every forecast: an OLS linear trend, a single-layer gradient-descent
// regressor and an order-3 autoregressive model.
package regression

import (
	"math"
	"math/rand"
	"sync"
)

// ModelFit is the common view of a fitted model.
type ModelFit interface {
	Name() string
	Parameters() []float64
	// Quality is the in-sample fit quality in [0, 1].
	Quality() float64
}

// Source supplies uniformly distributed values in [0, 1).
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a goroutine-safe Source seeded with seed.
func NewSource(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Uniform draws a value uniformly from [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func meanOf(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	var total float64
	for _, p := range prices {
		total += p
	}
	return total / float64(len(prices))
}

// spreadOf returns the population standard deviation of prices, or 1 for a
// flat series, for use as a standardization scale.
func spreadOf(prices []float64) float64 {
	m := meanOf(prices)
	var variance float64
	for _, p := range prices {
		variance += (p - m) * (p - m)
	}
	if len(prices) > 0 {
		variance /= float64(len(prices))
	}
	sd := math.Sqrt(variance)
	if sd == 0 || !finite(sd) {
		return 1
	}
	return sd
}

// scaleOf returns the mean of prices, used to condition gradient descent on
// models without an intercept.
func scaleOf(prices []float64) float64 {
	s := meanOf(prices)
	if s <= 0 || !finite(s) {
		return 1
	}
	return s
}
