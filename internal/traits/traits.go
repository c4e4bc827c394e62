// Package traits provides the normalized behavioral parameter utilities:
// bounded Gaussian sampling for vehicle personality generation, and the
// piecewise-linear anchor transform that maps a normalized trait onto a
// concrete driving quantity.
package traits

import "math/rand"

// Anchors defines a piecewise-linear transform over a normalized input
// x ∈ [0, 1]: the output interpolates Low→Mid over [0, 0.5] and Mid→High
// over [0.5, 1]. A single shared nonlinearity keeps every trait-to-behavior
// mapping auditable in one place.
type Anchors struct {
	Low  float64
	Mid  float64
	High float64
}

// At evaluates the transform at x. Inputs outside [0, 1] are clamped first.
func (a Anchors) At(x float64) float64 {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	if x <= 0.5 {
		return a.Low + (a.Mid-a.Low)*(x/0.5)
	}
	return a.Mid + (a.High-a.Mid)*((x-0.5)/0.5)
}

// Dist is a mean/standard-deviation pair for one sampled trait.
type Dist struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
}

// Sampler draws normalized trait values from clamped Gaussian distributions.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a Sampler backed by rng.
func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Sample draws from N(d.Mean, d.StdDev²) and clamps the result to [0, 1].
func (s *Sampler) Sample(d Dist) float64 {
	v := s.rng.NormFloat64()*d.StdDev + d.Mean
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
