package traits

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnchorsHitAnchorPoints(t *testing.T) {
	a := Anchors{Low: 3.0, Mid: 2.0, High: 1.0}

	assert.InDelta(t, 3.0, a.At(0), 1e-9)
	assert.InDelta(t, 2.0, a.At(0.5), 1e-9)
	assert.InDelta(t, 1.0, a.At(1), 1e-9)
}

func TestAnchorsContinuousAtMidpoint(t *testing.T) {
	a := Anchors{Low: 10, Mid: 25, High: 45}

	below := a.At(0.5 - 1e-9)
	above := a.At(0.5 + 1e-9)
	assert.InDelta(t, below, above, 1e-6)
}

func TestAnchorsInterpolatesLinearly(t *testing.T) {
	a := Anchors{Low: 0, Mid: 10, High: 40}

	assert.InDelta(t, 5.0, a.At(0.25), 1e-9)
	assert.InDelta(t, 25.0, a.At(0.75), 1e-9)
}

func TestAnchorsClampsInput(t *testing.T) {
	a := Anchors{Low: 1, Mid: 2, High: 3}

	assert.InDelta(t, 1.0, a.At(-0.5), 1e-9)
	assert.InDelta(t, 3.0, a.At(1.5), 1e-9)
}

func TestSampleStaysNormalized(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(7)))

	// A wide distribution centered at the edge must still clamp to [0, 1].
	d := Dist{Mean: 0.9, StdDev: 0.8}
	for i := 0; i < 1000; i++ {
		v := s.Sample(d)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSampleZeroSpreadIsDeterministic(t *testing.T) {
	s := NewSampler(rand.New(rand.NewSource(7)))

	for i := 0; i < 10; i++ {
		assert.InDelta(t, 0.4, s.Sample(Dist{Mean: 0.4}), 1e-9)
	}
}
