// Package referenceframe holds the scalar configuration types shared by joints and kinematic chains:
// joint limits, inputs, and rounding helpers used to key memoized configurations.
package referenceframe

import (
	"math"
	"math/rand"

	"go.viam.com/tamp/utils"
)

// Limit represents the limits of motion for a single degree of freedom.
type Limit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Valid reports whether the limit allows any motion.
func (l Limit) Valid() bool {
	return l.Min < l.Max
}

// Contains reports whether v lies within [Min, Max].
func (l Limit) Contains(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Range returns Max - Min.
func (l Limit) Range() float64 {
	return l.Max - l.Min
}

// Sample draws a value uniformly from the limit. Infinite limits default to [-999, 999].
func (l Limit) Sample(rSeed *rand.Rand) float64 {
	lo, hi := l.Min, l.Max
	if lo == math.Inf(-1) {
		lo = -999
	}
	if hi == math.Inf(1) {
		hi = 999
	}
	return rSeed.Float64()*math.Abs(hi-lo) + lo
}

// LimitsAlmostEqual reports whether two limit slices agree within 1e-5.
func LimitsAlmostEqual(a, b []Limit) bool {
	if len(a) != len(b) {
		return false
	}

	const epsilon = 1e-5
	for idx, x := range a {
		if !utils.Float64AlmostEqual(x.Min, b[idx].Min, epsilon) ||
			!utils.Float64AlmostEqual(x.Max, b[idx].Max, epsilon) {
			return false
		}
	}

	return true
}
