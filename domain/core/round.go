package core

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// Round rounds x to the given number of decimal places, half to even.
// 0.125 at 2 places is 0.12 and 40.5 at 0 places is 40. NaN and
// infinities are returned unchanged.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return scalar.RoundEven(x, places)
}

// InUnitInterval reports whether p lies in [0, 1].
func InUnitInterval(p float64) bool {
	return p >= 0 && p <= 1
}
