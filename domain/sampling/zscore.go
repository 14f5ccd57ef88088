package sampling

import (
	"math"

	"gostatlab/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// ZScore returns the two-sided standard normal quantile for a confidence
// level, so 0.95 gives 1.96 after rounding.
func ZScore(level float64) (float64, error) {
	if math.IsNaN(level) || level <= 0 || level >= 1 {
		return 0, core.NewDomainError("level", level, "in (0, 1)")
	}
	return distuv.UnitNormal.Quantile(1 - (1-level)/2), nil
}
