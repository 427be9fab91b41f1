package moran

import (
	"github.com/sells-group/lisa-cli/internal/model"
)

// Quadrant codes of the Moran scatterplot.
const (
	QuadrantHighHigh = 1
	QuadrantLowHigh  = 2
	QuadrantLowLow   = 3
	QuadrantHighLow  = 4
)

// Quadrant returns the Moran scatterplot quadrant for a unit with centered
// value zi and spatial lag. A value of exactly zero (mean-imputed units,
// isolates) sits on the quadrant boundary and is assigned to the low side;
// such units carry I≈0 and never pass the significance gate in practice.
func Quadrant(zi, lag float64) int {
	switch {
	case zi > 0 && lag > 0:
		return QuadrantHighHigh
	case zi <= 0 && lag > 0:
		return QuadrantLowHigh
	case zi > 0:
		return QuadrantHighLow
	default:
		return QuadrantLowLow
	}
}

// Classify maps a unit's quadrant and pseudo p-value to its LISA category.
// sig is true iff p < alpha; non-significant units are labeled Non-sig
// regardless of quadrant.
func Classify(zi, lag, p, alpha float64) (quadrant int, sig bool, cat model.Category) {
	quadrant = Quadrant(zi, lag)
	sig = p < alpha

	if !sig {
		return quadrant, false, model.CategoryNonSig
	}
	switch quadrant {
	case QuadrantHighHigh:
		cat = model.CategoryHotspot
	case QuadrantLowLow:
		cat = model.CategoryColdspot
	case QuadrantLowHigh:
		cat = model.CategoryOutlierLowHigh
	case QuadrantHighLow:
		cat = model.CategoryOutlierHighLow
	}
	return quadrant, true, cat
}
