package moran

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/lisa-cli/internal/weights"
)

// ErrDegenerateInput signals a zero-variance attribute, for which the
// statistic is undefined.
var ErrDegenerateInput = eris.New("moran: zero-variance attribute")

// secondMoment returns m2 = (1/n) Σ z_k².
func secondMoment(z []float64) float64 {
	if len(z) == 0 {
		return 0
	}
	var ss float64
	for _, v := range z {
		ss += v * v
	}
	return ss / float64(len(z))
}

// LocalI computes the observed local Moran statistic for every unit:
// I_i = (z_i / m2) · Σ_j w_ij z_j. Units without neighbors lag to zero and
// yield I_i = 0, which is a valid output, not a failure.
func LocalI(z []float64, w *weights.Matrix) ([]float64, error) {
	m2 := secondMoment(z)
	if m2 == 0 {
		return nil, ErrDegenerateInput
	}

	obs := make([]float64, len(z))
	for i := range z {
		obs[i] = z[i] / m2 * w.LagAt(i, z)
	}
	return obs, nil
}
