package moran

import (
	"context"
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/lisa-cli/internal/model"
	"github.com/sells-group/lisa-cli/internal/weights"
)

func squareUnit(index int, x, y float64, field, value string) model.Unit {
	return model.Unit{
		Index: index,
		Geom: geom.NewPolygonFlat(geom.XY, []float64{
			x, y,
			x + 1, y,
			x + 1, y + 1,
			x, y + 1,
			x, y,
		}, []int{10}),
		Attrs: map[string]string{field: value},
	}
}

// gridUnits builds an nRows x nCols lattice of unit squares in row-major
// order, top row first.
func gridUnits(nRows, nCols int, field string, values []string) []model.Unit {
	units := make([]model.Unit, 0, nRows*nCols)
	for r := 0; r < nRows; r++ {
		for c := 0; c < nCols; c++ {
			i := r*nCols + c
			units = append(units, squareUnit(i, float64(c), float64(nRows-1-r), field, values[i]))
		}
	}
	return units
}

func TestRunTwoByTwoQueen(t *testing.T) {
	units := gridUnits(2, 2, "VAL", []string{"10", "10", "1", "1"})

	a, err := Run(context.Background(), units, Params{
		Field:        "VAL",
		Rule:         weights.Queen,
		Permutations: 99,
		Alpha:        0.05,
		Seed:         42,
	})
	require.NoError(t, err)
	require.Len(t, a.Results, 4)

	// All four cells are mutual queen neighbors, so each unit's lag
	// opposes its own value: I_i = -1/3, the reference distribution is
	// constant, and everything is non-significant.
	for i, r := range a.Results {
		assert.Equal(t, i, r.Index, "order must match input")
		assert.InDelta(t, -1.0/3.0, r.LocalI, 1e-12)
		assert.Equal(t, 1.0, r.PValue)
		assert.False(t, r.Significant)
		assert.Equal(t, model.CategoryNonSig, r.Category)
	}
	assert.Equal(t, QuadrantHighLow, a.Results[0].Quadrant)
	assert.Equal(t, QuadrantHighLow, a.Results[1].Quadrant)
	assert.Equal(t, QuadrantLowHigh, a.Results[2].Quadrant)
	assert.Equal(t, QuadrantLowHigh, a.Results[3].Quadrant)
	assert.Equal(t, 4, a.NonSig)
}

func TestRunClusteredGrid(t *testing.T) {
	// 4x4 lattice, left half high, right half low: the outer columns sit in
	// uniform neighborhoods, so their units land in HH / LL quadrants with
	// positive local I.
	values := make([]string, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if c < 2 {
				values[r*4+c] = "10"
			} else {
				values[r*4+c] = "1"
			}
		}
	}
	units := gridUnits(4, 4, "VAL", values)

	a, err := Run(context.Background(), units, Params{
		Field:        "VAL",
		Rule:         weights.Rook,
		Permutations: 999,
		Alpha:        0.05,
		Seed:         42,
	})
	require.NoError(t, err)
	require.Len(t, a.Results, 16)

	for r := 0; r < 4; r++ {
		left := a.Results[r*4]
		right := a.Results[r*4+3]
		assert.Greater(t, left.LocalI, 0.0, "row %d left column", r)
		assert.Equal(t, QuadrantHighHigh, left.Quadrant, "row %d left column", r)
		assert.Greater(t, right.LocalI, 0.0, "row %d right column", r)
		assert.Equal(t, QuadrantLowLow, right.Quadrant, "row %d right column", r)
	}

	assert.Equal(t, len(a.Results), a.Hotspots+a.Coldspots+a.Outliers+a.NonSig)
}

func TestRunDeterministicForSeed(t *testing.T) {
	values := make([]string, 16)
	for i := range values {
		values[i] = fmt.Sprintf("%d", (i*7)%13)
	}
	units := gridUnits(4, 4, "VAL", values)

	params := Params{
		Field:        "VAL",
		Rule:         weights.Queen,
		Permutations: 199,
		Alpha:        0.05,
		Seed:         99,
		Workers:      3,
	}

	first, err := Run(context.Background(), units, params)
	require.NoError(t, err)
	second, err := Run(context.Background(), units, params)
	require.NoError(t, err)

	for i := range first.Results {
		assert.Equal(t, first.Results[i].PValue, second.Results[i].PValue, "unit %d", i)
		assert.Equal(t, first.Results[i].ZScore, second.Results[i].ZScore, "unit %d", i)
		assert.Equal(t, first.Results[i].Category, second.Results[i].Category, "unit %d", i)
	}
}

func TestRunIsolatedUnit(t *testing.T) {
	units := gridUnits(2, 2, "VAL", []string{"10", "10", "1", "1"})
	units = append(units, squareUnit(4, 50, 50, "VAL", "1000"))

	a, err := Run(context.Background(), units, Params{
		Field:        "VAL",
		Rule:         weights.Queen,
		Permutations: 999,
		Alpha:        0.05,
		Seed:         42,
	})
	require.NoError(t, err)
	require.Len(t, a.Results, 5)

	isolate := a.Results[4]
	assert.Zero(t, isolate.LocalI)
	assert.Equal(t, 1.0, isolate.PValue)
	assert.Zero(t, isolate.ZScore)
	assert.Equal(t, model.CategoryNonSig, isolate.Category)
}

func TestRunFailures(t *testing.T) {
	units := gridUnits(2, 2, "VAL", []string{"10", "10", "1", "1"})

	tests := []struct {
		name     string
		units    []model.Unit
		params   Params
		sentinel error
	}{
		{
			name:     "invalid contiguity rule",
			units:    units,
			params:   Params{Field: "VAL", Rule: weights.Rule("hex")},
			sentinel: weights.ErrInvalidWeightType,
		},
		{
			name:     "missing field",
			units:    units,
			params:   Params{Field: "NOPE", Rule: weights.Queen},
			sentinel: ErrFieldNotFound,
		},
		{
			name:     "zero variance attribute",
			units:    gridUnits(2, 2, "VAL", []string{"5", "5", "5", "5"}),
			params:   Params{Field: "VAL", Rule: weights.Queen},
			sentinel: ErrDegenerateInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.units, tt.params)
			require.Error(t, err)
			assert.True(t, eris.Is(err, tt.sentinel))
		})
	}
}
