package moran

import (
	"context"
	"time"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/lisa-cli/internal/model"
	"github.com/sells-group/lisa-cli/internal/weights"
)

// DefaultAlpha is the significance threshold applied when none is configured.
const DefaultAlpha = 0.05

// Params configures one analysis run.
type Params struct {
	Field        string
	Rule         weights.Rule
	Permutations int
	Alpha        float64
	Seed         int64
	Workers      int
}

// Analysis is the assembled result of one run: per-unit records in input
// order plus category tallies.
type Analysis struct {
	Field     string
	Rule      weights.Rule
	Results   []model.UnitResult
	Hotspots  int
	Coldspots int
	Outliers  int
	NonSig    int
}

// Run executes the full LISA pipeline over the units: contiguity, weights,
// attribute preparation, observed statistic, conditional permutation, and
// classification. Any failure aborts before results are assembled.
func Run(ctx context.Context, units []model.Unit, params Params) (*Analysis, error) {
	start := time.Now()
	alpha := params.Alpha
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	log := zap.L().With(
		zap.String("field", params.Field),
		zap.String("contiguity", string(params.Rule)),
	)

	geoms := make([]geom.T, len(units))
	for i, u := range units {
		geoms[i] = u.Geom
	}

	neighbors, err := weights.BuildNeighbors(geoms, params.Rule)
	if err != nil {
		return nil, err
	}
	w := weights.NewMatrix(neighbors)

	x, z, err := PrepareAttribute(units, params.Field)
	if err != nil {
		return nil, err
	}

	obs, err := LocalI(z, w)
	if err != nil {
		return nil, err
	}

	inf, err := Permute(ctx, z, w, obs, PermutationOptions{
		Permutations: params.Permutations,
		Seed:         params.Seed,
		Workers:      params.Workers,
	})
	if err != nil {
		return nil, err
	}

	a := Assemble(units, x, z, w.SpatialLag(z), obs, inf, alpha)
	a.Field = params.Field
	a.Rule = params.Rule

	log.Info("analysis complete",
		zap.Int("units", len(units)),
		zap.Int("hotspots", a.Hotspots),
		zap.Int("coldspots", a.Coldspots),
		zap.Int("outliers", a.Outliers),
		zap.Int("non_significant", a.NonSig),
		zap.Duration("elapsed", time.Since(start)),
	)
	return a, nil
}

// Assemble joins the computed fields back onto the original units, preserving
// input order and count. The returned records are read-only snapshots.
func Assemble(units []model.Unit, x, z, lags, obs []float64, inf *Inference, alpha float64) *Analysis {
	a := &Analysis{Results: make([]model.UnitResult, len(units))}
	for i, u := range units {
		q, sig, cat := Classify(z[i], lags[i], inf.PValues[i], alpha)
		a.Results[i] = model.UnitResult{
			Index:       u.Index,
			Value:       x[i],
			LocalI:      obs[i],
			PValue:      inf.PValues[i],
			ZScore:      inf.ZScores[i],
			Quadrant:    q,
			Significant: sig,
			Category:    cat,
			Geom:        u.Geom,
		}
		switch cat {
		case model.CategoryHotspot:
			a.Hotspots++
		case model.CategoryColdspot:
			a.Coldspots++
		case model.CategoryOutlierLowHigh, model.CategoryOutlierHighLow:
			a.Outliers++
		default:
			a.NonSig++
		}
	}
	return a
}
