package moran

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/lisa-cli/internal/weights"
)

// DefaultPermutations is the reference-distribution size used when the caller
// does not specify one.
const DefaultPermutations = 999

// PermutationOptions configures conditional permutation inference.
type PermutationOptions struct {
	Permutations int   // number of random permutations P (default 999)
	Seed         int64 // base seed; unit i draws from seed+i
	Workers      int   // parallel units; <=0 means GOMAXPROCS
}

// Inference holds the per-unit permutation results.
type Inference struct {
	PValues []float64 // pseudo p-values in (0, 1]
	ZScores []float64 // standardized against the reference distribution
}

// Permute estimates significance of the observed statistics by conditional
// permutation: unit i's value stays fixed while its neighbor positions are
// refilled with values drawn without replacement from the other n−1 units.
//
// Each unit owns a private generator seeded seed+i, so results are identical
// for any worker count.
func Permute(ctx context.Context, z []float64, w *weights.Matrix, obs []float64, opts PermutationOptions) (*Inference, error) {
	n := len(z)
	perms := opts.Permutations
	if perms <= 0 {
		perms = DefaultPermutations
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	m2 := secondMoment(z)
	if m2 == 0 {
		return nil, ErrDegenerateInput
	}

	inf := &Inference{
		PValues: make([]float64, n),
		ZScores: make([]float64, n),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			inf.PValues[i], inf.ZScores[i] = permuteUnit(z, w, obs[i], m2, i, perms, opts.Seed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inf, nil
}

// permuteUnit runs the reference distribution for one unit and returns its
// pseudo p-value and permutation z-score.
func permuteUnit(z []float64, w *weights.Matrix, observed, m2 float64, i, perms int, seed int64) (p, zscore float64) {
	row := w.Row(i)
	k := len(row)
	if k == 0 {
		// Isolated unit: the reference distribution is degenerate at zero.
		return 1, 0
	}

	rng := rand.New(rand.NewSource(seed + int64(i)))

	// Pool of the other n−1 values; draws are without replacement per
	// permutation via a partial Fisher-Yates over the pool prefix.
	pool := make([]float64, 0, len(z)-1)
	for j, v := range z {
		if j != i {
			pool = append(pool, v)
		}
	}

	scale := z[i] / m2
	refs := make([]float64, perms)
	var extreme int

	for it := 0; it < perms; it++ {
		for t := 0; t < k; t++ {
			s := t + rng.Intn(len(pool)-t)
			pool[t], pool[s] = pool[s], pool[t]
		}
		var lag float64
		for t, nb := range row {
			lag += nb.Weight * pool[t]
		}
		ref := scale * lag
		refs[it] = ref

		// Extremity toward the sign of the observed statistic.
		if observed >= 0 {
			if ref >= observed {
				extreme++
			}
		} else if ref <= observed {
			extreme++
		}
	}

	mean, std := stat.MeanStdDev(refs, nil)
	if std == 0 || math.IsNaN(std) {
		return 1, 0
	}

	p = float64(extreme+1) / float64(perms+1)
	zscore = (observed - mean) / std
	return p, zscore
}
