// Package weights builds polygon contiguity relations and the row-standardized
// spatial weights matrix used by the local Moran statistic.
package weights

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Sentinel errors for contiguity construction.
var (
	ErrInvalidWeightType = eris.New("weights: invalid weight type (use 'queen' or 'rook')")
	ErrEmptyGeometry     = eris.New("weights: empty geometry")
)

// Rule selects the contiguity criterion.
type Rule string

// Supported contiguity rules.
const (
	Queen Rule = "queen"
	Rook  Rule = "rook"
)

// ParseRule normalizes a user-supplied contiguity selector.
func ParseRule(s string) (Rule, error) {
	switch Rule(strings.ToLower(strings.TrimSpace(s))) {
	case Queen:
		return Queen, nil
	case Rook:
		return Rook, nil
	default:
		return "", eris.Wrapf(ErrInvalidWeightType, "got %q", s)
	}
}

// vertex is an exact boundary coordinate. Contiguity uses exact coordinate
// identity, matching how well-noded polygon coverages share boundaries.
type vertex struct {
	X, Y float64
}

// edge is a canonicalized boundary segment (A ordered before B).
type edge struct {
	A, B vertex
}

func canonicalEdge(a, b vertex) edge {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		a, b = b, a
	}
	return edge{A: a, B: b}
}

// BuildNeighbors computes the contiguity relation for an ordered sequence of
// polygon geometries. The result is symmetric, deduplicated, and contains no
// self-references; units with no contiguous polygon get an empty set.
//
// Queen: two polygons are neighbors iff their boundaries share at least one
// vertex. Rook: iff they share a full boundary segment. Candidate pairs are
// discovered through a shared-vertex hash index over all ring vertices, so
// the cost is linear in the total vertex count.
func BuildNeighbors(geoms []geom.T, rule Rule) ([][]int, error) {
	if rule != Queen && rule != Rook {
		return nil, eris.Wrapf(ErrInvalidWeightType, "got %q", string(rule))
	}

	n := len(geoms)
	vertexIndex := make(map[vertex][]int)
	edgeIndex := make(map[edge][]int)

	for i, g := range geoms {
		rings, err := polygonRings(g)
		if err != nil {
			return nil, eris.Wrapf(err, "unit %d", i)
		}
		for _, ring := range rings {
			registerRing(ring, i, vertexIndex, edgeIndex, rule)
		}
	}

	sets := make([]map[int]struct{}, n)
	for i := range sets {
		sets[i] = make(map[int]struct{})
	}

	if rule == Queen {
		for _, owners := range vertexIndex {
			linkAll(sets, owners)
		}
	} else {
		for _, owners := range edgeIndex {
			linkAll(sets, owners)
		}
	}

	neighbors := make([][]int, n)
	var isolates int
	for i, set := range sets {
		row := make([]int, 0, len(set))
		for j := range set {
			row = append(row, j)
		}
		sort.Ints(row)
		neighbors[i] = row
		if len(row) == 0 {
			isolates++
		}
	}

	if isolates > 0 {
		zap.L().Warn("contiguity relation has isolated units",
			zap.String("rule", string(rule)),
			zap.Int("isolates", isolates),
			zap.Int("units", n),
		)
	}

	return neighbors, nil
}

// registerRing records the ring's vertices (queen) or segments (rook) under
// polygon id. Appending is deduplicated per key by checking the last owner,
// which suffices because polygons are processed in index order.
func registerRing(ring []geom.Coord, id int, vertexIndex map[vertex][]int, edgeIndex map[edge][]int, rule Rule) {
	m := len(ring)
	if m == 0 {
		return
	}

	// Drop the duplicated closing coordinate; segments wrap around instead.
	closed := m > 1 && ring[0][0] == ring[m-1][0] && ring[0][1] == ring[m-1][1]
	if closed {
		m--
	}

	for k := 0; k < m; k++ {
		v := vertex{X: ring[k][0], Y: ring[k][1]}
		if owners := vertexIndex[v]; len(owners) == 0 || owners[len(owners)-1] != id {
			vertexIndex[v] = append(owners, id)
		}
	}

	if rule != Rook || m < 2 {
		return
	}
	for k := 0; k < m; k++ {
		a := vertex{X: ring[k][0], Y: ring[k][1]}
		b := vertex{X: ring[(k+1)%m][0], Y: ring[(k+1)%m][1]}
		if a == b {
			continue
		}
		e := canonicalEdge(a, b)
		if owners := edgeIndex[e]; len(owners) == 0 || owners[len(owners)-1] != id {
			edgeIndex[e] = append(owners, id)
		}
	}
}

// linkAll marks every pair among owners as mutual neighbors.
func linkAll(sets []map[int]struct{}, owners []int) {
	if len(owners) < 2 {
		return
	}
	for a := 0; a < len(owners); a++ {
		for b := a + 1; b < len(owners); b++ {
			i, j := owners[a], owners[b]
			if i == j {
				continue
			}
			sets[i][j] = struct{}{}
			sets[j][i] = struct{}{}
		}
	}
}

// polygonRings extracts all boundary rings (exterior and holes, every part of
// a multipolygon) as coordinate slices.
func polygonRings(g geom.T) ([][]geom.Coord, error) {
	if g == nil || g.Empty() {
		return nil, ErrEmptyGeometry
	}

	var rings [][]geom.Coord
	switch p := g.(type) {
	case *geom.Polygon:
		for r := 0; r < p.NumLinearRings(); r++ {
			rings = append(rings, p.LinearRing(r).Coords())
		}
	case *geom.MultiPolygon:
		for k := 0; k < p.NumPolygons(); k++ {
			poly := p.Polygon(k)
			for r := 0; r < poly.NumLinearRings(); r++ {
				rings = append(rings, poly.LinearRing(r).Coords())
			}
		}
	default:
		return nil, eris.Wrapf(ErrEmptyGeometry, "unsupported geometry type %T", g)
	}

	if len(rings) == 0 {
		return nil, ErrEmptyGeometry
	}
	return rings, nil
}
