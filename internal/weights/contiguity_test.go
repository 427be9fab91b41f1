package weights

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// square returns a unit square polygon with lower-left corner (x, y).
func square(x, y float64) geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, y,
		x + 1, y,
		x + 1, y + 1,
		x, y + 1,
		x, y,
	}, []int{10})
}

// grid2x2 builds the four-cell layout used throughout the statistics tests:
// units 0, 1 on the top row, 2, 3 on the bottom row.
func grid2x2() []geom.T {
	return []geom.T{
		square(0, 1), // 0: top-left
		square(1, 1), // 1: top-right
		square(0, 0), // 2: bottom-left
		square(1, 0), // 3: bottom-right
	}
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Rule
		wantErr bool
	}{
		{name: "queen lowercase", in: "queen", want: Queen},
		{name: "rook mixed case", in: "Rook", want: Rook},
		{name: "padded", in: "  queen ", want: Queen},
		{name: "hex rejected", in: "hex", wantErr: true},
		{name: "empty rejected", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRule(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrInvalidWeightType))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildNeighborsQueen(t *testing.T) {
	neighbors, err := BuildNeighbors(grid2x2(), Queen)
	require.NoError(t, err)

	// Every cell touches every other: edges to two, a vertex to the diagonal.
	want := [][]int{
		{1, 2, 3},
		{0, 2, 3},
		{0, 1, 3},
		{0, 1, 2},
	}
	assert.Equal(t, want, neighbors)
}

func TestBuildNeighborsRook(t *testing.T) {
	neighbors, err := BuildNeighbors(grid2x2(), Rook)
	require.NoError(t, err)

	// Shared edges only: the diagonal vertex touch does not count.
	want := [][]int{
		{1, 2},
		{0, 3},
		{0, 3},
		{1, 2},
	}
	assert.Equal(t, want, neighbors)
}

func TestQueenSupersetOfRook(t *testing.T) {
	geoms := []geom.T{
		square(0, 1), square(1, 1), square(2, 1),
		square(0, 0), square(1, 0), square(2, 0),
		square(5, 5), // isolated
	}

	queen, err := BuildNeighbors(geoms, Queen)
	require.NoError(t, err)
	rook, err := BuildNeighbors(geoms, Rook)
	require.NoError(t, err)

	for i := range geoms {
		queenSet := make(map[int]bool, len(queen[i]))
		for _, j := range queen[i] {
			queenSet[j] = true
		}
		for _, j := range rook[i] {
			assert.True(t, queenSet[j], "rook pair (%d,%d) missing from queen", i, j)
		}
	}
}

func TestBuildNeighborsSymmetricNoSelf(t *testing.T) {
	neighbors, err := BuildNeighbors(grid2x2(), Queen)
	require.NoError(t, err)

	for i, row := range neighbors {
		for _, j := range row {
			assert.NotEqual(t, i, j, "unit %d lists itself", i)
			assert.Contains(t, neighbors[j], i, "relation not symmetric for (%d,%d)", i, j)
		}
	}
}

func TestBuildNeighborsIsolatedUnit(t *testing.T) {
	geoms := append(grid2x2(), square(10, 10))

	neighbors, err := BuildNeighbors(geoms, Queen)
	require.NoError(t, err)
	assert.Empty(t, neighbors[4])
}

func TestBuildNeighborsMultiPolygonCountedOnce(t *testing.T) {
	// Unit 1 is a two-part geometry touching unit 0 at two disjoint places:
	// parts left and above the corner square.
	corner := square(1, 0)

	mp := geom.NewMultiPolygon(geom.XY)
	left, ok := square(0, 0).(*geom.Polygon)
	require.True(t, ok)
	above, ok := square(1, 1).(*geom.Polygon)
	require.True(t, ok)
	require.NoError(t, mp.Push(left))
	require.NoError(t, mp.Push(above))

	neighbors, err := BuildNeighbors([]geom.T{corner, mp}, Rook)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, neighbors[0])
	assert.Equal(t, []int{0}, neighbors[1])
}

func TestBuildNeighborsInvalidRule(t *testing.T) {
	_, err := BuildNeighbors(grid2x2(), Rule("hex"))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidWeightType))
}

func TestBuildNeighborsEmptyGeometry(t *testing.T) {
	tests := []struct {
		name  string
		geoms []geom.T
	}{
		{name: "nil geometry", geoms: []geom.T{square(0, 0), nil}},
		{name: "no rings", geoms: []geom.T{geom.NewPolygon(geom.XY), square(0, 0)}},
		{name: "non-polygon", geoms: []geom.T{geom.NewPointFlat(geom.XY, []float64{1, 2})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildNeighbors(tt.geoms, Queen)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrEmptyGeometry))
		})
	}
}
