package weights

// Neighbor is one weighted entry of a matrix row.
type Neighbor struct {
	Index  int
	Weight float64
}

// Matrix is a sparse row-standardized spatial weights matrix. Rows with at
// least one neighbor sum to exactly 1 (equal weights 1/k); rows of isolated
// units are empty and weigh zero.
type Matrix struct {
	rows [][]Neighbor
}

// NewMatrix row-standardizes a contiguity relation.
func NewMatrix(neighbors [][]int) *Matrix {
	rows := make([][]Neighbor, len(neighbors))
	for i, ns := range neighbors {
		if len(ns) == 0 {
			continue
		}
		w := 1.0 / float64(len(ns))
		row := make([]Neighbor, len(ns))
		for k, j := range ns {
			row[k] = Neighbor{Index: j, Weight: w}
		}
		rows[i] = row
	}
	return &Matrix{rows: rows}
}

// N returns the number of units.
func (m *Matrix) N() int { return len(m.rows) }

// Row returns the weighted neighbors of unit i. The returned slice must not
// be modified.
func (m *Matrix) Row(i int) []Neighbor { return m.rows[i] }

// Cardinality returns the neighbor count of unit i.
func (m *Matrix) Cardinality(i int) int { return len(m.rows[i]) }

// LagAt computes the neighbor-weighted sum of z for unit i. Isolated units
// lag to 0 by convention.
func (m *Matrix) LagAt(i int, z []float64) float64 {
	var lag float64
	for _, nb := range m.rows[i] {
		lag += nb.Weight * z[nb.Index]
	}
	return lag
}

// SpatialLag computes the neighbor-weighted sum of z for every unit.
func (m *Matrix) SpatialLag(z []float64) []float64 {
	lags := make([]float64, len(m.rows))
	for i := range m.rows {
		lags[i] = m.LagAt(i, z)
	}
	return lags
}
