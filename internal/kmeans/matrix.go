package kmeans

import (
	"math"

	"gonum.org/v1/gonum/blas/blas64"
)

// Matrix is a dense row-major point matrix in training precision.
// Rows are converted to float64 once so that all BLAS kernels operate
// on contiguous memory; squared row norms are precomputed because the
// distance identity ||x-c||^2 = ||x||^2 + ||c||^2 - 2*(x.c) reuses
// them every iteration.
type Matrix struct {
	n    int
	dim  int
	data []float64
	norm []float64
}

// NewMatrix builds a Matrix from float32 rows. When normalize is true
// each row is L2-normalized (rows with zero norm are left as-is).
// Assumes rows are non-empty and rectangular (caller's responsibility).
func NewMatrix(points [][]float32, normalize bool) *Matrix {
	n := len(points)
	dim := len(points[0])

	m := &Matrix{
		n:    n,
		dim:  dim,
		data: make([]float64, n*dim),
		norm: make([]float64, n),
	}

	for i, p := range points {
		var norm float64
		for d := 0; d < dim; d++ {
			v := float64(p[d])
			m.data[i*dim+d] = v
			norm += v * v
		}
		if normalize && norm > 0 {
			row := m.data[i*dim : (i+1)*dim]
			blas64.Scal(1/math.Sqrt(norm), blas64.Vector{N: dim, Inc: 1, Data: row})
			norm = 1
		}
		m.norm[i] = norm
	}

	return m
}

// Len returns the number of rows.
func (m *Matrix) Len() int { return m.n }

// Dim returns the row dimensionality.
func (m *Matrix) Dim() int { return m.dim }

// Row returns row i as a slice into the backing array.
func (m *Matrix) Row(i int) []float64 { return m.data[i*m.dim : (i+1)*m.dim] }

// Norm returns the squared L2 norm of row i.
func (m *Matrix) Norm(i int) float64 { return m.norm[i] }
