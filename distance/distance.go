// Package distance provides public API for vector distance calculations.
// All distance functions use SIMD-optimized implementations from
// github.com/viterin/vek when available (AVX2/AVX512 on x86-64).
package distance

import (
	"fmt"
	"math"
	"slices"

	"github.com/viterin/vek/vek32"
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
// Uses SIMD acceleration when available.
func Dot(a, b []float32) float32 {
	return vek32.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
// Uses SIMD acceleration when available.
func SquaredL2(a, b []float32) float32 {
	d := vek32.Distance(a, b)
	return d * d
}

// CosineSimilarity calculates the cosine similarity of two vectors.
// Vectors with zero L2 norm yield similarity 0.
func CosineSimilarity(a, b []float32) float32 {
	na := vek32.Dot(a, a)
	nb := vek32.Dot(b, b)
	if na == 0 || nb == 0 {
		return 0
	}
	return vek32.Dot(a, b) / float32(math.Sqrt(float64(na))*math.Sqrt(float64(nb)))
}

// CosineDistance calculates the cosine distance (1 - cosine similarity)
// between two vectors. The result is clamped to be non-negative so that
// rounding on parallel vectors cannot produce a tiny negative distance.
// Vectors with zero L2 norm yield distance 1.
func CosineDistance(a, b []float32) float32 {
	d := 1 - CosineSimilarity(a, b)
	if d < 0 {
		return 0
	}
	return d
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := vek32.Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	vek32.MulNumber_Inplace(v, inv)
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}

// Metric represents the distance metric used for point-to-center comparison.
type Metric int

const (
	// SquaredEuclidean ranks by squared L2 distance. This is the default
	// clustering metric; it induces the same nearest-center ordering as
	// Euclidean distance while avoiding the square root.
	SquaredEuclidean Metric = iota
	// Cosine ranks by cosine distance (1 - cosine similarity). Under this
	// metric points and centers are compared by direction only.
	Cosine
)

func (m Metric) String() string {
	switch m {
	case SquaredEuclidean:
		return "SquaredEuclidean"
	case Cosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case SquaredEuclidean:
		return SquaredL2, nil
	case Cosine:
		return CosineDistance, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
