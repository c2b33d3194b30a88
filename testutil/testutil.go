package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/clustergo/distance"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// FillGaussian fills dst with values from a standard normal distribution.
func (r *RNG) FillGaussian(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = float32(r.rand.NormFloat64())
	}
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}

	return vectors
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()*2 - 1
		}
		vectors[i] = vec
	}

	return vectors
}

// GaussianVectors generates random vectors with values from a standard normal distribution.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
// Uses Gaussian distribution for uniform distribution on the sphere.
// Essential for cosine-metric tests, where only direction carries signal.
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for !fillUnit(r.rand, vec) {
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVector generates a single L2-normalized random vector.
func (r *RNG) UnitVector(dimensions int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vec := make([]float32, dimensions)
	for !fillUnit(r.rand, vec) {
	}
	return vec
}

// fillUnit fills vec with Gaussian draws and normalizes it. Returns false
// on the (vanishingly rare) zero-norm draw so the caller can retry.
func fillUnit(rand *rand.Rand, vec []float32) bool {
	for j := range vec {
		vec[j] = float32(rand.NormFloat64())
	}
	return distance.NormalizeL2InPlace(vec)
}

// ClusterCenters generates well-separated centers with integer-valued
// coordinates in [0, 500]. Rounding to whole numbers keeps the expected
// assignments unambiguous when points are scattered nearby.
func (r *RNG) ClusterCenters(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	centers := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = roundf(r.rand.Float32() * 500)
		}
		centers[i] = vec
	}

	return centers
}

// ClusterPoints scatters points around the given centers. Each point picks
// a center uniformly at random and adds a rounded Gaussian offset scaled by
// maxOffset. It returns the points, the index of the true center for each
// point, and each point's squared offset norm (the residual a perfect
// clustering would report for it).
func (r *RNG) ClusterPoints(centers [][]float32, num int, maxOffset float64) (points [][]float32, assignments []int, offsetSq []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dimensions := len(centers[0])
	data := make([]float32, num*dimensions)
	points = make([][]float32, num)
	assignments = make([]int, num)
	offsetSq = make([]float32, num)

	for i := range num {
		c := r.rand.Intn(len(centers))
		assignments[i] = c

		vec := data[i*dimensions : (i+1)*dimensions]
		var sq float64
		for j := range vec {
			off := roundf(float32(r.rand.NormFloat64() * maxOffset))
			vec[j] = centers[c][j] + off
			sq += float64(off) * float64(off)
		}
		offsetSq[i] = float32(sq)
		points[i] = vec
	}

	return points, assignments, offsetSq
}

// ClusteredVectors generates vectors clustered around random centroids.
// Useful for exercising convergence on non-uniform data.
func (r *RNG) ClusteredVectors(num int, dimensions int, numClusters int, spread float64) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	centroids := make([][]float32, numClusters)
	for i := range numClusters {
		c := make([]float32, dimensions)
		for j := range c {
			c[j] = r.rand.Float32()
		}
		centroids[i] = c
	}

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		c := centroids[r.rand.Intn(numClusters)]
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = c[j] + float32(r.rand.NormFloat64()*spread)
		}
		vectors[i] = vec
	}

	return vectors
}

func roundf(v float32) float32 {
	return float32(math.Round(float64(v)))
}
