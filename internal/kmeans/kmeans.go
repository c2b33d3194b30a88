package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// Training errors surfaced to the estimator, which wraps them with
// user-facing context.
var (
	// ErrTooFewPoints is returned by random seeding when the input has
	// fewer rows than requested clusters.
	ErrTooFewPoints = errors.New("kmeans: fewer points than clusters")
	// ErrSamplingFailed is returned by k-means++ seeding when it cannot
	// draw the requested number of centers from the input.
	ErrSamplingFailed = errors.New("kmeans: k-means++ sampling failed")
)

// Strategy selects how initial centers are chosen.
type Strategy int

const (
	// InitRandom picks k distinct input rows uniformly at random.
	InitRandom Strategy = iota
	// InitPlusPlus picks centers by D^2-weighted sampling (k-means++),
	// evaluating a small number of candidates per draw and keeping the
	// one that lowers the clustering potential the most.
	InitPlusPlus
)

// Config holds immutable trainer parameters.
type Config struct {
	NumClusters int
	// Cosine switches training to spherical k-means: input rows are
	// expected L2-normalized, centers are kept L2-normalized and the
	// objective is the summed cosine distance.
	Cosine bool
	// Retries is the number of extra candidates evaluated per
	// k-means++ draw. Zero keeps a single candidate; negative derives
	// the count from NumClusters.
	Retries int
	// Tolerance stops full-batch refinement early once the relative
	// objective improvement falls below it. Zero or negative disables
	// early stopping.
	Tolerance float64
}

// Trainer carries cluster centers and the state needed to refine them
// across training rounds. It is not safe for concurrent use; the
// estimator serializes access.
type Trainer struct {
	cfg Config
	rng *rand.Rand

	dim       int
	centers   []float64 // k*dim row-major
	cnorms    []float64 // squared center norms
	counts    []int64   // per-center mini-batch update counts
	seeded    bool
	objective float64
}

// NewTrainer creates a trainer that draws all randomness from rng.
func NewTrainer(cfg Config, rng *rand.Rand) *Trainer {
	return &Trainer{cfg: cfg, rng: rng, objective: math.NaN()}
}

// Seeded reports whether centers have been initialized.
func (t *Trainer) Seeded() bool { return t.seeded }

// Dim returns the trained dimensionality, 0 before seeding.
func (t *Trainer) Dim() int { return t.dim }

// Objective returns the objective of the last full-batch assignment,
// NaN before the first refinement run.
func (t *Trainer) Objective() float64 { return t.objective }

// Seed chooses initial centers from m according to the strategy and
// resets all refinement state.
func (t *Trainer) Seed(ctx context.Context, m *Matrix, strategy Strategy) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := t.cfg.NumClusters
	t.dim = m.Dim()
	t.centers = make([]float64, k*t.dim)
	t.cnorms = make([]float64, k)
	t.counts = make([]int64, k)
	t.seeded = false
	t.objective = math.NaN()

	switch strategy {
	case InitPlusPlus:
		if err := t.seedPlusPlus(ctx, m); err != nil {
			return err
		}
	default:
		if m.Len() < k {
			return ErrTooFewPoints
		}
		perm := t.rng.Perm(m.Len())
		for j := 0; j < k; j++ {
			copy(t.center(j), m.Row(perm[j]))
		}
	}

	t.computeCenterNorms()
	t.seeded = true
	return nil
}

// seedPlusPlus implements greedy k-means++: each draw samples 1+Retries
// candidate rows proportional to their squared distance from the
// nearest chosen center and keeps the candidate with the lowest
// resulting potential.
func (t *Trainer) seedPlusPlus(ctx context.Context, m *Matrix) error {
	n, k := m.Len(), t.cfg.NumClusters
	if n < k {
		return ErrSamplingFailed
	}

	copy(t.center(0), m.Row(t.rng.Intn(n)))

	minDist := make([]float64, n)
	dots := make([]float64, n)
	cand := make([]float64, n)
	for i := range minDist {
		minDist[i] = math.MaxFloat64
	}

	retries := t.cfg.Retries
	if retries < 0 {
		// Derive a candidate count from the number of centers still to
		// be drawn, matching the usual greedy k-means++ heuristic.
		retries = 2 + int(math.Ceil(math.Log(float64(k))))
	}

	for c := 1; c < k; c++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Fold the previously added center into the running minima.
		prev := t.center(c - 1)
		prevNorm := dotSelf(prev)
		rowDots(m, prev, dots)

		var total float64
		for i := 0; i < n; i++ {
			d := pointCenterDist(m.Norm(i), prevNorm, dots[i], t.cfg.Cosine)
			if d < minDist[i] {
				minDist[i] = d
			}
			total += minDist[i]
		}

		// All remaining mass sits on already chosen centers; any row
		// works, so fall back to a uniform draw.
		if total == 0 {
			copy(t.center(c), m.Row(t.rng.Intn(n)))
			continue
		}

		bestIdx := -1
		bestPot := math.MaxFloat64
		for r := 0; r <= retries; r++ {
			idx := sampleByWeight(t.rng, minDist, total)
			if pot := t.candidatePotential(m, idx, minDist, cand); pot < bestPot {
				bestPot = pot
				bestIdx = idx
			}
		}
		copy(t.center(c), m.Row(bestIdx))
	}

	return nil
}

// candidatePotential evaluates the clustering potential that would
// result from adding row idx as a center, reusing dots as scratch.
func (t *Trainer) candidatePotential(m *Matrix, idx int, minDist, dots []float64) float64 {
	rowDots(m, m.Row(idx), dots)
	cnorm := m.Norm(idx)

	var pot float64
	for i := 0; i < m.Len(); i++ {
		d := pointCenterDist(m.Norm(i), cnorm, dots[i], t.cfg.Cosine)
		if md := minDist[i]; md < d {
			d = md
		}
		pot += d
	}
	return pot
}

// Run refines the centers with up to steps full-batch Lloyd iterations,
// stopping early once the relative objective improvement drops below
// the configured tolerance. It returns the objective of the last
// evaluated assignment.
func (t *Trainer) Run(ctx context.Context, m *Matrix, steps int) (float64, error) {
	if steps <= 0 {
		return t.objective, nil
	}

	n, k := m.Len(), t.cfg.NumClusters
	dots := make([]float64, n*k)
	assign := make([]int, n)
	counts := make([]int, k)
	next := make([]float64, len(t.centers))

	prev := math.Inf(1)

	for iter := 0; iter < steps; iter++ {
		if err := ctx.Err(); err != nil {
			return t.objective, err
		}

		t.centerDots(m, dots)
		obj := t.assignFromDots(m, dots, assign, counts)
		t.objective = obj

		next = t.updateCenters(m, assign, counts, next)
		t.reseedEmpty(m, dots, assign, counts)
		t.computeCenterNorms()

		if t.cfg.Tolerance > 0 && !math.IsInf(prev, 1) && obj > 0 {
			if imp := (prev - obj) / obj; imp >= 0 && imp < t.cfg.Tolerance {
				break
			}
		}
		prev = obj
	}

	return t.objective, nil
}

// centerDots computes dots[i*k+j] = m.Row(i) . center(j) with one GEMM:
// dots = X @ C.T where X is (n x dim) and C is (k x dim).
func (t *Trainer) centerDots(m *Matrix, dots []float64) {
	k := t.cfg.NumClusters
	blas64.Gemm(
		blas.NoTrans,
		blas.Trans,
		1.0,
		blas64.General{Rows: m.n, Cols: m.dim, Stride: m.dim, Data: m.data},
		blas64.General{Rows: k, Cols: t.dim, Stride: t.dim, Data: t.centers},
		0.0,
		blas64.General{Rows: m.n, Cols: k, Stride: k, Data: dots},
	)
}

// assignFromDots assigns every row to its nearest center using the
// precomputed dot products and returns the total objective.
func (t *Trainer) assignFromDots(m *Matrix, dots []float64, assign []int, counts []int) float64 {
	k := t.cfg.NumClusters
	for j := range counts {
		counts[j] = 0
	}

	var total float64
	for i := 0; i < m.Len(); i++ {
		row := i * k
		best := 0
		bestDist := math.MaxFloat64
		for j := 0; j < k; j++ {
			d := pointCenterDist(m.Norm(i), t.cnorms[j], dots[row+j], t.cfg.Cosine)
			if d < bestDist {
				bestDist = d
				best = j
			}
		}
		assign[i] = best
		counts[best]++
		total += bestDist
	}
	return total
}

// updateCenters recomputes each non-empty center as the mean of its
// assigned rows (the normalized mean direction under cosine) and swaps
// the freshly built buffer in. The returned slice is the previous
// center buffer, handed back for reuse.
func (t *Trainer) updateCenters(m *Matrix, assign []int, counts []int, next []float64) []float64 {
	for i := range next {
		next[i] = 0
	}

	for i := 0; i < m.Len(); i++ {
		c := assign[i]
		blas64.Axpy(1.0,
			blas64.Vector{N: t.dim, Inc: 1, Data: m.Row(i)},
			blas64.Vector{N: t.dim, Inc: 1, Data: next[c*t.dim : (c+1)*t.dim]},
		)
	}

	for j := 0; j < t.cfg.NumClusters; j++ {
		if counts[j] == 0 {
			continue
		}
		dst := next[j*t.dim : (j+1)*t.dim]
		if t.cfg.Cosine {
			if norm := dotSelf(dst); norm > 0 {
				blas64.Scal(1/math.Sqrt(norm), blas64.Vector{N: t.dim, Inc: 1, Data: dst})
			} else {
				// Summed directions cancelled out; keep the old center.
				copy(dst, t.center(j))
			}
		} else {
			blas64.Scal(1/float64(counts[j]), blas64.Vector{N: t.dim, Inc: 1, Data: dst})
		}
	}

	t.centers, next = next, t.centers
	return next
}

// reseedEmpty moves every empty center onto the row farthest from its
// assigned center. Distances come from the dot products of the
// pre-update iteration, which t.cnorms still matches at this point.
func (t *Trainer) reseedEmpty(m *Matrix, dots []float64, assign []int, counts []int) {
	k := t.cfg.NumClusters
	for j := 0; j < k; j++ {
		if counts[j] != 0 {
			continue
		}

		maxDist := -1.0
		maxIdx := -1
		for i := 0; i < m.Len(); i++ {
			c := assign[i]
			d := pointCenterDist(m.Norm(i), t.cnorms[c], dots[i*k+c], t.cfg.Cosine)
			if d > maxDist {
				maxDist = d
				maxIdx = i
			}
		}

		if maxIdx < 0 {
			maxIdx = t.rng.Intn(m.Len())
		}
		copy(t.center(j), m.Row(maxIdx))
	}
}

// Centers returns the current centers as freshly allocated float32 rows.
func (t *Trainer) Centers() [][]float32 {
	k := t.cfg.NumClusters
	out := make([][]float32, k)
	for j := 0; j < k; j++ {
		src := t.center(j)
		row := make([]float32, t.dim)
		for d := 0; d < t.dim; d++ {
			row[d] = float32(src[d])
		}
		out[j] = row
	}
	return out
}

// State returns copies of the raw centers and per-center update counts
// for serialization.
func (t *Trainer) State() (centers []float64, counts []int64) {
	return slices.Clone(t.centers), slices.Clone(t.counts)
}

// Restore replaces the trainer state from serialized form.
func (t *Trainer) Restore(dim int, centers []float64, counts []int64) {
	t.dim = dim
	t.centers = slices.Clone(centers)
	t.counts = slices.Clone(counts)
	t.cnorms = make([]float64, t.cfg.NumClusters)
	t.computeCenterNorms()
	t.seeded = true
	t.objective = math.NaN()
}

func (t *Trainer) center(j int) []float64 {
	return t.centers[j*t.dim : (j+1)*t.dim]
}

func (t *Trainer) computeCenterNorms() {
	for j := 0; j < t.cfg.NumClusters; j++ {
		t.cnorms[j] = dotSelf(t.center(j))
	}
}

// pointCenterDist evaluates the metric distance from precomputed
// squared norms and the dot product, clamped at zero to absorb
// floating point cancellation.
func pointCenterDist(xnorm, cnorm, dot float64, cosine bool) float64 {
	var d float64
	if cosine {
		d = 1 - dot
	} else {
		d = xnorm + cnorm - 2*dot
	}
	if d < 0 {
		return 0
	}
	return d
}

// rowDots computes dots[i] = m.Row(i) . v for all rows with one GEMV.
func rowDots(m *Matrix, v []float64, dots []float64) {
	blas64.Gemv(
		blas.NoTrans,
		1.0,
		blas64.General{Rows: m.n, Cols: m.dim, Stride: m.dim, Data: m.data},
		blas64.Vector{N: m.dim, Inc: 1, Data: v},
		0.0,
		blas64.Vector{N: m.n, Inc: 1, Data: dots},
	)
}

func dotSelf(v []float64) float64 {
	n := len(v)
	if n == 0 {
		return 0
	}
	return blas64.Dot(
		blas64.Vector{N: n, Inc: 1, Data: v},
		blas64.Vector{N: n, Inc: 1, Data: v},
	)
}

// sampleByWeight draws an index proportional to the weights, whose sum
// must be total > 0.
func sampleByWeight(rng *rand.Rand, weights []float64, total float64) int {
	target := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if cum >= target {
			return i
		}
	}
	return len(weights) - 1
}
