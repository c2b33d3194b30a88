package kmeans

import (
	"context"
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// RunMiniBatch refines the centers with steps rounds of mini-batch
// updates. Each round samples batchSize distinct rows, assigns them to
// their nearest center against the centers as of the round start, and
// moves every touched center toward its samples with a per-center
// learning rate of 1/count. Counts persist on the trainer, so centers
// that have absorbed many updates move less; resumed training sessions
// keep shrinking the rate instead of starting over.
func (t *Trainer) RunMiniBatch(ctx context.Context, m *Matrix, steps, batchSize int) error {
	if steps <= 0 {
		return nil
	}

	n, k := m.Len(), t.cfg.NumClusters
	if batchSize <= 0 || batchSize > n {
		batchSize = n
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	bdata := make([]float64, batchSize*t.dim)
	bnorm := make([]float64, batchSize)
	dots := make([]float64, batchSize*k)
	touched := make([]bool, k)

	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Partial Fisher-Yates: the first batchSize entries of perm
		// become a uniform sample without replacement.
		for i := 0; i < batchSize; i++ {
			j := i + t.rng.Intn(n-i)
			perm[i], perm[j] = perm[j], perm[i]
		}

		for b := 0; b < batchSize; b++ {
			copy(bdata[b*t.dim:(b+1)*t.dim], m.Row(perm[b]))
			bnorm[b] = m.Norm(perm[b])
		}

		// dots[b*k+j] = batch row b . center j
		blas64.Gemm(
			blas.NoTrans,
			blas.Trans,
			1.0,
			blas64.General{Rows: batchSize, Cols: t.dim, Stride: t.dim, Data: bdata},
			blas64.General{Rows: k, Cols: t.dim, Stride: t.dim, Data: t.centers},
			0.0,
			blas64.General{Rows: batchSize, Cols: k, Stride: k, Data: dots},
		)

		for j := range touched {
			touched[j] = false
		}

		for b := 0; b < batchSize; b++ {
			row := b * k
			best := 0
			bestDist := math.MaxFloat64
			for j := 0; j < k; j++ {
				d := pointCenterDist(bnorm[b], t.cnorms[j], dots[row+j], t.cfg.Cosine)
				if d < bestDist {
					bestDist = d
					best = j
				}
			}

			t.counts[best]++
			lr := 1 / float64(t.counts[best])
			dst := t.center(best)
			src := bdata[b*t.dim : (b+1)*t.dim]
			for d := 0; d < t.dim; d++ {
				dst[d] += lr * (src[d] - dst[d])
			}
			touched[best] = true
		}

		for j := 0; j < k; j++ {
			if !touched[j] {
				continue
			}
			if t.cfg.Cosine {
				c := t.center(j)
				if norm := dotSelf(c); norm > 0 {
					blas64.Scal(1/math.Sqrt(norm), blas64.Vector{N: t.dim, Inc: 1, Data: c})
				}
			}
			t.cnorms[j] = dotSelf(t.center(j))
		}
	}

	return nil
}
