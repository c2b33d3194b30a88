package kmeans

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/clustergo/distance"
)

// Chunks below this size are not worth handing to another goroutine.
const minAssignChunk = 256

// Assign maps every point to its nearest center under the metric and
// returns per-point cluster indices and distances. Chunks of points are
// scored in parallel, bounded by parallelism (values < 1 use
// GOMAXPROCS). Assumes points and centers share one dimensionality
// (caller's responsibility).
func Assign(ctx context.Context, points, centers [][]float32, metric distance.Metric, parallelism int) ([]int, []float32, error) {
	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, nil, err
	}

	n := len(points)
	clusters := make([]int, n)
	dists := make([]float32, n)

	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	chunk := (n + parallelism - 1) / parallelism
	if chunk < minAssignChunk {
		chunk = minAssignChunk
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				best := 0
				bestDist := float32(math.MaxFloat32)
				for j, c := range centers {
					if d := distFunc(points[i], c); d < bestDist {
						bestDist = d
						best = j
					}
				}
				clusters[i] = best
				dists[i] = bestDist
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return clusters, dists, nil
}

// Transform computes the full point-to-center distance matrix for m,
// one float32 row of k distances per input row.
func (t *Trainer) Transform(ctx context.Context, m *Matrix) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := t.cfg.NumClusters
	dots := make([]float64, m.Len()*k)
	t.centerDots(m, dots)

	out := make([][]float32, m.Len())
	for i := 0; i < m.Len(); i++ {
		row := make([]float32, k)
		for j := 0; j < k; j++ {
			row[j] = float32(pointCenterDist(m.Norm(i), t.cnorms[j], dots[i*k+j], t.cfg.Cosine))
		}
		out[i] = row
	}
	return out, nil
}
