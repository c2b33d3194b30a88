package clustergo

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/hupe1980/clustergo/dataset"
	"github.com/hupe1980/clustergo/distance"
	"github.com/hupe1980/clustergo/internal/kmeans"
)

// Compile-time check to ensure KMeans satisfies the estimator contract.
var _ Estimator = (*KMeans)(nil)

// Estimator is the contract shared by clustering estimators: train on
// batches of points, then assign, score and transform new points.
type Estimator interface {
	Fit(ctx context.Context, points [][]float32, steps int) error
	Predict(ctx context.Context, points [][]float32) ([]int, error)
	Score(ctx context.Context, points [][]float32) (float64, error)
	Transform(ctx context.Context, points [][]float32) ([][]float32, error)
}

// KMeans clusters points into a fixed number of groups and assigns new
// points to the learned centers.
//
// A KMeans value is safe for concurrent use: Fit serializes training
// while Predict, Score and Transform may run concurrently against the
// current centers.
type KMeans struct {
	numClusters int
	opts        Options
	logger      *Logger
	seed        int64

	mu      sync.RWMutex
	rng     *rand.Rand
	trainer *kmeans.Trainer
}

// New creates a new k-means estimator for numClusters clusters.
func New(numClusters int, optFns ...func(o *Options)) (*KMeans, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if numClusters <= 0 {
		return nil, ErrInvalidNumClusters
	}
	if _, err := distance.Provider(opts.Metric); err != nil {
		return nil, err
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultOptions.BatchSize
	}
	if opts.Steps < 0 {
		opts.Steps = DefaultOptions.Steps
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = NoopMetricsCollector{}
	}

	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &KMeans{
		numClusters: numClusters,
		opts:        opts,
		logger:      opts.Logger.WithNumClusters(numClusters),
		seed:        seed,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// NumClusters returns the configured number of clusters.
func (k *KMeans) NumClusters() int { return k.numClusters }

// Fitted reports whether the estimator has trained centers.
func (k *KMeans) Fitted() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.trainer != nil && k.trainer.Seeded()
}

// Dimension returns the trained point dimensionality, 0 before training.
func (k *KMeans) Dimension() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.trainer == nil {
		return 0
	}
	return k.trainer.Dim()
}

// Fit trains the estimator on points for the given number of
// refinement steps. Zero steps seeds the centers without refinement;
// negative steps fall back to Options.Steps. Unless ContinueTraining is
// set, every call reseeds from scratch with the configured seed, so
// repeated fits are reproducible.
func (k *KMeans) Fit(ctx context.Context, points [][]float32, steps int) error {
	start := time.Now()
	if steps < 0 {
		steps = k.opts.Steps
	}

	objective, err := k.fit(ctx, points, steps)

	k.opts.Metrics.RecordFit(steps, time.Since(start), err)
	k.logger.LogFit(ctx, len(points), steps, objective, err)
	return err
}

// FitMatrix trains on a memory-mapped point matrix. Only row headers
// are materialized; the float data stays in the mapping until the
// trainer touches it.
func (k *KMeans) FitMatrix(ctx context.Context, m *dataset.Matrix, steps int) error {
	return k.Fit(ctx, m.Views(), steps)
}

func (k *KMeans) fit(ctx context.Context, points [][]float32, steps int) (float64, error) {
	dim, err := pointsDim(points)
	if err != nil {
		return math.NaN(), err
	}

	if rc := k.opts.Resources; rc != nil {
		if err := rc.AcquireJob(ctx); err != nil {
			return math.NaN(), err
		}
		defer rc.ReleaseJob()
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	resume := k.opts.ContinueTraining && k.trainer != nil && k.trainer.Seeded()
	if resume && k.trainer.Dim() != dim {
		return math.NaN(), &ErrDimensionMismatch{Expected: k.trainer.Dim(), Actual: dim}
	}

	m := kmeans.NewMatrix(points, k.opts.Metric == distance.Cosine)

	if !resume {
		// Reset the stream so each fresh training round reproduces.
		k.rng = rand.New(rand.NewSource(k.seed))

		tr := kmeans.NewTrainer(kmeans.Config{
			NumClusters: k.numClusters,
			Cosine:      k.opts.Metric == distance.Cosine,
			Retries:     k.opts.PlusPlusRetries,
			Tolerance:   k.opts.RelativeTolerance,
		}, k.rng)

		strategy := kmeans.InitRandom
		if k.opts.InitStrategy == InitKMeansPlusPlus {
			strategy = kmeans.InitPlusPlus
		}

		if err := tr.Seed(ctx, m, strategy); err != nil {
			return math.NaN(), translateSeedError(err, len(points), k.numClusters)
		}
		k.trainer = tr
	}

	if k.opts.UseMiniBatch {
		if err := k.trainer.RunMiniBatch(ctx, m, steps, k.opts.BatchSize); err != nil {
			return math.NaN(), err
		}
		return k.trainer.Objective(), nil
	}

	return k.trainer.Run(ctx, m, steps)
}

// Clusters returns a copy of the current cluster centers.
func (k *KMeans) Clusters() ([][]float32, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.trainer == nil || !k.trainer.Seeded() {
		return nil, ErrNotFitted
	}
	return k.trainer.Centers(), nil
}

// Predict assigns each point to the index of its nearest center.
func (k *KMeans) Predict(ctx context.Context, points [][]float32) ([]int, error) {
	start := time.Now()

	clusters, _, err := k.assign(ctx, points)

	k.opts.Metrics.RecordPredict(len(points), time.Since(start), err)
	k.logger.LogPredict(ctx, len(points), err)
	return clusters, err
}

// Score returns the clustering objective on points: the summed distance
// from every point to its nearest center under the configured metric.
// Lower is better.
func (k *KMeans) Score(ctx context.Context, points [][]float32) (float64, error) {
	start := time.Now()

	_, dists, err := k.assign(ctx, points)

	var sum float64
	for _, d := range dists {
		sum += float64(d)
	}

	k.opts.Metrics.RecordScore(len(points), time.Since(start), err)
	k.logger.LogScore(ctx, len(points), sum, err)
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// Transform maps every point to its vector of distances to all centers,
// one row of NumClusters distances per point.
func (k *KMeans) Transform(ctx context.Context, points [][]float32) ([][]float32, error) {
	start := time.Now()

	out, err := k.transform(ctx, points)

	k.opts.Metrics.RecordTransform(len(points), time.Since(start), err)
	k.logger.LogTransform(ctx, len(points), err)
	return out, err
}

func (k *KMeans) transform(ctx context.Context, points [][]float32) ([][]float32, error) {
	dim, err := pointsDim(points)
	if err != nil {
		return nil, err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.trainer == nil || !k.trainer.Seeded() {
		return nil, ErrNotFitted
	}
	if k.trainer.Dim() != dim {
		return nil, &ErrDimensionMismatch{Expected: k.trainer.Dim(), Actual: dim}
	}

	m := kmeans.NewMatrix(points, k.opts.Metric == distance.Cosine)
	return k.trainer.Transform(ctx, m)
}

// assign validates points and maps them onto the current centers.
func (k *KMeans) assign(ctx context.Context, points [][]float32) ([]int, []float32, error) {
	dim, err := pointsDim(points)
	if err != nil {
		return nil, nil, err
	}

	k.mu.RLock()
	if k.trainer == nil || !k.trainer.Seeded() {
		k.mu.RUnlock()
		return nil, nil, ErrNotFitted
	}
	if k.trainer.Dim() != dim {
		expected := k.trainer.Dim()
		k.mu.RUnlock()
		return nil, nil, &ErrDimensionMismatch{Expected: expected, Actual: dim}
	}
	centers := k.trainer.Centers()
	k.mu.RUnlock()

	return kmeans.Assign(ctx, points, centers, k.opts.Metric, k.opts.Parallelism)
}

// pointsDim validates that points form a non-empty rectangular batch
// and returns the shared dimensionality.
func pointsDim(points [][]float32) (int, error) {
	if len(points) == 0 {
		return 0, ErrEmptyInput
	}

	dim := len(points[0])
	if dim == 0 {
		return 0, &ErrInvalidDimension{Dimension: 0}
	}
	for _, p := range points {
		if len(p) != dim {
			return 0, &ErrDimensionMismatch{Expected: dim, Actual: len(p)}
		}
	}
	return dim, nil
}
