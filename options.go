package clustergo

import (
	"github.com/hupe1980/clustergo/distance"
	"github.com/hupe1980/clustergo/resource"
)

// InitStrategy selects how initial cluster centers are seeded.
type InitStrategy int

const (
	// InitRandom seeds centers by sampling distinct input points
	// uniformly at random. Requires at least as many points as clusters.
	InitRandom InitStrategy = iota

	// InitKMeansPlusPlus seeds centers with D^2-weighted sampling
	// (k-means++). Slower to seed than InitRandom but typically needs
	// far fewer refinement steps to converge.
	InitKMeansPlusPlus
)

func (s InitStrategy) String() string {
	switch s {
	case InitRandom:
		return "Random"
	case InitKMeansPlusPlus:
		return "KMeansPlusPlus"
	default:
		return "Unknown"
	}
}

// Options contains configuration options for the estimator.
type Options struct {
	// InitStrategy selects how initial centers are seeded.
	InitStrategy InitStrategy

	// Metric is the distance used for assignment, scoring and the
	// distance transform. Under distance.Cosine inputs are compared by
	// direction only and trained centers are kept L2-normalized.
	Metric distance.Metric

	// UseMiniBatch switches refinement from full-batch Lloyd iterations
	// to mini-batch running-mean updates. Cheaper per step and suited
	// to inputs that do not fit a full pass per step.
	UseMiniBatch bool

	// BatchSize is the number of points sampled per mini-batch step.
	// Only used with UseMiniBatch; values < 1 fall back to the default,
	// and values larger than the input clamp to a full batch.
	BatchSize int

	// Steps is the refinement budget used when Fit is called with a
	// negative step count.
	Steps int

	// ContinueTraining resumes refinement from the current centers on
	// subsequent Fit calls instead of reseeding. Mini-batch update
	// counts carry over, so long-lived centers keep their inertia.
	ContinueTraining bool

	// RandomSeed makes seeding and mini-batch sampling deterministic.
	// Zero seeds from the clock.
	RandomSeed int64

	// PlusPlusRetries is the number of extra candidate centers
	// evaluated per k-means++ draw; the candidate with the lowest
	// resulting potential wins. Negative values derive the count from
	// the number of clusters.
	PlusPlusRetries int

	// RelativeTolerance stops full-batch refinement early once the
	// relative improvement of the clustering objective falls below it.
	// Zero or negative runs the full step budget.
	RelativeTolerance float64

	// Parallelism bounds the number of concurrent workers used for
	// assignment during Predict and Score. Values < 1 use GOMAXPROCS.
	Parallelism int

	// Resources optionally shares a resource controller across
	// estimators: training acquires a job slot and snapshot IO is
	// rate-limited through it. Nil disables resource governance.
	Resources *resource.Controller

	// Logger receives structured training and inference logs.
	// Nil discards all output.
	Logger *Logger

	// Metrics collects per-operation metrics.
	// Nil disables collection.
	Metrics MetricsCollector
}

// DefaultOptions contains the default configuration options for the
// estimator.
var DefaultOptions = Options{
	InitStrategy:    InitRandom,
	Metric:          distance.SquaredEuclidean,
	BatchSize:       1024,
	Steps:           100,
	PlusPlusRetries: 2,
}
