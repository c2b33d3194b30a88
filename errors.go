package clustergo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/clustergo/internal/kmeans"
)

var (
	// ErrNotFitted is returned when inference is requested on an
	// estimator whose centers have not been initialized yet.
	ErrNotFitted = errors.New("model is not fitted")

	// ErrEmptyInput is returned when a training or inference call
	// receives no points.
	ErrEmptyInput = errors.New("no input points")

	// ErrInvalidNumClusters is returned when the requested cluster
	// count is not positive.
	ErrInvalidNumClusters = errors.New("number of clusters must be positive")

	// ErrSamplingFailed is returned when k-means++ seeding cannot draw
	// the requested number of centers from the input.
	ErrSamplingFailed = errors.New("k-means++ center sampling failed")
)

// ErrFewerPointsThanClusters indicates that random seeding was asked to
// pick more distinct centers than there are input points.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrFewerPointsThanClusters struct {
	Points   int
	Clusters int
	cause    error
}

func (e *ErrFewerPointsThanClusters) Error() string {
	return fmt.Sprintf("number of points (%d) is less than number of clusters (%d)", e.Points, e.Clusters)
}

func (e *ErrFewerPointsThanClusters) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid point dimensionality.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates a point/model dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateSeedError maps internal seeding errors onto the public
// error surface.
func translateSeedError(err error, points, clusters int) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, kmeans.ErrTooFewPoints) {
		return &ErrFewerPointsThanClusters{Points: points, Clusters: clusters, cause: err}
	}
	if errors.Is(err, kmeans.ErrSamplingFailed) {
		return fmt.Errorf("%w: %d points for %d clusters", ErrSamplingFailed, points, clusters)
	}

	return err
}
