package clustergo

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"
)

// Partition is the result of carving a point set into clusters:
// per-point assignments plus one membership bitmap per cluster.
// Bitmap values index into the point slice the partition was built from.
type Partition struct {
	assignments []int
	clusters    []*roaring.Bitmap
}

// Partition assigns every point to its nearest center and groups the
// assignments into roaring membership bitmaps, one per cluster. Bitmaps
// make the downstream set operations (intersecting cluster members with
// filters, diffing two partitions) cheap without materializing index
// slices.
func (k *KMeans) Partition(ctx context.Context, points [][]float32) (*Partition, error) {
	assignments, err := k.Predict(ctx, points)
	if err != nil {
		return nil, err
	}

	clusters := make([]*roaring.Bitmap, k.numClusters)
	for i := range clusters {
		clusters[i] = roaring.New()
	}
	for i, c := range assignments {
		clusters[c].Add(uint32(i))
	}

	return &Partition{assignments: assignments, clusters: clusters}, nil
}

// NumClusters returns the number of clusters in the partition.
func (p *Partition) NumClusters() int { return len(p.clusters) }

// Assignments returns the per-point cluster indices.
func (p *Partition) Assignments() []int { return p.assignments }

// Cluster returns the membership bitmap of cluster i.
func (p *Partition) Cluster(i int) *roaring.Bitmap { return p.clusters[i] }

// Counts returns the number of points in each cluster.
func (p *Partition) Counts() []uint64 {
	counts := make([]uint64, len(p.clusters))
	for i, bm := range p.clusters {
		counts[i] = bm.GetCardinality()
	}
	return counts
}

// Largest returns the index of the most populated cluster, -1 for an
// empty partition.
func (p *Partition) Largest() int {
	best := -1
	var bestCount uint64
	for i, bm := range p.clusters {
		if c := bm.GetCardinality(); best < 0 || c > bestCount {
			best = i
			bestCount = c
		}
	}
	return best
}
