package clustergo_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/hupe1980/clustergo"
	"github.com/hupe1980/clustergo/blobstore"
	"github.com/hupe1980/clustergo/dataset"
	"github.com/hupe1980/clustergo/distance"
)

// Example demonstrates fitting a model and assigning new points.
func Example() {
	points := [][]float32{
		{1, 1}, {1.2, 0.9},
		{10, 10}, {10.2, 9.8},
	}

	km, err := clustergo.New(2, func(o *clustergo.Options) {
		o.RandomSeed = 42
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := km.Fit(ctx, points, 10); err != nil {
		log.Fatal(err)
	}

	// Probes near the two groups land in different clusters.
	assign, err := km.Predict(ctx, [][]float32{{0.9, 1.1}, {9.9, 10.1}})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(assign[0] != assign[1])
	// Output: true
}

// Example_cosineDistance clusters points by direction instead of
// magnitude.
func Example_cosineDistance() {
	// Two lines through the origin: y=x and y=1.5x.
	points := [][]float32{{9, 9}, {0.5, 0.5}, {10, 15}, {0.4, 0.6}}

	km, err := clustergo.New(2, func(o *clustergo.Options) {
		o.Metric = distance.Cosine
		o.InitStrategy = clustergo.InitKMeansPlusPlus
		o.RandomSeed = 12
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := km.Fit(context.Background(), points, 30); err != nil {
		log.Fatal(err)
	}

	clusters, err := km.Clusters()
	if err != nil {
		log.Fatal(err)
	}

	// Cluster order depends on the seed; sort for stable output.
	slices.SortFunc(clusters, func(a, b []float32) int {
		switch {
		case a[0] < b[0]:
			return -1
		case a[0] > b[0]:
			return 1
		default:
			return 0
		}
	})
	for _, c := range clusters {
		fmt.Printf("[%.2f %.2f]\n", c[0], c[1])
	}
	// Output:
	// [0.55 0.83]
	// [0.71 0.71]
}

// Example_snapshot persists a fitted model to a blob store and restores
// it.
func Example_snapshot() {
	points := [][]float32{
		{1, 1}, {1.2, 0.9},
		{10, 10}, {10.2, 9.8},
	}

	km, err := clustergo.New(2, func(o *clustergo.Options) {
		o.RandomSeed = 42
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := km.Fit(ctx, points, 10); err != nil {
		log.Fatal(err)
	}

	store := blobstore.NewMemoryStore()
	if err := km.SaveTo(ctx, store, "model.ckpt", nil); err != nil {
		log.Fatal(err)
	}

	restored, err := clustergo.LoadFrom(ctx, store, "model.ckpt")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(restored.NumClusters(), restored.Dimension(), restored.Fitted())
	// Output: 2 2 true
}

// Example_fitMatrix trains from a memory-mapped point matrix without
// loading it into the heap.
func Example_fitMatrix() {
	dir, err := os.MkdirTemp("", "clustergo-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "points.cgm")
	w, err := dataset.CreateMatrix(path, 4, 2)
	if err != nil {
		log.Fatal(err)
	}
	for _, row := range [][]float32{{1, 1}, {1.2, 0.9}, {10, 10}, {10.2, 9.8}} {
		if err := w.WriteRow(row); err != nil {
			log.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		log.Fatal(err)
	}

	m, err := dataset.OpenMatrix(path)
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	km, err := clustergo.New(2, func(o *clustergo.Options) {
		o.RandomSeed = 42
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := km.FitMatrix(context.Background(), m, 10); err != nil {
		log.Fatal(err)
	}

	fmt.Println(m.Rows(), m.Dim(), km.Fitted())
	// Output: 4 2 true
}
