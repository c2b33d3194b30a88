// Package clustergo provides a high-performance k-means clustering library for Go.
//
// Clustergo trains k-means models on batches of float32 points and then
// assigns, scores and transforms new points against the learned centers.
// Training runs Lloyd iterations over the full input or stochastic
// mini-batch updates, seeded either by uniform random sampling or by
// k-means++.
//
// # Quick Start
//
//	ctx := context.Background()
//	km, _ := clustergo.New(5, func(o *clustergo.Options) {
//		o.RandomSeed = 42
//	})
//	_ = km.Fit(ctx, points, 20)
//
//	assignments, _ := km.Predict(ctx, probes)
//	score, _ := km.Score(ctx, probes)
//	centers, _ := km.Clusters()
//
// # Distance Metrics
//
// Two metrics are supported. The default is squared Euclidean distance;
// cosine distance turns training into spherical k-means, where inputs are
// L2-normalized and centers are kept on the unit sphere:
//
//	km, _ := clustergo.New(2, func(o *clustergo.Options) {
//		o.Metric = distance.Cosine
//		o.InitStrategy = clustergo.InitKMeansPlusPlus
//	})
//
// # Mini-Batch Training
//
// Full-batch Lloyd iterations touch every point once per step. For large
// inputs, mini-batch mode updates centers from a random sample per step
// using per-center learning rates:
//
//	km, _ := clustergo.New(100, func(o *clustergo.Options) {
//		o.UseMiniBatch = true
//		o.BatchSize = 4096
//	})
//
// # Resuming Training
//
// By default every Fit call starts from fresh centers. With
// ContinueTraining, a second Fit resumes from the current centers so
// models can be refined incrementally:
//
//	km, _ := clustergo.New(5, func(o *clustergo.Options) {
//		o.ContinueTraining = true
//	})
//	_ = km.Fit(ctx, points, 10)
//	_ = km.Fit(ctx, morePoints, 10) // resumes, does not reseed
//
// # Snapshots
//
// Fitted models serialize to a compressed, checksummed envelope. Snapshots
// round-trip through any io.Writer/io.Reader or through a blobstore.Store
// (local directory, in-memory, S3, MinIO):
//
//	store := blobstore.NewLocalStore("./models")
//	_ = km.SaveTo(ctx, store, "model.ckpt", codec.Zstd{})
//	restored, _ := clustergo.LoadFrom(ctx, store, "model.ckpt")
//
// # Large Datasets
//
// Points can be streamed into a memory-mapped matrix file once and then
// fitted without loading the dataset onto the heap:
//
//	m, _ := dataset.OpenMatrix("embeddings.mat")
//	defer m.Close()
//	_ = km.FitMatrix(ctx, m, 20)
package clustergo
