// Package kmeans implements the clustering core: center seeding,
// full-batch Lloyd refinement and mini-batch running-mean refinement.
//
// Used internally by the estimator in the module root. Training math
// runs in float64 through gonum BLAS level 2/3 kernels so that the
// point-to-center distances collapse into one GEMM per iteration;
// inference helpers operate directly on float32 rows.
package kmeans
