// Package dataset provides memory-mapped float32 point matrices for
// training sets that should not be copied onto the heap.
//
// A matrix file stores row-major float32 points behind a small
// self-describing header (magic, version, row count, dimension, data
// checksum). OpenMatrix maps the file and returns zero-copy row views;
// the kernel pages data in as rows are touched, so multi-gigabyte
// training sets cost only the pages a pass actually reads.
//
// # Writing
//
//	w, err := dataset.CreateMatrix("points.f32", 1_000_000, 128)
//	if err != nil { ... }
//	for _, p := range producer {
//	    if err := w.WriteRow(p); err != nil { ... }
//	}
//	if err := w.Close(); err != nil { ... }
//
// The file is staged under a temporary name and renamed into place on
// Close, so readers never observe a half-written matrix.
//
// # Reading
//
//	m, err := dataset.OpenMatrix("points.f32")
//	if err != nil { ... }
//	defer m.Close()
//
//	err = km.FitMatrix(ctx, m, 20)
//
// Row data is interpreted in little-endian byte order. The zero-copy
// view requires a little-endian host, which covers all supported
// platforms (amd64, arm64, riscv64).
package dataset
