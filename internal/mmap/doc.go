// Package mmap provides memory-mapped file access for zero-copy I/O.
//
// # Overview
//
// Memory mapping exposes file contents directly without copying data
// through read buffers. Dataset matrices and model snapshots can reach
// gigabytes, and mapping them keeps the resident cost down to the pages
// a fit or predict pass actually touches.
//
// # Usage
//
//	m, err := mmap.Open("points.f32")
//	if err != nil { ... }
//	defer m.Close()
//
//	// Zero-copy access to file contents
//	data := m.Bytes()
//
//	// Create a view into a specific region
//	region, _ := m.Region(offset, size)
//
//	// Provide kernel hints for access patterns
//	m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
// The package provides a unified API across platforms:
//
//   - Unix (Linux, macOS, BSD): Uses mmap(2) with madvise(2) for access hints
//   - Windows: Uses CreateFileMapping/MapViewOfFile (madvise is a no-op)
//
// # Thread Safety
//
// Mapping and Region are safe for concurrent read access. The Close()
// method is idempotent and protected by atomic operations. However,
// callers must ensure no goroutines access Bytes() after Close() returns.
package mmap
