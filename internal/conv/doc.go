// Package conv provides safe integer type conversion utilities.
//
// These functions perform bounds checking to prevent overflow and
// underflow when converting between signed/unsigned and different
// bit-width integer types.
//
// Use cases:
//   - Validating untrusted data from disk (matrix headers, snapshot
//     envelopes: row counts, dimensions, offsets)
//   - Converting between Go's int (platform-dependent) and the
//     fixed-width types used on the wire
//
// For conversions that are provably safe by domain constraints (loop
// indices, bounded counters), use direct casts instead.
package conv
