package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/hupe1980/clustergo/internal/conv"
	"github.com/hupe1980/clustergo/internal/hash"
	"github.com/hupe1980/clustergo/internal/mmap"
)

var (
	matrixMagic         = [4]byte{'C', 'G', 'M', '1'}
	matrixFormatVersion = uint16(1)
)

// Matrix file layout:
//
//	[0:4]   magic
//	[4:6]   format version
//	[6:8]   reserved
//	[8:16]  row count
//	[16:20] dimension
//	[20:24] CRC32C of the data section
//	[24:]   row-major float32 data (little-endian)
//
// headerSize is a multiple of 4 so the data section stays aligned for
// the zero-copy float32 view.
const headerSize = 24

var (
	// ErrFormat is returned when a file is not a matrix file or has
	// inconsistent header fields.
	ErrFormat = errors.New("dataset: not a matrix file")
	// ErrVersion is returned when the format version is unsupported.
	ErrVersion = errors.New("dataset: unsupported format version")
	// ErrTruncated is returned when the file is shorter than its
	// header claims.
	ErrTruncated = errors.New("dataset: truncated matrix file")
	// ErrChecksum is returned by Verify when the data section does not
	// match the stored checksum.
	ErrChecksum = errors.New("dataset: checksum mismatch")
)

// Matrix is a read-only, memory-mapped float32 point matrix.
//
// All accessors are safe for concurrent use. Row slices alias the
// mapping and become invalid once Close is called.
type Matrix struct {
	rows int
	dim  int
	crc  uint32
	data []float32 // zero-copy view into the mapping
	m    *mmap.Mapping
}

// OpenMatrix maps the matrix file at path.
// The returned Matrix must be closed when no longer needed.
func OpenMatrix(path string) (*Matrix, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open mmap: %w", err)
	}

	mat, err := parseMatrix(m)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	// Training passes walk rows front to back.
	_ = m.Advise(mmap.AccessSequential)

	return mat, nil
}

func parseMatrix(m *mmap.Mapping) (*Matrix, error) {
	if m.Size() < headerSize {
		return nil, ErrTruncated
	}

	b := m.Bytes()
	if [4]byte(b[0:4]) != matrixMagic {
		return nil, ErrFormat
	}
	if v := binary.LittleEndian.Uint16(b[4:6]); v != matrixFormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	rows, err := conv.Uint64ToInt(binary.LittleEndian.Uint64(b[8:16]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	dim, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(b[16:20]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	crc := binary.LittleEndian.Uint32(b[20:24])

	if rows > 0 && dim == 0 {
		return nil, fmt.Errorf("%w: zero dimension", ErrFormat)
	}
	if dim > 0 && rows > (math.MaxInt-headerSize)/4/dim {
		return nil, fmt.Errorf("%w: dimensions overflow", ErrFormat)
	}
	if m.Size() < headerSize+rows*dim*4 {
		return nil, ErrTruncated
	}

	mat := &Matrix{
		rows: rows,
		dim:  dim,
		crc:  crc,
		m:    m,
	}

	if rows > 0 {
		// headerSize keeps the section 4-byte aligned, so the float32
		// view is safe on every supported platform.
		mat.data = unsafe.Slice((*float32)(unsafe.Pointer(&b[headerSize])), rows*dim) //nolint:gosec // zero-copy mmap access
	}

	return mat, nil
}

// Close unmaps the file. Row slices handed out before Close must no
// longer be used.
func (m *Matrix) Close() error {
	return m.m.Close()
}

// Rows returns the number of points.
func (m *Matrix) Rows() int {
	return m.rows
}

// Dim returns the point dimensionality.
func (m *Matrix) Dim() int {
	return m.dim
}

// Row returns point i as a slice aliasing the mapping; do not modify.
func (m *Matrix) Row(i int) []float32 {
	start := i * m.dim
	end := start + m.dim
	return m.data[start:end:end]
}

// Views returns one row view per point. The views alias the mapping,
// so only the slice headers are allocated.
func (m *Matrix) Views() [][]float32 {
	views := make([][]float32, m.rows)
	for i := range views {
		views[i] = m.Row(i)
	}
	return views
}

// Verify recomputes the data checksum and compares it to the header.
// It touches every page of the mapping, so call it when integrity
// matters more than first-access latency.
func (m *Matrix) Verify() error {
	b := m.m.Bytes()
	if b == nil {
		return mmap.ErrClosed
	}

	if sum := hash.CRC32C(b[headerSize : headerSize+m.rows*m.dim*4]); sum != m.crc {
		return fmt.Errorf("%w: got %08x, want %08x", ErrChecksum, sum, m.crc)
	}
	return nil
}
