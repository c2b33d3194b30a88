package dataset

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/hupe1980/clustergo/internal/conv"
	"github.com/hupe1980/clustergo/internal/hash"
)

// MatrixWriter streams rows into a new matrix file.
//
// Rows are staged under a temporary name; Close patches the checksum
// into the header and renames the file into place, so a crash mid-write
// never leaves a readable half-matrix behind.
type MatrixWriter struct {
	f       *os.File
	bw      *bufio.Writer
	crc     uint32
	path    string
	rows    int
	dim     int
	written int
	scratch []byte
	closed  bool
}

// CreateMatrix creates a matrix file for the given shape at path.
// Every one of the declared rows must be written before Close.
func CreateMatrix(path string, rows, dim int) (*MatrixWriter, error) {
	if rows < 0 {
		return nil, fmt.Errorf("dataset: negative row count %d", rows)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("dataset: invalid dimension %d", dim)
	}

	rows64, err := conv.IntToUint64(rows)
	if err != nil {
		return nil, fmt.Errorf("dataset: %v", err)
	}
	dim32, err := conv.IntToUint32(dim)
	if err != nil {
		return nil, fmt.Errorf("dataset: %v", err)
	}
	if rows > (math.MaxInt-headerSize)/4/dim {
		return nil, fmt.Errorf("dataset: matrix of %dx%d overflows file size", rows, dim)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, err
	}

	w := &MatrixWriter{
		f:       f,
		bw:      bufio.NewWriterSize(f, 1<<20),
		path:    path,
		rows:    rows,
		dim:     dim,
		scratch: make([]byte, dim*4),
	}

	// Header with a zero checksum placeholder; Close patches it.
	var hdr [headerSize]byte
	copy(hdr[0:4], matrixMagic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], matrixFormatVersion)
	binary.LittleEndian.PutUint64(hdr[8:16], rows64)
	binary.LittleEndian.PutUint32(hdr[16:20], dim32)
	if _, err := w.bw.Write(hdr[:]); err != nil {
		w.discard()
		return nil, err
	}

	return w, nil
}

// WriteRow appends one point. The row length must match the declared
// dimension.
func (w *MatrixWriter) WriteRow(row []float32) error {
	if w.closed {
		return fmt.Errorf("dataset: writer is closed")
	}
	if len(row) != w.dim {
		return fmt.Errorf("dataset: row has %d values, want %d", len(row), w.dim)
	}
	if w.written >= w.rows {
		return fmt.Errorf("dataset: all %d rows already written", w.rows)
	}

	for i, v := range row {
		binary.LittleEndian.PutUint32(w.scratch[i*4:], math.Float32bits(v))
	}
	w.crc = hash.Update(w.crc, w.scratch)
	if _, err := w.bw.Write(w.scratch); err != nil {
		w.discard()
		return err
	}

	w.written++
	return nil
}

// Close flushes the data, patches the checksum and publishes the file.
// Closing twice is a no-op.
func (w *MatrixWriter) Close() error {
	if w.closed {
		return nil
	}

	if w.written != w.rows {
		w.discard()
		return fmt.Errorf("dataset: wrote %d of %d declared rows", w.written, w.rows)
	}

	if err := w.bw.Flush(); err != nil {
		w.discard()
		return err
	}

	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], w.crc)
	if _, err := w.f.WriteAt(sum[:], 20); err != nil {
		w.discard()
		return err
	}

	if err := w.f.Sync(); err != nil {
		w.discard()
		return err
	}

	w.closed = true
	tmp := w.f.Name()
	if err := w.f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Abort drops the staged file without publishing it.
func (w *MatrixWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.discard()
	return nil
}

func (w *MatrixWriter) discard() {
	w.closed = true
	name := w.f.Name()
	_ = w.f.Close()
	_ = os.Remove(name)
}
