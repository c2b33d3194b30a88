package clustergo

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hupe1980/clustergo/blobstore"
	"github.com/hupe1980/clustergo/codec"
	"github.com/hupe1980/clustergo/distance"
	"github.com/hupe1980/clustergo/internal/conv"
	"github.com/hupe1980/clustergo/internal/hash"
	"github.com/hupe1980/clustergo/internal/kmeans"
	"github.com/hupe1980/clustergo/resource"
)

var (
	// ErrSnapshotFormat is returned when snapshot bytes do not form a
	// valid model envelope.
	ErrSnapshotFormat = errors.New("snapshot: unrecognized format")

	// ErrSnapshotVersion is returned when a snapshot was written by an
	// unsupported format version.
	ErrSnapshotVersion = errors.New("snapshot: unsupported format version")

	// ErrSnapshotChecksum is returned when the snapshot payload fails
	// checksum verification.
	ErrSnapshotChecksum = errors.New("snapshot: payload checksum mismatch")
)

var (
	snapshotMagic         = [4]byte{'C', 'G', 'K', '1'}
	snapshotFormatVersion = uint16(1)
)

// snapshotHeaderSize is the fixed envelope header:
//
//	[0:4]   magic
//	[4:6]   format version
//	[6:8]   codec name length
//	[8:16]  compressed payload length
//	[16:20] reserved
//	[20:24] CRC32C of the compressed payload
//
// The codec name and the compressed payload follow the header.
const snapshotHeaderSize = 24

// snapshotPayloadHeaderSize prefixes the uncompressed payload:
//
//	[0:4]  number of clusters
//	[4:8]  dimension
//	[8:10] metric
//	[10:12] reserved
//
// Per-center update counts (int64) and raw float64 centers follow.
const snapshotPayloadHeaderSize = 12

// Snapshot writes the fitted model to w as a self-describing envelope:
// centers, per-center update counts, metric and cluster count, with the
// payload compressed by c and checksummed. A nil codec uses
// codec.Default. Returns ErrNotFitted before the first successful Fit.
//
// If a resource controller is configured, the write is rate-limited
// through its IO budget.
func (k *KMeans) Snapshot(ctx context.Context, w io.Writer, c codec.Codec) error {
	if w == nil {
		return fmt.Errorf("snapshot: writer is nil")
	}
	if c == nil {
		c = codec.Default
	}

	k.mu.RLock()
	if k.trainer == nil || !k.trainer.Seeded() {
		k.mu.RUnlock()
		return ErrNotFitted
	}
	dim := k.trainer.Dim()
	centers, counts := k.trainer.State()
	k.mu.RUnlock()

	payload := encodeSnapshotPayload(k.numClusters, dim, k.opts.Metric, centers, counts)

	compressed, err := c.Compress(payload)
	if err != nil {
		return fmt.Errorf("snapshot: compress payload: %w", err)
	}

	codecName := c.Name()
	nameLen, err := conv.IntToUint32(len(codecName))
	if err != nil || nameLen > math.MaxUint16 {
		return fmt.Errorf("snapshot: codec name too long: %d", len(codecName))
	}
	payloadLen, err := conv.IntToUint64(len(compressed))
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	var hdr [snapshotHeaderSize]byte
	copy(hdr[0:4], snapshotMagic[:])
	binary.LittleEndian.PutUint16(hdr[4:6], snapshotFormatVersion)
	binary.LittleEndian.PutUint16(hdr[6:8], uint16(nameLen))
	binary.LittleEndian.PutUint64(hdr[8:16], payloadLen)
	binary.LittleEndian.PutUint32(hdr[20:24], hash.CRC32C(compressed))

	if rc := k.opts.Resources; rc != nil {
		w = resource.NewRateLimitedWriter(ctx, w, rc)
	}

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := io.WriteString(w, codecName); err != nil {
		return fmt.Errorf("snapshot: write codec name: %w", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("snapshot: write payload: %w", err)
	}
	return nil
}

// SaveTo snapshots the fitted model into store under name. The blob
// only becomes visible once the write completes; on error a partial
// upload is aborted or deleted.
func (k *KMeans) SaveTo(ctx context.Context, store blobstore.Store, name string, c codec.Codec) error {
	start := time.Now()
	err := k.saveTo(ctx, store, name, c)

	k.opts.Metrics.RecordSnapshot(time.Since(start), err)
	k.logger.LogSnapshot(ctx, name, err)
	return err
}

func (k *KMeans) saveTo(ctx context.Context, store blobstore.Store, name string, c codec.Codec) error {
	wb, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: create %q: %w", name, err)
	}

	if err := k.Snapshot(ctx, wb, c); err != nil {
		if ab, ok := wb.(interface{ Abort() error }); ok {
			_ = ab.Abort()
		} else {
			_ = wb.Close()
			_ = store.Delete(ctx, name)
		}
		return err
	}

	if err := wb.Close(); err != nil {
		return fmt.Errorf("snapshot: finalize %q: %w", name, err)
	}
	return nil
}

// Restore reads a model snapshot from r and returns a fitted estimator.
// The metric and cluster count are taken from the envelope; optFns
// configure everything else the same way New does. The codec is chosen
// by the name stored in the header.
//
// A restored estimator predicts immediately, and with ContinueTraining
// set it resumes refinement from the restored centers.
func Restore(ctx context.Context, r io.Reader, optFns ...func(o *Options)) (*KMeans, error) {
	if r == nil {
		return nil, fmt.Errorf("snapshot: reader is nil")
	}

	// Peek at the options for the IO budget before decoding; New applies
	// them again with the envelope metric folded in.
	peek := DefaultOptions
	for _, fn := range optFns {
		fn(&peek)
	}
	if rc := peek.Resources; rc != nil {
		r = resource.NewRateLimitedReader(ctx, r, rc)
	}

	numClusters, dim, metric, centers, counts, err := decodeSnapshot(r)
	if err != nil {
		return nil, err
	}

	fns := make([]func(o *Options), 0, len(optFns)+1)
	fns = append(fns, optFns...)
	fns = append(fns, func(o *Options) { o.Metric = metric })

	k, err := New(numClusters, fns...)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	tr := kmeans.NewTrainer(kmeans.Config{
		NumClusters: numClusters,
		Cosine:      metric == distance.Cosine,
		Retries:     k.opts.PlusPlusRetries,
		Tolerance:   k.opts.RelativeTolerance,
	}, k.rng)
	tr.Restore(dim, centers, counts)
	k.trainer = tr

	return k, nil
}

// LoadFrom opens the named snapshot blob in store and restores the
// model from it.
func LoadFrom(ctx context.Context, store blobstore.Store, name string, optFns ...func(o *Options)) (*KMeans, error) {
	start := time.Now()

	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %q: %w", name, err)
	}
	defer blob.Close()

	r, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %q: %w", name, err)
	}
	defer r.Close()

	k, err := Restore(ctx, r, optFns...)
	if err != nil {
		return nil, err
	}

	k.opts.Metrics.RecordSnapshot(time.Since(start), nil)
	k.logger.LogRestore(ctx, name, nil)
	return k, nil
}

func encodeSnapshotPayload(numClusters, dim int, metric distance.Metric, centers []float64, counts []int64) []byte {
	payload := make([]byte, snapshotPayloadHeaderSize+8*len(counts)+8*len(centers))

	binary.LittleEndian.PutUint32(payload[0:4], uint32(numClusters))
	binary.LittleEndian.PutUint32(payload[4:8], uint32(dim))
	binary.LittleEndian.PutUint16(payload[8:10], uint16(metric))

	off := snapshotPayloadHeaderSize
	for _, c := range counts {
		binary.LittleEndian.PutUint64(payload[off:off+8], uint64(c))
		off += 8
	}
	for _, c := range centers {
		binary.LittleEndian.PutUint64(payload[off:off+8], math.Float64bits(c))
		off += 8
	}
	return payload
}

func decodeSnapshot(r io.Reader) (numClusters, dim int, metric distance.Metric, centers []float64, counts []int64, err error) {
	fail := func(e error) (int, int, distance.Metric, []float64, []int64, error) {
		return 0, 0, 0, nil, nil, e
	}

	var hdr [snapshotHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return fail(fmt.Errorf("%w: short header", ErrSnapshotFormat))
	}
	if [4]byte(hdr[0:4]) != snapshotMagic {
		return fail(ErrSnapshotFormat)
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != snapshotFormatVersion {
		return fail(fmt.Errorf("%w: %d", ErrSnapshotVersion, v))
	}

	nameLen := int(binary.LittleEndian.Uint16(hdr[6:8]))
	payloadLen, err := conv.Uint64ToInt(binary.LittleEndian.Uint64(hdr[8:16]))
	if err != nil {
		return fail(fmt.Errorf("%w: payload length", ErrSnapshotFormat))
	}
	sum := binary.LittleEndian.Uint32(hdr[20:24])

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return fail(fmt.Errorf("%w: short codec name", ErrSnapshotFormat))
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return fail(fmt.Errorf("snapshot: unsupported codec %q", name))
	}

	compressed := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return fail(fmt.Errorf("%w: short payload", ErrSnapshotFormat))
	}
	if hash.CRC32C(compressed) != sum {
		return fail(ErrSnapshotChecksum)
	}

	payload, err := c.Decompress(compressed)
	if err != nil {
		return fail(fmt.Errorf("snapshot: decompress payload: %w", err))
	}
	if len(payload) < snapshotPayloadHeaderSize {
		return fail(fmt.Errorf("%w: truncated payload", ErrSnapshotFormat))
	}

	k32 := binary.LittleEndian.Uint32(payload[0:4])
	d32 := binary.LittleEndian.Uint32(payload[4:8])
	if k32 == 0 || d32 == 0 {
		return fail(fmt.Errorf("%w: empty model shape", ErrSnapshotFormat))
	}
	numClusters, err = conv.Uint32ToInt(k32)
	if err != nil {
		return fail(fmt.Errorf("%w: cluster count", ErrSnapshotFormat))
	}
	dim, err = conv.Uint32ToInt(d32)
	if err != nil {
		return fail(fmt.Errorf("%w: dimension", ErrSnapshotFormat))
	}
	metric = distance.Metric(binary.LittleEndian.Uint16(payload[8:10]))

	want := uint64(snapshotPayloadHeaderSize) + uint64(k32)*8 + uint64(k32)*uint64(d32)*8
	if uint64(len(payload)) != want {
		return fail(fmt.Errorf("%w: payload size", ErrSnapshotFormat))
	}

	counts = make([]int64, numClusters)
	off := snapshotPayloadHeaderSize
	for i := range counts {
		counts[i] = int64(binary.LittleEndian.Uint64(payload[off : off+8]))
		off += 8
	}
	centers = make([]float64, numClusters*dim)
	for i := range centers {
		centers[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[off : off+8]))
		off += 8
	}

	return numClusters, dim, metric, centers, counts, nil
}
