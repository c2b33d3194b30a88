package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses payloads with LZ4 block compression. Fastest option,
// preferred when snapshots are written frequently.
type LZ4 struct{}

// lz4Header prefixes every LZ4 payload:
//
//	[UncompressedSize uint32][CompressedSize uint32]
//
// CompressedSize == 0 means the block is stored verbatim because
// compression would not have shrunk it.
const lz4HeaderSize = 8

// Name implements Codec.
func (LZ4) Name() string { return "lz4" }

// Compress implements Codec.
func (LZ4) Compress(src []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(src))
	dst := make([]byte, lz4HeaderSize+bound)

	n, err := lz4.CompressBlock(src, dst[lz4HeaderSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	binary.LittleEndian.PutUint32(dst[0:4], uint32(len(src)))

	// Incompressible input: store verbatim.
	if n == 0 || n >= len(src) {
		binary.LittleEndian.PutUint32(dst[4:8], 0)
		dst = append(dst[:lz4HeaderSize], src...)
		return dst, nil
	}

	binary.LittleEndian.PutUint32(dst[4:8], uint32(n))
	return dst[:lz4HeaderSize+n], nil
}

// Decompress implements Codec.
func (LZ4) Decompress(src []byte) ([]byte, error) {
	if len(src) < lz4HeaderSize {
		return nil, fmt.Errorf("lz4 decompress: truncated header (%d bytes)", len(src))
	}

	uncompressedSize := binary.LittleEndian.Uint32(src[0:4])
	compressedSize := binary.LittleEndian.Uint32(src[4:8])
	body := src[lz4HeaderSize:]

	// Verbatim block.
	if compressedSize == 0 {
		if uint32(len(body)) != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompress: verbatim block size mismatch (header %d, body %d)", uncompressedSize, len(body))
		}
		out := make([]byte, uncompressedSize)
		copy(out, body)
		return out, nil
	}

	if uint32(len(body)) != compressedSize {
		return nil, fmt.Errorf("lz4 decompress: block size mismatch (header %d, body %d)", compressedSize, len(body))
	}

	out := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if uint32(n) != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: unexpected output size (header %d, got %d)", uncompressedSize, n)
	}

	return out, nil
}
