// Package codec centralizes model snapshot compression.
//
// Codec selection is a breaking-change boundary: snapshots written with
// one codec decode only with the same codec, which is why snapshot
// headers store the codec name.
package codec

// Codec compresses and decompresses byte payloads.
// Implementations must be safe for concurrent use.
type Codec interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	Name() string
}

// Default is the codec used when none is specified.
var Default Codec = Zstd{}

// ByName returns a built-in codec by its stable name.
//
// This is used by self-describing persistence formats that store the
// codec name in their header.
func ByName(name string) (Codec, bool) {
	switch name {
	case "none":
		return None{}, true
	case "lz4":
		return LZ4{}, true
	case "zstd":
		return Zstd{}, true
	default:
		return nil, false
	}
}

// None stores payloads uncompressed.
type None struct{}

// Name implements Codec.
func (None) Name() string { return "none" }

// Compress implements Codec.
func (None) Compress(src []byte) ([]byte, error) { return src, nil }

// Decompress implements Codec.
func (None) Decompress(src []byte) ([]byte, error) { return src, nil }
