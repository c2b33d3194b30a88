// Package hash provides hardware-accelerated hashing for data integrity.
//
// All checksums in this module use CRC32-Castagnoli (CRC32C), which is
// hardware accelerated on x86 (SSE4.2) and ARM (CRC extension) and is
// the same polynomial S3 uses for object integrity, so snapshot
// checksums and upload checksums share one implementation.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
