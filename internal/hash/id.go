// Package hash provides the cache key used to deduplicate compressed
// fill-value buffers when a lazy super-chunk is materialised into an eager
// one (schunk.LazySChunk.ToSChunk).
//
// Every Fill(value, n) slot with the same value and element count compresses
// to the same bytes, so LazySChunk.ToSChunk compresses each distinct
// (value, n) pair exactly once and reuses the result. xxHash64 gives a
// cheap, collision-resistant key for that cache without hashing the
// (potentially large) decompressed buffer it would otherwise take to
// compare slots for equality.
package hash

import "github.com/cespare/xxhash/v2"

// FillKey returns a cache key for a fill-value slot, combining the raw bytes
// of the fill value with its element count so that slots with the same
// value but differing length (only the final chunk may differ) hash
// differently.
func FillKey(valueBytes []byte, n int) uint64 {
	d := xxhash.New()
	_, _ = d.Write(valueBytes)

	var lenBuf [8]byte
	lenBuf[0] = byte(n)
	lenBuf[1] = byte(n >> 8)
	lenBuf[2] = byte(n >> 16)
	lenBuf[3] = byte(n >> 24)
	lenBuf[4] = byte(n >> 32)
	lenBuf[5] = byte(n >> 40)
	lenBuf[6] = byte(n >> 48)
	lenBuf[7] = byte(n >> 56)
	_, _ = d.Write(lenBuf[:])

	return d.Sum64()
}
