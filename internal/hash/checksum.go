// Package hash computes the xxHash64 digests that protect measurement wire
// frames.
package hash

import "github.com/cespare/xxhash/v2"

// Checksum returns the xxHash64 digest of a frame's header and stored payload.
// The header is hashed first so a frame whose header was swapped onto a
// different payload fails verification.
func Checksum(header, payload []byte) uint64 {
	d := xxhash.New()
	_, _ = d.Write(header)
	_, _ = d.Write(payload)

	return d.Sum64()
}

// Sum returns the xxHash64 digest of data.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
