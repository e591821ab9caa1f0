// Package hash is the target function exposed by cmd/hash-adapter.
package hash

import "github.com/cespare/xxhash/v2"

// Sum returns the 32-bit hash of input salted with seed. It is the low 32
// bits of XXH64 seeded with the seed's unsigned value, so equal inputs and
// seeds always produce the same result across processes.
func Sum(input []byte, seed int32) int32 {
	d := xxhash.NewWithSeed(uint64(uint32(seed)))
	_, _ = d.Write(input)
	return int32(d.Sum64())
}
