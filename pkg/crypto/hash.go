// Package crypto provides the hash primitive used to build merkle trees.
package crypto

import (
	"github.com/Klingon-tech/klingnet-merkle/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashConcat hashes the concatenation of two hashes.
// Used for building merkle trees.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [2 * types.HashSize]byte
	copy(buf[:types.HashSize], a[:])
	copy(buf[types.HashSize:], b[:])
	return Hash(buf[:])
}

// Verify reports whether msg hashes to digest.
func Verify(msg []byte, digest types.Hash) bool {
	return Hash(msg) == digest
}
