package canon

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// HashSize is the width of a Blake3 digest used throughout the system:
// content addressing (blob store) and state-hash convergence (event
// store, anti-entropy).
const HashSize = 32

// Hash is a 32-byte Blake3 digest.
type Hash [HashSize]byte

// String renders the hash as URL-safe base64 for logs and JSON.
func (h Hash) String() string {
	return EncodeBytes(h[:])
}

// Hex renders the hash as lowercase hex, the filename form used by the
// blob store's on-disk layout.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// Sum computes the Blake3 digest of data.
func Sum(data []byte) Hash {
	var h Hash
	sum := blake3.Sum256(data)
	copy(h[:], sum[:])
	return h
}

// DecodeHash parses a base64 hash string produced by Hash.String.
func DecodeHash(s string) (Hash, error) {
	var h Hash
	b, err := DecodeFixed(s, HashSize)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}
