// Package signing provides Ed25519 key generation, signing, and strict
// verification over the canonical encoding from package event/canon.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
)

// ErrInvalidSignature is a sentinel for callers that need an error value
// for a failed Verify (for composing with %w); nothing in this package
// returns it.
var ErrInvalidSignature = errors.New("signing: invalid signature")

// SigningKey holds an Ed25519 private key capable of producing Signed
// envelopes.
type SigningKey struct {
	priv ed25519.PrivateKey
}

// Generate creates a new signing key from a cryptographically secure RNG.
func Generate() (SigningKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SigningKey{}, err
	}
	return SigningKey{priv: priv}, nil
}

// FromBytes loads a signing key from its raw 32-byte seed.
func FromBytes(seed []byte) (SigningKey, error) {
	if len(seed) != ed25519.SeedSize {
		return SigningKey{}, canon.ErrKeyLength
	}
	return SigningKey{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// Seed returns the raw 32-byte seed for persistence.
func (k SigningKey) Seed() []byte {
	return k.priv.Seed()
}

// VerifyingKey returns the public counterpart of this signing key.
func (k SigningKey) VerifyingKey() event.VerifyingKey {
	var vk event.VerifyingKey
	copy(vk[:], k.priv.Public().(ed25519.PublicKey))
	return vk
}

// Sign canonical-encodes inner, signs it with this key, and returns the
// resulting envelope. The verifying key embedded in the envelope is this
// key's own public half — self-authorship is what the §3 invariants
// assume.
func (k SigningKey) Sign(inner event.Event) event.Signed {
	payload := event.Encode(inner)
	sig := ed25519.Sign(k.priv, payload)
	s := event.Signed{Inner: inner, VerifyingKey: k.VerifyingKey()}
	copy(s.Signature[:], sig)
	return s
}

// Verify canonical-encodes s.Inner and verifies it against s.VerifyingKey
// with crypto/ed25519.Verify, which rejects signatures whose S scalar is
// not canonically reduced. It does not separately reject small-order
// (small-subgroup) verifying keys.
func Verify(s event.Signed) bool {
	payload := event.Encode(s.Inner)
	return ed25519.Verify(ed25519.PublicKey(s.VerifyingKey[:]), payload, s.Signature[:])
}
