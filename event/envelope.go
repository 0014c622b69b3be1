package event

import (
	"crypto/ed25519"
	"encoding/json"

	"github.com/nicolaschan/baybridge/canon"
)

// VerifyingKeySize is the width of an Ed25519 public key.
const VerifyingKeySize = ed25519.PublicKeySize // 32

// SignatureSize is the width of an Ed25519 signature.
const SignatureSize = ed25519.SignatureSize // 64

// VerifyingKey identifies a principal: a 32-byte Ed25519 public key.
type VerifyingKey [VerifyingKeySize]byte

// String renders the key as URL-safe base64 for text contexts.
func (k VerifyingKey) String() string {
	return canon.EncodeBytes(k[:])
}

// ParseVerifyingKey decodes a base64 verifying key, rejecting malformed or
// wrong-length input.
func ParseVerifyingKey(s string) (VerifyingKey, error) {
	var k VerifyingKey
	b, err := canon.DecodeFixed(s, VerifyingKeySize)
	if err != nil {
		return k, err
	}
	copy(k[:], b)
	return k, nil
}

// Signature is a raw 64-byte Ed25519 signature.
type Signature [SignatureSize]byte

// String renders the signature as URL-safe base64.
func (s Signature) String() string {
	return canon.EncodeBytes(s[:])
}

// ParseSignature decodes a base64 signature, rejecting malformed or
// wrong-length input.
func ParseSignature(s string) (Signature, error) {
	var sig Signature
	b, err := canon.DecodeFixed(s, SignatureSize)
	if err != nil {
		return sig, err
	}
	copy(sig[:], b)
	return sig, nil
}

// Signed wraps an Event with the verifying key and signature that
// authenticate it. The signature covers the canonical binary encoding of
// Inner only (§3); VerifyingKey and Signature are not themselves signed —
// they are how the receiver checks the signature.
//
// A Signed value is immutable once constructed: every field is plain data,
// and nothing in this package mutates one after Sign/Decode return it.
type Signed struct {
	Inner        Event
	VerifyingKey VerifyingKey
	Signature    Signature
}

// CanonicalBytes returns the deterministic byte encoding used for storage
// payloads, dedup comparison, the envelope-bytes tiebreaker, and state-hash
// input. It is NOT used as the signature input — only Inner is signed.
func (s Signed) CanonicalBytes() []byte {
	w := canon.NewWriter()
	w.WriteBytes(Encode(s.Inner))
	w.WriteFixed(s.VerifyingKey[:])
	w.WriteFixed(s.Signature[:])
	return w.Bytes()
}

// DecodeSigned parses the encoding produced by CanonicalBytes.
func DecodeSigned(data []byte) (Signed, error) {
	var s Signed
	r := canon.NewReader(data)
	innerBytes, err := r.ReadBytes()
	if err != nil {
		return s, err
	}
	inner, err := Decode(innerBytes)
	if err != nil {
		return s, err
	}
	vk, err := r.ReadFixed(VerifyingKeySize)
	if err != nil {
		return s, err
	}
	sig, err := r.ReadFixed(SignatureSize)
	if err != nil {
		return s, err
	}
	if !r.Done() {
		return s, canon.ErrBadEncoding
	}
	s.Inner = inner
	copy(s.VerifyingKey[:], vk)
	copy(s.Signature[:], sig)
	return s, nil
}

// wireSetEvent and wireDeletionEvent are the JSON shapes for the two Event
// variants; wireEvent tags which one is present the way spec §6 describes
// Signed<Event> serialising over the wire.
type wireSetEvent struct {
	Name      string  `json:"name"`
	Value     string  `json:"value"`
	Priority  uint64  `json:"priority"`
	ExpiresAt *uint64 `json:"expires_at,omitempty"`
}

type wireDeletionEvent struct {
	Name     string `json:"name"`
	Priority uint64 `json:"priority"`
}

type wireEvent struct {
	Set    *wireSetEvent      `json:"set,omitempty"`
	Delete *wireDeletionEvent `json:"delete,omitempty"`
}

type wireSigned struct {
	Inner        wireEvent `json:"inner"`
	VerifyingKey string    `json:"verifying_key"`
	Signature    string    `json:"signature"`
}

// MarshalJSON implements the §6 wire shape
// `{ inner: T, verifying_key: b64, signature: b64 }`.
func (s Signed) MarshalJSON() ([]byte, error) {
	w := wireSigned{
		VerifyingKey: canon.EncodeBytes(s.VerifyingKey[:]),
		Signature:    canon.EncodeBytes(s.Signature[:]),
	}
	switch v := s.Inner.(type) {
	case SetEvent:
		w.Inner.Set = &wireSetEvent{
			Name:      string(v.Name),
			Value:     canon.EncodeBytes(v.Value),
			Priority:  uint64(v.Priority),
			ExpiresAt: v.ExpiresAt,
		}
	case DeletionEvent:
		w.Inner.Delete = &wireDeletionEvent{
			Name:     string(v.Name),
			Priority: uint64(v.Priority),
		}
	default:
		panic("event: unknown Event implementation")
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements the inverse of MarshalJSON.
func (s *Signed) UnmarshalJSON(data []byte) error {
	var w wireSigned
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	vk, err := canon.DecodeFixed(w.VerifyingKey, VerifyingKeySize)
	if err != nil {
		return err
	}
	sig, err := canon.DecodeFixed(w.Signature, SignatureSize)
	if err != nil {
		return err
	}
	var inner Event
	switch {
	case w.Inner.Set != nil:
		value, err := canon.DecodeBytes(w.Inner.Set.Value)
		if err != nil {
			return err
		}
		inner = SetEvent{
			Name:      Name(w.Inner.Set.Name),
			Value:     value,
			Priority:  Priority(w.Inner.Set.Priority),
			ExpiresAt: w.Inner.Set.ExpiresAt,
		}
	case w.Inner.Delete != nil:
		inner = DeletionEvent{
			Name:     Name(w.Inner.Delete.Name),
			Priority: Priority(w.Inner.Delete.Priority),
		}
	default:
		return canon.ErrBadEncoding
	}
	s.Inner = inner
	copy(s.VerifyingKey[:], vk)
	copy(s.Signature[:], sig)
	return nil
}
