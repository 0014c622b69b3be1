package canon

import "encoding/base64"

// textEncoding is URL-safe, unpadded base64 for cryptographic byte fields
// (verifying keys, signatures, hashes) in JSON and CLI contexts.
var textEncoding = base64.RawURLEncoding

// EncodeBytes renders b as URL-safe, unpadded base64.
func EncodeBytes(b []byte) string {
	return textEncoding.EncodeToString(b)
}

// DecodeBytes strictly decodes a URL-safe, unpadded base64 string,
// rejecting non-canonical input.
func DecodeBytes(s string) ([]byte, error) {
	b, err := textEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrBadEncoding
	}
	// Reject non-canonical encodings by round-tripping: an input that
	// decodes but does not re-encode to itself used a non-minimal or
	// otherwise non-canonical form.
	if textEncoding.EncodeToString(b) != s {
		return nil, ErrBadEncoding
	}
	return b, nil
}

// DecodeFixed decodes s and requires the result to be exactly n bytes.
func DecodeFixed(s string, n int) ([]byte, error) {
	b, err := DecodeBytes(s)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, ErrKeyLength
	}
	return b, nil
}
