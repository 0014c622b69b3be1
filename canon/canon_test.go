package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReader_UintRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint64(42)
	w.WriteUint64(0)
	w.WriteUint64(^uint64(0))

	r := NewReader(w.Bytes())
	v1, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v1)

	v2, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v2)

	v3, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), v3)
	assert.True(t, r.Done())
}

func TestWriterReader_OptionalUint64(t *testing.T) {
	w := NewWriter()
	w.WriteOptionalUint64(nil)
	v := uint64(7)
	w.WriteOptionalUint64(&v)

	r := NewReader(w.Bytes())
	got1, err := r.ReadOptionalUint64()
	require.NoError(t, err)
	assert.Nil(t, got1)

	got2, err := r.ReadOptionalUint64()
	require.NoError(t, err)
	require.NotNil(t, got2)
	assert.Equal(t, uint64(7), *got2)
}

func TestWriterReader_Bytes(t *testing.T) {
	w := NewWriter()
	w.WriteBytes([]byte("hello"))
	w.WriteBytes(nil)

	r := NewReader(w.Bytes())
	b1, err := r.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b1)

	b2, err := r.ReadBytes()
	require.NoError(t, err)
	assert.Empty(t, b2)
	assert.True(t, r.Done())
}

func TestWriterReader_Fixed(t *testing.T) {
	w := NewWriter()
	w.WriteFixed([]byte{1, 2, 3, 4})

	r := NewReader(w.Bytes())
	got, err := r.ReadFixed(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)
}

func TestReader_TruncatedInputErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadUint64()
	assert.ErrorIs(t, err, ErrBadEncoding)
}

func TestReader_BadOptionalTagErrors(t *testing.T) {
	r := NewReader([]byte{7})
	_, err := r.ReadOptionalUint64()
	assert.ErrorIs(t, err, ErrBadEncoding)
}

func TestReader_TruncatedLengthPrefixedBytesErrors(t *testing.T) {
	w := NewWriter()
	w.WriteUint64(100) // claims 100 bytes follow, but none do
	r := NewReader(w.Bytes())
	_, err := r.ReadBytes()
	assert.ErrorIs(t, err, ErrBadEncoding)
}

func TestSum_Deterministic(t *testing.T) {
	h1 := Sum([]byte("same input"))
	h2 := Sum([]byte("same input"))
	assert.Equal(t, h1, h2)

	h3 := Sum([]byte("different input"))
	assert.NotEqual(t, h1, h3)
}

func TestHash_StringRoundTrip(t *testing.T) {
	h := Sum([]byte("content"))
	s := h.String()

	decoded, err := DecodeHash(s)
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestDecodeHash_WrongLength(t *testing.T) {
	_, err := DecodeHash(EncodeBytes([]byte("too short")))
	assert.ErrorIs(t, err, ErrKeyLength)
}

func TestEncodeDecodeBytes_RoundTrip(t *testing.T) {
	for _, input := range [][]byte{nil, {}, []byte("x"), []byte("a longer payload with bytes \x00\x01\xff")} {
		s := EncodeBytes(input)
		decoded, err := DecodeBytes(s)
		require.NoError(t, err)
		assert.Equal(t, input, decoded)
	}
}

func TestDecodeBytes_RejectsNonCanonicalPadding(t *testing.T) {
	// Standard padded base64 is not the URL-safe unpadded form this package
	// accepts; a trailing "=" must be rejected outright.
	_, err := DecodeBytes("aGVsbG8=")
	assert.ErrorIs(t, err, ErrBadEncoding)
}

func TestDecodeBytes_RejectsGarbage(t *testing.T) {
	_, err := DecodeBytes("not valid base64!!!")
	assert.ErrorIs(t, err, ErrBadEncoding)
}

func TestDecodeFixed_Exact(t *testing.T) {
	payload := []byte("0123456789abcdef0123456789abcdef")[:32]
	s := EncodeBytes(payload)
	got, err := DecodeFixed(s, 32)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = DecodeFixed(s, 16)
	assert.ErrorIs(t, err, ErrKeyLength)
}
