// Package canon implements the frozen canonical binary encoding shared by
// signature input, storage payloads, and state-hash computation. The format
// is deterministic, length-prefixed for variable-width fields, and
// little-endian for fixed-width integers. Once released it must never
// change shape, or hashes computed by old and new peers stop agreeing.
package canon

import (
	"encoding/binary"
	"errors"
)

// ErrBadEncoding is returned when a binary blob does not parse as the
// canonical format (truncated length prefix, trailing bytes, malformed
// base64).
var ErrBadEncoding = errors.New("canon: malformed encoding")

// ErrKeyLength is returned when a decoded fixed-width field (a verifying
// key or signature) does not have the expected length.
var ErrKeyLength = errors.New("canon: wrong key length")

// Encodable is implemented by every payload type that can be the subject of
// a signature: it must produce the exact bytes that get hashed and signed.
type Encodable interface {
	CanonicalBytes() []byte
}

// Writer accumulates a canonical binary encoding.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// WriteByte appends a single tag or flag byte.
func (w *Writer) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteUint64 appends a fixed-width little-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteOptionalUint64 encodes an optional uint64 as a presence byte
// (0 = absent, 1 = present) followed, when present, by 8 little-endian
// bytes.
func (w *Writer) WriteOptionalUint64(v *uint64) {
	if v == nil {
		w.WriteByte(0)
		return
	}
	w.WriteByte(1)
	w.WriteUint64(*v)
}

// WriteBytes appends a length-prefixed (uint64 LE) variable-length field.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint64(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteFixed appends raw bytes with no length prefix; used only for
// fixed-width fields whose length is implied by the schema (verifying keys,
// signatures, hashes).
func (w *Writer) WriteFixed(b []byte) {
	w.buf = append(w.buf, b...)
}

// Reader consumes a canonical binary encoding in order.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps data for sequential decoding.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// Remaining reports how many bytes have not yet been consumed.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Done reports whether the entire buffer has been consumed. Callers must
// check this after decoding to reject trailing garbage.
func (r *Reader) Done() bool {
	return r.pos == len(r.buf)
}

// ReadByte consumes and returns a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrBadEncoding
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadUint64 consumes 8 little-endian bytes.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, ErrBadEncoding
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

// ReadOptionalUint64 consumes the presence byte and, if present, the
// 8-byte value.
func (r *Reader) ReadOptionalUint64() (*uint64, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		v, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, ErrBadEncoding
	}
}

// ReadBytes consumes a length-prefixed variable-length field.
func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	if uint64(r.Remaining()) < n {
		return nil, ErrBadEncoding
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

// ReadFixed consumes exactly n raw bytes with no length prefix.
func (r *Reader) ReadFixed(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrBadEncoding
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
