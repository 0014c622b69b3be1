// Package blob implements the content-addressed immutable block store
// (§4.5): a ContentBlock is identified by Blake3(canonical_encoding(block))
// and, once written, is never mutated.
package blob

import (
	"github.com/nicolaschan/baybridge/canon"
)

// ContentBlock is an opaque payload plus a list of references to other
// blocks, identified by hash. References are opaque to this package;
// walking the reference graph is the caller's concern.
type ContentBlock struct {
	Data       []byte
	References []canon.Hash
}

// CanonicalBytes encodes the block as a length-prefixed Data field
// followed by a count-prefixed list of fixed-width reference hashes.
func (b ContentBlock) CanonicalBytes() []byte {
	w := canon.NewWriter()
	w.WriteBytes(b.Data)
	w.WriteUint64(uint64(len(b.References)))
	for _, ref := range b.References {
		w.WriteFixed(ref[:])
	}
	return w.Bytes()
}

// Hash returns this block's content address.
func (b ContentBlock) Hash() canon.Hash {
	return canon.Sum(b.CanonicalBytes())
}

// DecodeContentBlock parses the encoding produced by CanonicalBytes.
func DecodeContentBlock(data []byte) (ContentBlock, error) {
	r := canon.NewReader(data)
	payload, err := r.ReadBytes()
	if err != nil {
		return ContentBlock{}, err
	}
	count, err := r.ReadUint64()
	if err != nil {
		return ContentBlock{}, err
	}
	var refs []canon.Hash
	for i := uint64(0); i < count; i++ {
		raw, err := r.ReadFixed(canon.HashSize)
		if err != nil {
			return ContentBlock{}, err
		}
		var h canon.Hash
		copy(h[:], raw)
		refs = append(refs, h)
	}
	if !r.Done() {
		return ContentBlock{}, canon.ErrBadEncoding
	}
	return ContentBlock{Data: payload, References: refs}, nil
}

var _ canon.Encodable = ContentBlock{}
