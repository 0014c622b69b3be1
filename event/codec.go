package event

import "github.com/nicolaschan/baybridge/canon"

// Encode produces the canonical binary encoding of an Event: a tag byte
// (KindSet = 0, KindDelete = 1) followed by the inner fields. This is the
// format in §4.1: deterministic, length-prefixed variable fields,
// little-endian fixed-width integers, and a 0/1 presence byte ahead of
// optional 64-bit fields. The format is frozen — do not reorder or resize
// any field below.
func Encode(e Event) []byte {
	w := canon.NewWriter()
	switch v := e.(type) {
	case SetEvent:
		w.WriteByte(byte(KindSet))
		w.WriteBytes([]byte(v.Name))
		w.WriteBytes(v.Value)
		w.WriteUint64(uint64(v.Priority))
		w.WriteOptionalUint64(v.ExpiresAt)
	case DeletionEvent:
		w.WriteByte(byte(KindDelete))
		w.WriteBytes([]byte(v.Name))
		w.WriteUint64(uint64(v.Priority))
	default:
		panic("event: unknown Event implementation")
	}
	return w.Bytes()
}

// Decode parses the canonical binary encoding produced by Encode.
func Decode(data []byte) (Event, error) {
	r := canon.NewReader(data)
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch Kind(tag) {
	case KindSet:
		name, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		value, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		priority, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		expiresAt, err := r.ReadOptionalUint64()
		if err != nil {
			return nil, err
		}
		if !r.Done() {
			return nil, canon.ErrBadEncoding
		}
		return SetEvent{
			Name:      Name(name),
			Value:     append(Value(nil), value...),
			Priority:  Priority(priority),
			ExpiresAt: expiresAt,
		}, nil
	case KindDelete:
		name, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		priority, err := r.ReadUint64()
		if err != nil {
			return nil, err
		}
		if !r.Done() {
			return nil, canon.ErrBadEncoding
		}
		return DeletionEvent{
			Name:     Name(name),
			Priority: Priority(priority),
		}, nil
	default:
		return nil, canon.ErrBadEncoding
	}
}
