// Package event defines the signed mutation log's data model: names,
// values, the Set/Delete event sum, and the signed envelope that carries
// them between peers.
package event

import (
	"errors"

	"github.com/nicolaschan/baybridge/canon"
)

// MaxNameLength is the largest a Name may be, in UTF-8 bytes.
const MaxNameLength = 65535

// ErrNameTooLong is returned when a Name exceeds MaxNameLength.
var ErrNameTooLong = errors.New("event: name exceeds maximum length")

// Name identifies an entry inside one principal's keyspace. Two names are
// equal iff their bytes are equal; a name under one verifying key is
// unrelated to the same name under another.
type Name string

// Validate checks the length invariant.
func (n Name) Validate() error {
	if len(n) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Value is an opaque payload with no semantics imposed by the core.
type Value []byte

// Priority determines last-writer-wins precedence: higher wins.
type Priority uint64

// Kind distinguishes the two variants of the Event sum type. The numeric
// values are the wire tag bytes from the canonical encoding (§4.1) and
// must never change.
type Kind uint8

const (
	// KindSet tags a SetEvent.
	KindSet Kind = 0
	// KindDelete tags a DeletionEvent.
	KindDelete Kind = 1
)

// Event is the sum type { Set(SetEvent) | Delete(DeletionEvent) }. Both
// SetEvent and DeletionEvent implement it.
type Event interface {
	canon.Encodable

	Kind() Kind
	EventName() Name
	EventPriority() Priority
	EventExpiresAt() *uint64
	EventValue() (Value, bool)
}

// SetEvent publishes a value under a name with a priority and an optional
// expiry.
type SetEvent struct {
	Name      Name
	Value     Value
	Priority  Priority
	ExpiresAt *uint64 // Unix-epoch seconds; nil means never expires.
}

// Kind implements Event.
func (e SetEvent) Kind() Kind { return KindSet }

// EventName implements Event.
func (e SetEvent) EventName() Name { return e.Name }

// EventPriority implements Event.
func (e SetEvent) EventPriority() Priority { return e.Priority }

// EventExpiresAt implements Event.
func (e SetEvent) EventExpiresAt() *uint64 { return e.ExpiresAt }

// EventValue implements Event.
func (e SetEvent) EventValue() (Value, bool) { return e.Value, true }

// CanonicalBytes implements canon.Encodable by delegating to the tagged
// sum-type encoder, since what gets signed is always the tagged Event
// carried as a Signed envelope's Inner, never an untagged SetEvent.
func (e SetEvent) CanonicalBytes() []byte {
	return Encode(e)
}

// DeletionEvent tombstones a name. It carries no value and, per the design
// decision in §9, never expires — only an explicit higher-priority Set can
// overtake it, and GC never purges it on expiry grounds.
type DeletionEvent struct {
	Name     Name
	Priority Priority
}

// Kind implements Event.
func (e DeletionEvent) Kind() Kind { return KindDelete }

// EventName implements Event.
func (e DeletionEvent) EventName() Name { return e.Name }

// EventPriority implements Event.
func (e DeletionEvent) EventPriority() Priority { return e.Priority }

// EventExpiresAt implements Event.
func (e DeletionEvent) EventExpiresAt() *uint64 { return nil }

// EventValue implements Event.
func (e DeletionEvent) EventValue() (Value, bool) { return nil, false }

// CanonicalBytes implements canon.Encodable.
func (e DeletionEvent) CanonicalBytes() []byte {
	return Encode(e)
}
