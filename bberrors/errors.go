// Package bberrors defines the closed error taxonomy (§7) that every layer
// of the core raises. Transport layers map Kind to a status code; callers
// that need to branch on failure mode use errors.As against *Error.
package bberrors

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error categories the core can raise.
type Kind string

const (
	// KindBadEncoding covers malformed base64, wrong byte length, or
	// non-canonical binary encoding.
	KindBadEncoding Kind = "bad_encoding"
	// KindBadSignature covers a signature that does not verify against
	// its envelope's declared verifying key.
	KindBadSignature Kind = "bad_signature"
	// KindNotFound covers an absent (key,name) or immutable hash.
	KindNotFound Kind = "not_found"
	// KindValueExpired covers a key whose surviving events are all past
	// expires_at at read time; transports treat it as KindNotFound.
	KindValueExpired Kind = "value_expired"
	// KindStorage covers an unexpected backend failure.
	KindStorage Kind = "storage"
	// KindTransport covers a timeout or connection failure to a peer.
	KindTransport Kind = "transport"
	// KindCircuitOpen covers a peer connection in open-circuit state.
	KindCircuitOpen Kind = "circuit_open"
)

// Error pairs a Kind with the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
