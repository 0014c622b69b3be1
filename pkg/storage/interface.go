// Package storage defines the event store abstraction (§4.3): a durable,
// concurrent-safe multiset of signed events indexed for the three query
// patterns the server exposes, plus the per-peer last-seen state hash used
// by anti-entropy.
package storage

import (
	"context"

	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
)

// EventStore is the abstract schema from §4.3:
// {id, verifying_key, name, signed_event_bytes (unique), priority, expires_at?}
// with secondary indices on (verifying_key, name) and (name).
//
// Implementations must make Insert linearizable against other Inserts and
// against queries (§5): once Insert returns, the inserted event (or its
// absence, if suppressed as stale/duplicate) is visible to every
// subsequent query against the same store handle.
type EventStore interface {
	// Insert applies the staleness and dedup rules from §4.3 and returns
	// 1 if the event was retained, 0 if it was a duplicate or stale. The
	// caller must already have verified the envelope's signature.
	Insert(ctx context.Context, signed event.Signed) (int, error)

	// DeleteExpired removes every event whose expires_at is present and
	// <= now, returning the count removed.
	DeleteExpired(ctx context.Context, now uint64) (int, error)

	// Count returns the total number of stored events.
	Count(ctx context.Context) (int, error)

	// AllEvents returns every event whose expires_at is absent or > now,
	// sorted by ascending envelope-byte order (§3 "sorted_events"). The
	// filter is applied at read time, independent of whether a GC sweep
	// has already run.
	AllEvents(ctx context.Context, now uint64) ([]event.Signed, error)

	// EventsFor returns the events for one principal's one name whose
	// expires_at is absent or > now (the keyspace query, §6 GET
	// /keyspace/{vk}/{name}). hadExpired reports whether at least one
	// event is stored for (vk, name) but every one of them is expired as
	// of now, distinguishing "all surviving events are expired" (§9
	// ValueExpired) from "nothing was ever stored here" (NotFound).
	EventsFor(ctx context.Context, vk event.VerifyingKey, name event.Name, now uint64) (events []event.Signed, hadExpired bool, err error)

	// EventsForName returns the events for one name across every
	// principal whose expires_at is absent or > now (the namespace
	// query, §6 GET /namespace/{name}).
	EventsForName(ctx context.Context, name event.Name, now uint64) ([]event.Signed, error)

	// SetPeerLastHash upserts the last state hash observed from a peer.
	SetPeerLastHash(ctx context.Context, peerURL string, hash canon.Hash) error

	// GetPeerLastHash returns the last state hash observed from a peer,
	// or ok=false if none has been recorded.
	GetPeerLastHash(ctx context.Context, peerURL string) (hash canon.Hash, ok bool, err error)

	// StateHash computes Blake3(canonical_encoding(all_events())) over
	// the store's contents as of now, excluding expired events (§3).
	StateHash(ctx context.Context, now uint64) (canon.Hash, error)

	// Close releases backing resources (connections, file handles).
	Close() error
}
