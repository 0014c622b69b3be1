// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Package memory implements storage.EventStore backed by in-process maps,
// the default backend (storage.backend "memory") for single-node and test
// use.
package memory

import (
	"context"
	"sync"

	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
	"github.com/nicolaschan/baybridge/pkg/storage"
)

type nameKey struct {
	vk   event.VerifyingKey
	name event.Name
}

// Store is a sync.RWMutex-protected in-memory storage.EventStore.
type Store struct {
	mu sync.RWMutex

	closed     bool
	byEnvelope map[string]event.Signed // dedup key: base64(CanonicalBytes)
	byName     map[nameKey][]string    // nameKey -> envelope keys
	byOnlyName map[event.Name][]string // name -> envelope keys across all principals
	peerHashes map[string]canon.Hash
}

// NewStore creates an empty in-memory event store.
func NewStore() *Store {
	return &Store{
		byEnvelope: make(map[string]event.Signed),
		byName:     make(map[nameKey][]string),
		byOnlyName: make(map[event.Name][]string),
		peerHashes: make(map[string]canon.Hash),
	}
}

func envelopeKey(s event.Signed) string {
	return canon.EncodeBytes(s.CanonicalBytes())
}

// Insert applies the §4.3 staleness rule: among events sharing a
// (verifying_key, name), only the event.Winner survives. A losing or
// duplicate event is a no-op that returns 0.
func (s *Store) Insert(ctx context.Context, signed event.Signed) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, storage.ErrClosed
	}

	key := envelopeKey(signed)
	if _, exists := s.byEnvelope[key]; exists {
		return 0, nil
	}

	nk := nameKey{vk: signed.VerifyingKey, name: signed.Inner.EventName()}
	existingKeys := s.byName[nk]

	for _, ek := range existingKeys {
		existing := s.byEnvelope[ek]
		if event.Winner(existing, signed) == existing {
			// An existing event already wins over this one; the new
			// event is stale and is not retained.
			return 0, nil
		}
	}

	// This event wins over (or ties with none of) the existing set:
	// evict anything it beats and keep only it plus any that survive.
	kept := existingKeys[:0]
	for _, ek := range existingKeys {
		existing := s.byEnvelope[ek]
		if event.Winner(existing, signed) == existing {
			kept = append(kept, ek)
		} else {
			delete(s.byEnvelope, ek)
			s.removeFromOnlyName(nk.name, ek)
		}
	}
	kept = append(kept, key)
	s.byName[nk] = kept
	s.byOnlyName[nk.name] = append(s.byOnlyName[nk.name], key)
	s.byEnvelope[key] = signed

	return 1, nil
}

func (s *Store) removeFromOnlyName(name event.Name, key string) {
	keys := s.byOnlyName[name]
	for i, k := range keys {
		if k == key {
			s.byOnlyName[name] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

// DeleteExpired removes every event whose expires_at <= now.
func (s *Store) DeleteExpired(ctx context.Context, now uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, signed := range s.byEnvelope {
		expiresAt := signed.Inner.EventExpiresAt()
		if expiresAt == nil || *expiresAt > now {
			continue
		}
		delete(s.byEnvelope, key)
		nk := nameKey{vk: signed.VerifyingKey, name: signed.Inner.EventName()}
		s.removeKeyFrom(s.byName[nk], key, nk)
		s.removeFromOnlyName(nk.name, key)
		removed++
	}
	return removed, nil
}

func (s *Store) removeKeyFrom(keys []string, key string, nk nameKey) {
	for i, k := range keys {
		if k == key {
			s.byName[nk] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

// Count returns the total number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEnvelope), nil
}

// AllEvents returns every event whose expires_at is absent or > now,
// sorted by ascending envelope bytes.
func (s *Store) AllEvents(ctx context.Context, now uint64) ([]event.Signed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Signed, 0, len(s.byEnvelope))
	for _, signed := range s.byEnvelope {
		out = append(out, signed)
	}
	return event.SortByEnvelope(event.FilterExpired(out, now)), nil
}

// EventsFor returns the non-expired events for one principal's one name,
// and whether that (vk, name) pair has stored events that are all expired
// as of now.
func (s *Store) EventsFor(ctx context.Context, vk event.VerifyingKey, name event.Name, now uint64) ([]event.Signed, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.byName[nameKey{vk: vk, name: name}]
	raw := make([]event.Signed, 0, len(keys))
	for _, k := range keys {
		raw = append(raw, s.byEnvelope[k])
	}
	filtered := event.FilterExpired(raw, now)
	hadExpired := len(raw) > 0 && len(filtered) == 0
	return event.SortByEnvelope(filtered), hadExpired, nil
}

// EventsForName returns the non-expired events for one name across every
// principal.
func (s *Store) EventsForName(ctx context.Context, name event.Name, now uint64) ([]event.Signed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.byOnlyName[name]
	out := make([]event.Signed, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.byEnvelope[k])
	}
	return event.SortByEnvelope(event.FilterExpired(out, now)), nil
}

// SetPeerLastHash upserts the last observed state hash for a peer.
func (s *Store) SetPeerLastHash(ctx context.Context, peerURL string, hash canon.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peerHashes[peerURL] = hash
	return nil
}

// GetPeerLastHash returns the last observed state hash for a peer.
func (s *Store) GetPeerLastHash(ctx context.Context, peerURL string) (canon.Hash, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.peerHashes[peerURL]
	return h, ok, nil
}

// StateHash computes Blake3 over the canonical encoding of every stored,
// non-expired event in envelope order.
func (s *Store) StateHash(ctx context.Context, now uint64) (canon.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]event.Signed, 0, len(s.byEnvelope))
	for _, signed := range s.byEnvelope {
		all = append(all, signed)
	}
	return event.StateHash(event.FilterExpired(all, now)), nil
}

// Close marks the store closed; subsequent Insert calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ storage.EventStore = (*Store)(nil)
