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

// Package postgres implements storage.EventStore over a Postgres database,
// the durable backend for multi-node deployments (§4.3).
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
	"github.com/nicolaschan/baybridge/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id                  BIGSERIAL PRIMARY KEY,
	verifying_key       TEXT NOT NULL,
	name                TEXT NOT NULL,
	signed_event_bytes  TEXT NOT NULL UNIQUE,
	priority            BIGINT NOT NULL,
	expires_at          BIGINT
);
CREATE INDEX IF NOT EXISTS events_vk_name_idx ON events (verifying_key, name);
CREATE INDEX IF NOT EXISTS events_name_idx ON events (name);

CREATE TABLE IF NOT EXISTS peers (
	url        TEXT PRIMARY KEY,
	last_hash  TEXT NOT NULL
);
`

// Config holds PostgreSQL connection configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// Store implements storage.EventStore over a pgxpool connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres, applies the schema, and returns a ready
// Store.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: applying schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Insert applies §4.3's staleness rule transactionally: it loads the
// competing events for (verifying_key, name), decides the winner in Go
// (the original's DELETE ... OFFSET 1 pattern is not valid SQL), and
// either skips the insert or evicts the losers before inserting.
func (s *Store) Insert(ctx context.Context, signed event.Signed) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	envKey := canon.EncodeBytes(signed.CanonicalBytes())
	vk := signed.VerifyingKey.String()
	name := string(signed.Inner.EventName())

	rows, err := tx.Query(ctx,
		`SELECT id, signed_event_bytes FROM events WHERE verifying_key = $1 AND name = $2`,
		vk, name)
	if err != nil {
		return 0, fmt.Errorf("postgres: query competitors: %w", err)
	}

	type competitor struct {
		id  int64
		sig event.Signed
	}
	var competitors []competitor
	for rows.Next() {
		var id int64
		var bytesB64 string
		if err := rows.Scan(&id, &bytesB64); err != nil {
			rows.Close()
			return 0, fmt.Errorf("postgres: scan competitor: %w", err)
		}
		if bytesB64 == envKey {
			rows.Close()
			return 0, nil // exact duplicate
		}
		raw, err := canon.DecodeBytes(bytesB64)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("postgres: decode stored event: %w", err)
		}
		existing, err := event.DecodeSigned(raw)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("postgres: decode stored envelope: %w", err)
		}
		competitors = append(competitors, competitor{id: id, sig: existing})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("postgres: rows: %w", err)
	}

	var evictIDs []int64
	for _, c := range competitors {
		if event.Winner(c.sig, signed) == c.sig {
			// An existing event wins over this one; stale, skip insert.
			return 0, nil
		}
		evictIDs = append(evictIDs, c.id)
	}

	if len(evictIDs) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = ANY($1)`, evictIDs); err != nil {
			return 0, fmt.Errorf("postgres: evict stale: %w", err)
		}
	}

	var expiresAt *int64
	if ea := signed.Inner.EventExpiresAt(); ea != nil {
		v := int64(*ea)
		expiresAt = &v
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO events (verifying_key, name, signed_event_bytes, priority, expires_at)
		 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (signed_event_bytes) DO NOTHING`,
		vk, name, envKey, int64(signed.Inner.EventPriority()), expiresAt)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return 1, nil
}

// DeleteExpired removes every event whose expires_at <= now.
func (s *Store) DeleteExpired(ctx context.Context, now uint64) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM events WHERE expires_at IS NOT NULL AND expires_at <= $1`, int64(now))
	if err != nil {
		return 0, fmt.Errorf("postgres: delete expired: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Count returns the total number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]event.Signed, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var out []event.Signed
	for rows.Next() {
		var bytesB64 string
		if err := rows.Scan(&bytesB64); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}
		raw, err := canon.DecodeBytes(bytesB64)
		if err != nil {
			return nil, fmt.Errorf("postgres: decode: %w", err)
		}
		signed, err := event.DecodeSigned(raw)
		if err != nil {
			return nil, fmt.Errorf("postgres: decode envelope: %w", err)
		}
		out = append(out, signed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows: %w", err)
	}
	return event.SortByEnvelope(out), nil
}

// AllEvents returns every event whose expires_at is absent or > now,
// sorted by ascending envelope bytes.
func (s *Store) AllEvents(ctx context.Context, now uint64) ([]event.Signed, error) {
	all, err := s.queryEvents(ctx, `SELECT signed_event_bytes FROM events`)
	if err != nil {
		return nil, err
	}
	return event.FilterExpired(all, now), nil
}

// EventsFor returns the non-expired events for one principal's one name,
// and whether that (vk, name) pair has stored events that are all expired
// as of now.
func (s *Store) EventsFor(ctx context.Context, vk event.VerifyingKey, name event.Name, now uint64) ([]event.Signed, bool, error) {
	raw, err := s.queryEvents(ctx,
		`SELECT signed_event_bytes FROM events WHERE verifying_key = $1 AND name = $2`,
		vk.String(), string(name))
	if err != nil {
		return nil, false, err
	}
	filtered := event.FilterExpired(raw, now)
	hadExpired := len(raw) > 0 && len(filtered) == 0
	return filtered, hadExpired, nil
}

// EventsForName returns the non-expired events for one name across every
// principal.
func (s *Store) EventsForName(ctx context.Context, name event.Name, now uint64) ([]event.Signed, error) {
	all, err := s.queryEvents(ctx, `SELECT signed_event_bytes FROM events WHERE name = $1`, string(name))
	if err != nil {
		return nil, err
	}
	return event.FilterExpired(all, now), nil
}

// SetPeerLastHash upserts the last observed state hash for a peer.
func (s *Store) SetPeerLastHash(ctx context.Context, peerURL string, hash canon.Hash) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO peers (url, last_hash) VALUES ($1, $2)
		 ON CONFLICT (url) DO UPDATE SET last_hash = EXCLUDED.last_hash`,
		peerURL, hash.String())
	if err != nil {
		return fmt.Errorf("postgres: set peer hash: %w", err)
	}
	return nil
}

// GetPeerLastHash returns the last observed state hash for a peer.
func (s *Store) GetPeerLastHash(ctx context.Context, peerURL string) (canon.Hash, bool, error) {
	var hashStr string
	err := s.pool.QueryRow(ctx, `SELECT last_hash FROM peers WHERE url = $1`, peerURL).Scan(&hashStr)
	if err == pgx.ErrNoRows {
		return canon.Hash{}, false, nil
	}
	if err != nil {
		return canon.Hash{}, false, fmt.Errorf("postgres: get peer hash: %w", err)
	}
	h, err := canon.DecodeHash(hashStr)
	if err != nil {
		return canon.Hash{}, false, fmt.Errorf("postgres: decode peer hash: %w", err)
	}
	return h, true, nil
}

// StateHash computes Blake3 over the canonical encoding of every stored,
// non-expired event in envelope order.
func (s *Store) StateHash(ctx context.Context, now uint64) (canon.Hash, error) {
	all, err := s.AllEvents(ctx, now)
	if err != nil {
		return canon.Hash{}, err
	}
	return event.StateHash(all), nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ storage.EventStore = (*Store)(nil)
