// Package syncer implements the anti-entropy sync task (§4.6): one pass
// against a single peer, invoked periodically by the task controller.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/nicolaschan/baybridge/event"
	"github.com/nicolaschan/baybridge/internal/logger"
	"github.com/nicolaschan/baybridge/internal/metrics"
	"github.com/nicolaschan/baybridge/pkg/storage"
	"github.com/nicolaschan/baybridge/rpc"
	"github.com/nicolaschan/baybridge/signing"
)

// Syncer runs one anti-entropy pass against a single peer.
type Syncer struct {
	store   storage.EventStore
	log     logger.Logger
	Timeout time.Duration
	metrics *metrics.Collector
}

// New returns a Syncer that applies pulled events to store. collector may
// be nil, in which case pass outcomes are logged but not exported as
// metrics.
func New(store storage.EventStore, log logger.Logger, timeout time.Duration, collector *metrics.Collector) *Syncer {
	return &Syncer{store: store, log: log, Timeout: timeout, metrics: collector}
}

// Sync runs one pass against peer: compares state hashes, and if they
// differ, pulls the full remote event set and ingests each event through
// the store, re-verifying its signature before insert (§4.6, §7).
func (s *Syncer) Sync(ctx context.Context, peer *rpc.Peer) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveSync(peer.URL, time.Since(start), err)
		}
	}()

	localHash, haveLocal, err := s.store.GetPeerLastHash(ctx, peer.URL)
	if err != nil {
		return fmt.Errorf("syncer: local last-hash: %w", err)
	}

	remoteHash, err := peer.StateHash(ctx)
	if err != nil {
		return fmt.Errorf("syncer: remote state-hash: %w", err)
	}

	if haveLocal && localHash == remoteHash {
		return nil
	}

	events, err := peer.Events(ctx)
	if err != nil {
		return fmt.Errorf("syncer: fetch events: %w", err)
	}

	accepted, rejected := 0, 0
	for _, signed := range events {
		if !signing.Verify(signed) {
			rejected++
			continue
		}
		n, insertErr := s.store.Insert(ctx, signed)
		if insertErr != nil {
			return fmt.Errorf("syncer: insert: %w", insertErr)
		}
		accepted += n
		// store.Insert collapses "duplicate" and "stale" into the same
		// zero return; a re-synced event that loses §4.3's priority
		// tiebreak is reported as a duplicate here since the interface
		// doesn't expose which one it was.
		if s.metrics != nil {
			s.metrics.ObserveInsert(n == 1, false)
		}
	}

	pulledHash := event.StateHash(events)
	if err := s.store.SetPeerLastHash(ctx, peer.URL, pulledHash); err != nil {
		return fmt.Errorf("syncer: set last-hash: %w", err)
	}

	s.log.Debug("sync pass complete",
		logger.Field{Key: "peer", Value: peer.URL},
		logger.Field{Key: "pulled", Value: len(events)},
		logger.Field{Key: "accepted", Value: accepted},
		logger.Field{Key: "rejected", Value: rejected},
	)
	return nil
}
