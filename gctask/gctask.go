// Package gctask implements the fixed-cadence expiry sweep (§4.7).
package gctask

import (
	"context"
	"fmt"
	"time"

	"github.com/nicolaschan/baybridge/internal/logger"
	"github.com/nicolaschan/baybridge/internal/metrics"
	"github.com/nicolaschan/baybridge/pkg/storage"
)

// Sweeper runs one GC pass per invocation.
type Sweeper struct {
	store   storage.EventStore
	log     logger.Logger
	metrics *metrics.Collector
}

// New returns a Sweeper bound to store. collector may be nil, in which
// case sweep counts are logged but not exported as metrics.
func New(store storage.EventStore, log logger.Logger, collector *metrics.Collector) *Sweeper {
	return &Sweeper{store: store, log: log, metrics: collector}
}

// Sweep deletes every event whose expires_at has passed, logging the
// count. Transient store errors are returned for the caller to tolerate
// and retry on the next tick (§4.7).
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) error {
	removed, err := s.store.DeleteExpired(ctx, uint64(now.Unix()))
	if err != nil {
		return fmt.Errorf("gctask: delete expired: %w", err)
	}
	if removed > 0 {
		s.log.Info("gc sweep removed expired events", logger.Field{Key: "count", Value: removed})
	}
	if s.metrics != nil {
		s.metrics.ObserveExpired(removed)
	}
	return nil
}
