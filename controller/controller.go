// Package controller implements the task controller (C9, §4.8): a single
// fixed-period scheduling loop that runs the GC sweep and then fans out
// anti-entropy to every configured peer, isolating per-peer failures.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/nicolaschan/baybridge/gctask"
	"github.com/nicolaschan/baybridge/internal/logger"
	"github.com/nicolaschan/baybridge/rpc"
	"github.com/nicolaschan/baybridge/syncer"
)

// Controller owns the scheduling loop.
type Controller struct {
	period time.Duration
	gc     *gctask.Sweeper
	sync   *syncer.Syncer
	peers  []*rpc.Peer
	log    logger.Logger

	mu         sync.RWMutex
	ticker     *time.Ticker
	stopped    chan struct{}
	lastTick   time.Time
	lastTickOK bool
}

// New returns a Controller with the given tick period (the configuration
// defaults it to 10s, §4.8; New itself applies no default) and the set of
// peer connections to sync against each tick.
func New(period time.Duration, gc *gctask.Sweeper, sync *syncer.Syncer, peers []*rpc.Peer, log logger.Logger) *Controller {
	return &Controller{
		period:  period,
		gc:      gc,
		sync:    sync,
		peers:   peers,
		log:     log,
		stopped: make(chan struct{}),
	}
}

// Run blocks, executing one tick every period until ctx is cancelled. On
// cancellation it finishes the tick in progress and returns.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()
	defer close(c.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// Stopped returns a channel closed once Run has returned.
func (c *Controller) Stopped() <-chan struct{} {
	return c.stopped
}

// LastTick reports when tick last completed and whether that tick's GC
// sweep and every peer sync in it finished without error. Used by the health endpoint to judge
// liveness: a process whose tick loop has stalled is not actually alive
// even though its HTTP server still answers requests.
func (c *Controller) LastTick() (at time.Time, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastTick, c.lastTickOK
}

func (c *Controller) tick(ctx context.Context) {
	ok := true
	if err := c.gc.Sweep(ctx, time.Now()); err != nil {
		c.log.Error("gc sweep failed", logger.Field{Key: "error", Value: err.Error()})
		ok = false
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, peer := range c.peers {
		peer := peer
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.sync.Sync(ctx, peer); err != nil {
				c.log.Warn("sync tick failed for peer",
					logger.Field{Key: "peer", Value: peer.URL},
					logger.Field{Key: "error", Value: err.Error()},
				)
				mu.Lock()
				ok = false
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	c.mu.Lock()
	c.lastTick = time.Now()
	c.lastTickOK = ok
	c.mu.Unlock()
}
