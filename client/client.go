// Package client implements the client facade (C11, §4.10): a thin
// multi-peer fan-out that replicates writes to every configured peer and
// merges reads across them, observing eventual consistency with no
// cross-peer consistency protocol of its own.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nicolaschan/baybridge/bberrors"
	"github.com/nicolaschan/baybridge/blob"
	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
	"github.com/nicolaschan/baybridge/resolve"
	"github.com/nicolaschan/baybridge/rpc"

	"golang.org/x/sync/errgroup"
)

// Client fans out operations across a fixed set of peer connections.
type Client struct {
	peers []*rpc.Peer
}

// New returns a Client over peers.
func New(peers []*rpc.Peer) *Client {
	return &Client{peers: peers}
}

// Set broadcasts signed to every peer and reports success if at least one
// peer accepted it (the default best-effort durability mode, §4.10).
func (c *Client) Set(ctx context.Context, signed event.Signed) error {
	return c.broadcast(ctx, func(ctx context.Context, p *rpc.Peer) error {
		return p.PutEvent(ctx, signed)
	})
}

// Delete broadcasts a deletion tombstone to every peer, same durability
// semantics as Set.
func (c *Client) Delete(ctx context.Context, signed event.Signed) error {
	return c.Set(ctx, signed)
}

func (c *Client) broadcast(ctx context.Context, call func(context.Context, *rpc.Peer) error) error {
	if len(c.peers) == 0 {
		return fmt.Errorf("client: no peers configured")
	}

	var mu sync.Mutex
	var lastErr error
	successes := 0

	var wg sync.WaitGroup
	for _, p := range c.peers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := call(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				return
			}
			successes++
		}()
	}
	wg.Wait()

	if successes == 0 {
		return fmt.Errorf("client: broadcast failed on every peer: %w", lastErr)
	}
	return nil
}

// Get concurrently fetches the (verifying_key, name) events from every
// peer, unions them, and resolves the merged multiset through C5.
func (c *Client) Get(ctx context.Context, vk event.VerifyingKey, name event.Name, now time.Time) (event.Value, bool, error) {
	all, err := c.fetchUnion(ctx, func(ctx context.Context, p *rpc.Peer) ([]event.Signed, error) {
		return p.EventsFor(ctx, vk, name)
	})
	if err != nil {
		return nil, false, err
	}
	value, ok := resolve.Merge(all, uint64(now.Unix()))
	return value, ok, nil
}

// NamespaceResult is one principal's resolved value within a namespace
// query.
type NamespaceResult struct {
	VerifyingKey event.VerifyingKey
	Value        event.Value
}

// GetNamespace fetches every principal's events for name across all
// peers, groups by verifying key, and resolves each group through C5.
func (c *Client) GetNamespace(ctx context.Context, name event.Name, now time.Time) ([]NamespaceResult, error) {
	all, err := c.fetchUnion(ctx, func(ctx context.Context, p *rpc.Peer) ([]event.Signed, error) {
		resp, err := p.EventsForName(ctx, name)
		if err != nil {
			return nil, err
		}
		return resp.Events, nil
	})
	if err != nil {
		return nil, err
	}

	grouped := make(map[event.VerifyingKey][]event.Signed)
	for _, signed := range all {
		grouped[signed.VerifyingKey] = append(grouped[signed.VerifyingKey], signed)
	}

	out := make([]NamespaceResult, 0, len(grouped))
	for vk, events := range grouped {
		value, ok := resolve.Merge(events, uint64(now.Unix()))
		if !ok {
			continue
		}
		out = append(out, NamespaceResult{VerifyingKey: vk, Value: value})
	}
	return out, nil
}

// fetchUnion runs fetch against every peer concurrently (one errgroup
// goroutine per peer) and unions the non-error results, deduping on
// envelope bytes.
func (c *Client) fetchUnion(ctx context.Context, fetch func(context.Context, *rpc.Peer) ([]event.Signed, error)) ([]event.Signed, error) {
	if len(c.peers) == 0 {
		return nil, fmt.Errorf("client: no peers configured")
	}

	results := make([][]event.Signed, len(c.peers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range c.peers {
		i, p := i, p
		g.Go(func() error {
			events, err := fetch(gctx, p)
			if err != nil {
				if bberrors.Is(err, bberrors.KindNotFound) {
					return nil
				}
				return nil // a single unreachable peer must not fail the union (§4.10)
			}
			results[i] = events
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	var union []event.Signed
	for _, events := range results {
		for _, e := range events {
			key := canon.EncodeBytes(e.CanonicalBytes())
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			union = append(union, e)
		}
	}
	return union, nil
}

// ListKeyspace unions the distinct verifying keys known across every peer.
func (c *Client) ListKeyspace(ctx context.Context) ([]event.VerifyingKey, error) {
	if len(c.peers) == 0 {
		return nil, fmt.Errorf("client: no peers configured")
	}

	results := make([][]event.VerifyingKey, len(c.peers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range c.peers {
		i, p := i, p
		g.Go(func() error {
			keys, err := p.ListKeyspace(gctx)
			if err != nil {
				return nil // an unreachable peer must not fail the union (§4.10)
			}
			results[i] = keys
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[event.VerifyingKey]struct{})
	var union []event.VerifyingKey
	for _, keys := range results {
		for _, k := range keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			union = append(union, k)
		}
	}
	return union, nil
}

// PutImmutable broadcasts block to every peer and returns its hash.
func (c *Client) PutImmutable(ctx context.Context, block blob.ContentBlock) (canon.Hash, error) {
	var hash canon.Hash
	err := c.broadcast(ctx, func(ctx context.Context, p *rpc.Peer) error {
		h, err := p.PutImmutable(ctx, block)
		if err != nil {
			return err
		}
		hash = h
		return nil
	})
	return hash, err
}

// GetImmutable fetches a content block by hash; the first peer to answer
// successfully wins (§4.10).
func (c *Client) GetImmutable(ctx context.Context, hash canon.Hash) (blob.ContentBlock, error) {
	type result struct {
		block blob.ContentBlock
		err   error
	}
	ch := make(chan result, len(c.peers))
	var wg sync.WaitGroup
	for _, p := range c.peers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			block, err := p.GetImmutable(ctx, hash)
			ch <- result{block, err}
		}()
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	var lastErr error
	for r := range ch {
		if r.err == nil {
			return r.block, nil
		}
		lastErr = r.err
	}
	return blob.ContentBlock{}, fmt.Errorf("client: no peer had the block: %w", lastErr)
}
