// Package rpc implements the HTTP+JSON peer connection (§6) shared by the
// sync task and the client facade: fetching state hashes and event sets,
// pushing signed events, and transferring immutable blocks, all behind a
// circuit breaker so a permanently down peer does not burn CPU (§5).
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nicolaschan/baybridge/bberrors"
	"github.com/nicolaschan/baybridge/blob"
	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
)

// Peer is a connection to one remote peer's HTTP server, wrapping calls in
// a circuit breaker and a bounded per-call deadline.
type Peer struct {
	URL     string
	client  *http.Client
	breaker *breaker
}

// NewPeer returns a Peer for baseURL (no trailing slash) with the given
// per-call timeout.
func NewPeer(baseURL string, timeout time.Duration) *Peer {
	return &Peer{
		URL:     baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker(),
	}
}

type syncStateResponse struct {
	Hash string `json:"hash"`
}

type eventsResponse struct {
	Events []event.Signed `json:"events"`
}

type namespaceResponse struct {
	Namespace string         `json:"namespace"`
	Events    []event.Signed `json:"events"`
}

type peersResponse struct {
	Peers []string `json:"peers"`
}

type keyspaceResponse struct {
	Keys []string `json:"keys"`
}

type immutablePutResponse struct {
	Hash string `json:"hash"`
}

// StateHash fetches the remote's current state hash.
func (p *Peer) StateHash(ctx context.Context) (canon.Hash, error) {
	var out syncStateResponse
	if err := p.doJSON(ctx, http.MethodGet, "/sync/state", nil, &out); err != nil {
		return canon.Hash{}, err
	}
	return canon.DecodeHash(out.Hash)
}

// Events fetches the remote's full event set for anti-entropy.
func (p *Peer) Events(ctx context.Context) ([]event.Signed, error) {
	var out eventsResponse
	if err := p.doJSON(ctx, http.MethodGet, "/sync/events", nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// ListKeyspace fetches the distinct verifying keys known to the remote.
func (p *Peer) ListKeyspace(ctx context.Context) ([]event.VerifyingKey, error) {
	var out keyspaceResponse
	if err := p.doJSON(ctx, http.MethodGet, "/keyspace", nil, &out); err != nil {
		return nil, err
	}
	keys := make([]event.VerifyingKey, len(out.Keys))
	for i, k := range out.Keys {
		vk, err := event.ParseVerifyingKey(k)
		if err != nil {
			return nil, bberrors.New(bberrors.KindBadEncoding, "keyspace", err)
		}
		keys[i] = vk
	}
	return keys, nil
}

// Peers fetches the remote's configured peer list.
func (p *Peer) Peers(ctx context.Context) ([]string, error) {
	var out peersResponse
	if err := p.doJSON(ctx, http.MethodGet, "/sync/peers", nil, &out); err != nil {
		return nil, err
	}
	return out.Peers, nil
}

// PutEvent publishes a signed event under its verifying key's keyspace.
func (p *Peer) PutEvent(ctx context.Context, signed event.Signed) error {
	path := fmt.Sprintf("/keyspace/%s", signed.VerifyingKey.String())
	return p.doJSON(ctx, http.MethodPost, path, signed, nil)
}

// EventsFor fetches one principal's events for one name.
func (p *Peer) EventsFor(ctx context.Context, vk event.VerifyingKey, name event.Name) ([]event.Signed, error) {
	path := fmt.Sprintf("/keyspace/%s/%s", vk.String(), name)
	var out eventsResponse
	if err := p.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// EventsForName fetches every principal's events for one name.
func (p *Peer) EventsForName(ctx context.Context, name event.Name) (*namespaceResponse, error) {
	path := fmt.Sprintf("/namespace/%s", name)
	var out namespaceResponse
	if err := p.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutImmutable uploads a content block and returns its hash.
func (p *Peer) PutImmutable(ctx context.Context, block blob.ContentBlock) (canon.Hash, error) {
	wire := wireContentBlock{
		Data:       canon.EncodeBytes(block.Data),
		References: make([]string, len(block.References)),
	}
	for i, r := range block.References {
		wire.References[i] = r.String()
	}
	var out immutablePutResponse
	if err := p.doJSON(ctx, http.MethodPost, "/immutable", wire, &out); err != nil {
		return canon.Hash{}, err
	}
	return canon.DecodeHash(out.Hash)
}

// GetImmutable fetches a content block by hash.
func (p *Peer) GetImmutable(ctx context.Context, hash canon.Hash) (blob.ContentBlock, error) {
	path := fmt.Sprintf("/immutable/%s", hash.String())
	var wire wireContentBlock
	if err := p.doJSON(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return blob.ContentBlock{}, err
	}
	return wire.toBlock()
}

// doJSON performs one HTTP call through the circuit breaker, marshaling
// reqBody (if non-nil) and unmarshaling into respOut (if non-nil).
func (p *Peer) doJSON(ctx context.Context, method, path string, reqBody, respOut any) error {
	if !p.breaker.allow() {
		return bberrors.New(bberrors.KindCircuitOpen, "rpc."+path, nil)
	}

	var body bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&body).Encode(reqBody); err != nil {
			return bberrors.New(bberrors.KindBadEncoding, "rpc."+path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, p.URL+path, &body)
	if err != nil {
		p.breaker.recordFailure()
		return bberrors.New(bberrors.KindTransport, "rpc."+path, err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.breaker.recordFailure()
		return bberrors.New(bberrors.KindTransport, "rpc."+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		p.breaker.recordSuccess()
		return bberrors.New(bberrors.KindNotFound, "rpc."+path, nil)
	}
	if resp.StatusCode == http.StatusForbidden {
		p.breaker.recordSuccess()
		return bberrors.New(bberrors.KindBadSignature, "rpc."+path, nil)
	}
	if resp.StatusCode >= 300 {
		p.breaker.recordFailure()
		return bberrors.New(bberrors.KindTransport, "rpc."+path, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	p.breaker.recordSuccess()
	if respOut == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respOut); err != nil {
		return bberrors.New(bberrors.KindBadEncoding, "rpc."+path, err)
	}
	return nil
}

type wireContentBlock struct {
	Data       string   `json:"data"`
	References []string `json:"references"`
}

func (w wireContentBlock) toBlock() (blob.ContentBlock, error) {
	data, err := canon.DecodeBytes(w.Data)
	if err != nil {
		return blob.ContentBlock{}, bberrors.New(bberrors.KindBadEncoding, "immutable", err)
	}
	refs := make([]canon.Hash, len(w.References))
	for i, r := range w.References {
		h, err := canon.DecodeHash(r)
		if err != nil {
			return blob.ContentBlock{}, bberrors.New(bberrors.KindBadEncoding, "immutable", err)
		}
		refs[i] = h
	}
	return blob.ContentBlock{Data: data, References: refs}, nil
}
