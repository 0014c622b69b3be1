// Package server implements the server facade (C10, §4.9): exposes the
// event store and blob store over the HTTP+JSON wire protocol in §6.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nicolaschan/baybridge/bberrors"
	"github.com/nicolaschan/baybridge/blob"
	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
	"github.com/nicolaschan/baybridge/internal/logger"
	"github.com/nicolaschan/baybridge/internal/metrics"
	"github.com/nicolaschan/baybridge/pkg/storage"
	"github.com/nicolaschan/baybridge/signing"
)

const version = "0.1.0"

// Server holds the HTTP handler over one event store and one blob store.
type Server struct {
	store   storage.EventStore
	blobs   *blob.Store
	peers   []string
	log     logger.Logger
	metrics *metrics.Collector
	http    *http.Server
}

// New builds the handler mux and wraps it in an *http.Server bound to
// addr, matching the teacher's timeout conventions.
func New(addr string, store storage.EventStore, blobs *blob.Store, peers []string, log logger.Logger, m *metrics.Collector) *Server {
	s := &Server{store: store, blobs: blobs, peers: peers, log: log, metrics: m}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /info", s.handleInfo)
	mux.HandleFunc("GET /keyspace", s.handleListKeyspace)
	mux.HandleFunc("POST /keyspace/{vk}", s.handlePutEvent)
	mux.HandleFunc("GET /keyspace/{vk}/{name}", s.handleGetKeyspace)
	mux.HandleFunc("GET /namespace/{name}", s.handleGetNamespace)
	mux.HandleFunc("GET /sync/state", s.handleSyncState)
	mux.HandleFunc("GET /sync/events", s.handleSyncEvents)
	mux.HandleFunc("GET /sync/peers", s.handleSyncPeers)
	mux.HandleFunc("GET /immutable/{hash}", s.handleGetImmutable)
	mux.HandleFunc("POST /immutable", s.handlePutImmutable)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.withMetrics(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.log.Info("starting server", logger.Field{Key: "addr", Value: s.http.Addr})
	err := s.http.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler, for embedding in a test
// server or a process that wants to multiplex baybridge alongside other
// routes instead of calling ListenAndServe itself.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, r.URL.Path, time.Since(start))
		}
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindStorage, "info", err))
		return
	}
	fmt.Fprintf(w, "baybridge %s, %d events\n", version, count)
}

func (s *Server) handlePutEvent(w http.ResponseWriter, r *http.Request) {
	var signed event.Signed
	if err := json.NewDecoder(r.Body).Decode(&signed); err != nil {
		writeError(w, bberrors.New(bberrors.KindBadEncoding, "put_event", err))
		return
	}

	pathVK, err := event.ParseVerifyingKey(r.PathValue("vk"))
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindBadEncoding, "put_event", err))
		return
	}
	if pathVK != signed.VerifyingKey {
		writeError(w, bberrors.New(bberrors.KindBadSignature, "put_event", fmt.Errorf("verifying key mismatch")))
		return
	}
	if !signing.Verify(signed) {
		writeError(w, bberrors.New(bberrors.KindBadSignature, "put_event", fmt.Errorf("signature does not verify")))
		return
	}

	if _, err := s.store.Insert(r.Context(), signed); err != nil {
		writeError(w, bberrors.New(bberrors.KindStorage, "put_event", err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleListKeyspace lists the distinct verifying keys known to this
// peer, derived from its full event set (there is no dedicated index for
// this, so the list is small enough to compute on demand).
func (s *Server) handleListKeyspace(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.AllEvents(r.Context(), uint64(time.Now().Unix()))
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindStorage, "list_keyspace", err))
		return
	}

	seen := make(map[event.VerifyingKey]struct{})
	keys := make([]string, 0)
	for _, e := range events {
		if _, ok := seen[e.VerifyingKey]; ok {
			continue
		}
		seen[e.VerifyingKey] = struct{}{}
		keys = append(keys, e.VerifyingKey.String())
	}
	writeJSON(w, map[string]any{"keys": keys})
}

func (s *Server) handleGetKeyspace(w http.ResponseWriter, r *http.Request) {
	vk, err := event.ParseVerifyingKey(r.PathValue("vk"))
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindBadEncoding, "get_keyspace", err))
		return
	}
	name := event.Name(r.PathValue("name"))

	events, hadExpired, err := s.store.EventsFor(r.Context(), vk, name, uint64(time.Now().Unix()))
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindStorage, "get_keyspace", err))
		return
	}
	if len(events) == 0 {
		if hadExpired {
			writeError(w, bberrors.New(bberrors.KindValueExpired, "get_keyspace", nil))
			return
		}
		writeError(w, bberrors.New(bberrors.KindNotFound, "get_keyspace", nil))
		return
	}
	writeJSON(w, map[string]any{"events": events})
}

func (s *Server) handleGetNamespace(w http.ResponseWriter, r *http.Request) {
	name := event.Name(r.PathValue("name"))
	events, err := s.store.EventsForName(r.Context(), name, uint64(time.Now().Unix()))
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindStorage, "get_namespace", err))
		return
	}
	writeJSON(w, map[string]any{"namespace": string(name), "events": events})
}

func (s *Server) handleSyncState(w http.ResponseWriter, r *http.Request) {
	hash, err := s.store.StateHash(r.Context(), uint64(time.Now().Unix()))
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindStorage, "sync_state", err))
		return
	}
	writeJSON(w, map[string]any{"hash": hash.String()})
}

func (s *Server) handleSyncEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.AllEvents(r.Context(), uint64(time.Now().Unix()))
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindStorage, "sync_events", err))
		return
	}
	writeJSON(w, map[string]any{"events": events})
}

func (s *Server) handleSyncPeers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"peers": s.peers})
}

func (s *Server) handleGetImmutable(w http.ResponseWriter, r *http.Request) {
	hash, err := canon.DecodeHash(r.PathValue("hash"))
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindBadEncoding, "get_immutable", err))
		return
	}
	block, err := s.blobs.Get(r.Context(), hash)
	if err != nil {
		if err == blob.ErrNotFound {
			writeError(w, bberrors.New(bberrors.KindNotFound, "get_immutable", nil))
			return
		}
		writeError(w, bberrors.New(bberrors.KindStorage, "get_immutable", err))
		return
	}
	refs := make([]string, len(block.References))
	for i, ref := range block.References {
		refs[i] = ref.String()
	}
	writeJSON(w, map[string]any{"data": canon.EncodeBytes(block.Data), "references": refs})
}

func (s *Server) handlePutImmutable(w http.ResponseWriter, r *http.Request) {
	var wire struct {
		Data       string   `json:"data"`
		References []string `json:"references"`
	}
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		writeError(w, bberrors.New(bberrors.KindBadEncoding, "put_immutable", err))
		return
	}
	data, err := canon.DecodeBytes(wire.Data)
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindBadEncoding, "put_immutable", err))
		return
	}
	refs := make([]canon.Hash, len(wire.References))
	for i, r := range wire.References {
		h, err := canon.DecodeHash(r)
		if err != nil {
			writeError(w, bberrors.New(bberrors.KindBadEncoding, "put_immutable", err))
			return
		}
		refs[i] = h
	}

	hash, err := s.blobs.Put(r.Context(), blob.ContentBlock{Data: data, References: refs})
	if err != nil {
		writeError(w, bberrors.New(bberrors.KindStorage, "put_immutable", err))
		return
	}
	writeJSON(w, map[string]any{"hash": hash.String()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err *bberrors.Error) {
	status := http.StatusInternalServerError
	switch err.Kind {
	case bberrors.KindBadEncoding:
		status = http.StatusBadRequest
	case bberrors.KindBadSignature:
		status = http.StatusForbidden
	case bberrors.KindNotFound, bberrors.KindValueExpired:
		status = http.StatusNotFound
	case bberrors.KindStorage:
		status = http.StatusInternalServerError
	case bberrors.KindTransport, bberrors.KindCircuitOpen:
		status = http.StatusBadGateway
	}
	http.Error(w, err.Error(), status)
}
