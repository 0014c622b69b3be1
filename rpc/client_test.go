package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaschan/baybridge/bberrors"
	"github.com/nicolaschan/baybridge/blob"
	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
)

func TestPeer_StateHash(t *testing.T) {
	h := canon.Sum([]byte("state"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync/state", r.URL.Path)
		json.NewEncoder(w).Encode(syncStateResponse{Hash: h.String()})
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	got, err := peer.StateHash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestPeer_Events(t *testing.T) {
	var vk event.VerifyingKey
	vk[0] = 1
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1}, VerifyingKey: vk}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(eventsResponse{Events: []event.Signed{signed}})
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	got, err := peer.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, signed, got[0])
}

func TestPeer_PutEvent(t *testing.T) {
	var vk event.VerifyingKey
	vk[0] = 2
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1}, VerifyingKey: vk}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/keyspace/"+vk.String(), r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	require.NoError(t, peer.PutEvent(context.Background(), signed))
}

func TestPeer_ListKeyspace(t *testing.T) {
	var vk event.VerifyingKey
	vk[0] = 3
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(keyspaceResponse{Keys: []string{vk.String()}})
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	keys, err := peer.ListKeyspace(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, vk, keys[0])
}

func TestPeer_NotFoundMapsToKindNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	_, err := peer.StateHash(context.Background())
	assert.True(t, bberrors.Is(err, bberrors.KindNotFound))
}

func TestPeer_ForbiddenMapsToKindBadSignature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	_, err := peer.StateHash(context.Background())
	assert.True(t, bberrors.Is(err, bberrors.KindBadSignature))
}

func TestPeer_ServerErrorMapsToKindTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	_, err := peer.StateHash(context.Background())
	assert.True(t, bberrors.Is(err, bberrors.KindTransport))
}

func TestPeer_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	for i := 0; i < failureThreshold; i++ {
		_, _ = peer.StateHash(context.Background())
	}

	_, err := peer.StateHash(context.Background())
	assert.True(t, bberrors.Is(err, bberrors.KindCircuitOpen))
}

func TestPeer_PutAndGetImmutable(t *testing.T) {
	block := blob.ContentBlock{Data: []byte("payload")}
	hash := block.Hash()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			json.NewEncoder(w).Encode(immutablePutResponse{Hash: hash.String()})
		case http.MethodGet:
			json.NewEncoder(w).Encode(wireContentBlock{Data: canon.EncodeBytes(block.Data)})
		}
	}))
	defer srv.Close()

	peer := NewPeer(srv.URL, time.Second)
	gotHash, err := peer.PutImmutable(context.Background(), block)
	require.NoError(t, err)
	assert.Equal(t, hash, gotHash)

	gotBlock, err := peer.GetImmutable(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, block.Data, gotBlock.Data)
}
