package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaschan/baybridge/blob"
	"github.com/nicolaschan/baybridge/event"
	"github.com/nicolaschan/baybridge/internal/logger"
	"github.com/nicolaschan/baybridge/pkg/storage/memory"
	"github.com/nicolaschan/baybridge/signing"
)

func testLogger() logger.Logger {
	return logger.NewLogger(io.Discard, logger.ErrorLevel)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	blobs, err := blob.NewStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	return New("127.0.0.1:0", memory.NewStore(), blobs, nil, testLogger(), nil)
}

func do(s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_HandleInfo(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "baybridge")
}

func TestServer_PutAndGetEvent(t *testing.T) {
	s := newTestServer(t)
	key, err := signing.Generate()
	require.NoError(t, err)
	signed := key.Sign(event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1})

	body, err := signed.MarshalJSON()
	require.NoError(t, err)

	rec := do(s, http.MethodPost, "/keyspace/"+signed.VerifyingKey.String(), body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/keyspace/"+signed.VerifyingKey.String()+"/n", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Events []event.Signed `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Events, 1)
	assert.Equal(t, event.Value("v"), out.Events[0].Inner.(event.SetEvent).Value)
}

func TestServer_PutEventRejectsBadSignature(t *testing.T) {
	s := newTestServer(t)
	var vk event.VerifyingKey
	vk[0] = 1
	tampered := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1}, VerifyingKey: vk}
	body, err := tampered.MarshalJSON()
	require.NoError(t, err)

	rec := do(s, http.MethodPost, "/keyspace/"+vk.String(), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_PutEventRejectsVerifyingKeyMismatch(t *testing.T) {
	s := newTestServer(t)
	key, err := signing.Generate()
	require.NoError(t, err)
	signed := key.Sign(event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1})
	body, err := signed.MarshalJSON()
	require.NoError(t, err)

	var otherVK event.VerifyingKey
	otherVK[0] = 0xee
	rec := do(s, http.MethodPost, "/keyspace/"+otherVK.String(), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_ListKeyspaceReturnsDistinctKeys(t *testing.T) {
	s := newTestServer(t)
	keyA, err := signing.Generate()
	require.NoError(t, err)
	keyB, err := signing.Generate()
	require.NoError(t, err)

	for _, k := range []signing.SigningKey{keyA, keyB} {
		signed := k.Sign(event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1})
		body, err := signed.MarshalJSON()
		require.NoError(t, err)
		rec := do(s, http.MethodPost, "/keyspace/"+signed.VerifyingKey.String(), body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(s, http.MethodGet, "/keyspace", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Keys []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Keys, 2)
}

func TestServer_GetKeyspaceMissingReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	var vk event.VerifyingKey
	vk[0] = 2
	rec := do(s, http.MethodGet, "/keyspace/"+vk.String()+"/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_GetKeyspaceExpiredReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	key, err := signing.Generate()
	require.NoError(t, err)
	past := uint64(1)
	signed := key.Sign(event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1, ExpiresAt: &past})

	body, err := signed.MarshalJSON()
	require.NoError(t, err)
	rec := do(s, http.MethodPost, "/keyspace/"+signed.VerifyingKey.String(), body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/keyspace/"+signed.VerifyingKey.String()+"/n", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "an expired event must read as not-found (ValueExpired maps to the same status)")
}

func TestServer_SyncStateAndEvents(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, http.MethodGet, "/sync/state", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/sync/events", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_PutAndGetImmutable(t *testing.T) {
	s := newTestServer(t)
	wire := map[string]any{"data": "aGVsbG8", "references": []string{}}
	body, err := json.Marshal(wire)
	require.NoError(t, err)

	rec := do(s, http.MethodPost, "/immutable", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var putOut struct {
		Hash string `json:"hash"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &putOut))

	rec = do(s, http.MethodGet, "/immutable/"+putOut.Hash, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_GetImmutableMissingReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	missing := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	rec := do(s, http.MethodGet, "/immutable/"+missing, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ShutdownWithoutListenReturnsNil(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Shutdown(context.Background()))
}
