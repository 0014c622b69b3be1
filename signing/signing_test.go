package signing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaschan/baybridge/event"
)

func TestSignAndVerify(t *testing.T) {
	key, err := Generate()
	require.NoError(t, err)

	signed := key.Sign(event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1})
	assert.True(t, Verify(signed))
	assert.Equal(t, key.VerifyingKey(), signed.VerifyingKey)
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	key, err := Generate()
	require.NoError(t, err)

	signed := key.Sign(event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1})
	signed.Inner = event.SetEvent{Name: "n", Value: event.Value("tampered"), Priority: 1}
	assert.False(t, Verify(signed))
}

func TestVerify_RejectsWrongKey(t *testing.T) {
	key, err := Generate()
	require.NoError(t, err)
	other, err := Generate()
	require.NoError(t, err)

	signed := key.Sign(event.SetEvent{Name: "n", Priority: 1})
	signed.VerifyingKey = other.VerifyingKey()
	assert.False(t, Verify(signed))
}

func TestFromBytes_RoundTripsSeed(t *testing.T) {
	key, err := Generate()
	require.NoError(t, err)

	restored, err := FromBytes(key.Seed())
	require.NoError(t, err)
	assert.Equal(t, key.VerifyingKey(), restored.VerifyingKey())
}

func TestFromBytes_RejectsWrongLength(t *testing.T) {
	_, err := FromBytes([]byte("too short"))
	assert.Error(t, err)
}

func TestLoadOrGenerate_PersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signing.key")

	first, err := LoadOrGenerate(path)
	require.NoError(t, err)

	second, err := LoadOrGenerate(path)
	require.NoError(t, err)

	assert.Equal(t, first.VerifyingKey(), second.VerifyingKey())
}
