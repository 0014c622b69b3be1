package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolaschan/baybridge/canon"
	"github.com/nicolaschan/baybridge/event"
	"github.com/nicolaschan/baybridge/pkg/storage"
)

func mkKey(b byte) event.VerifyingKey {
	var k event.VerifyingKey
	for i := range k {
		k[i] = b
	}
	return k
}

func TestStore_InsertNewEventReturnsOne(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	signed := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1}, VerifyingKey: mkKey(1)}
	n, err := s.Insert(ctx, signed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_InsertDuplicateIsNoOp(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1}, VerifyingKey: mkKey(1)}

	_, err := s.Insert(ctx, signed)
	require.NoError(t, err)
	n, err := s.Insert(ctx, signed)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_InsertHigherPriorityEvictsLower(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	vk := mkKey(1)

	low := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("old"), Priority: 1}, VerifyingKey: vk}
	high := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("new"), Priority: 2}, VerifyingKey: vk}

	_, err := s.Insert(ctx, low)
	require.NoError(t, err)
	n, err := s.Insert(ctx, high)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events, _, err := s.EventsFor(ctx, vk, "n", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, high, events[0])
}

func TestStore_InsertLowerPriorityIsStale(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	vk := mkKey(1)

	high := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("new"), Priority: 2}, VerifyingKey: vk}
	low := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("old"), Priority: 1}, VerifyingKey: vk}

	_, err := s.Insert(ctx, high)
	require.NoError(t, err)
	n, err := s.Insert(ctx, low)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	events, _, err := s.EventsFor(ctx, vk, "n", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, high, events[0])
}

func TestStore_DeleteExpiredRemovesPastEvents(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	expires := uint64(100)
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1, ExpiresAt: &expires}, VerifyingKey: mkKey(1)}

	_, err := s.Insert(ctx, signed)
	require.NoError(t, err)

	removed, err := s.DeleteExpired(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_DeleteExpiredLeavesFreshEvents(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	future := uint64(1000)
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Value: event.Value("v"), Priority: 1, ExpiresAt: &future}, VerifyingKey: mkKey(1)}

	_, err := s.Insert(ctx, signed)
	require.NoError(t, err)

	removed, err := s.DeleteExpired(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestStore_AllEventsHidesExpiredEventsBeforeGC(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	expires := uint64(100)
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1, ExpiresAt: &expires}, VerifyingKey: mkKey(1)}

	_, err := s.Insert(ctx, signed)
	require.NoError(t, err)

	events, err := s.AllEvents(ctx, 200)
	require.NoError(t, err)
	assert.Empty(t, events)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "expiry filtering must not delete the row, only hide it from reads")
}

func TestStore_EventsForHidesExpiredEventsBeforeGC(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	expires := uint64(100)
	vk := mkKey(1)
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1, ExpiresAt: &expires}, VerifyingKey: vk}

	_, err := s.Insert(ctx, signed)
	require.NoError(t, err)

	events, hadExpired, err := s.EventsFor(ctx, vk, "n", 200)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.True(t, hadExpired)
}

func TestStore_EventsForReportsNotFoundWhenNothingEverStored(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	events, hadExpired, err := s.EventsFor(ctx, mkKey(1), "missing", 200)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.False(t, hadExpired)
}

func TestStore_EventsForNameHidesExpiredEventsBeforeGC(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	expires := uint64(100)
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1, ExpiresAt: &expires}, VerifyingKey: mkKey(1)}

	_, err := s.Insert(ctx, signed)
	require.NoError(t, err)

	events, err := s.EventsForName(ctx, "n", 200)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_StateHashExcludesExpiredEvents(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	expires := uint64(100)
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1, ExpiresAt: &expires}, VerifyingKey: mkKey(1)}

	_, err := s.Insert(ctx, signed)
	require.NoError(t, err)

	got, err := s.StateHash(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, event.StateHash(nil), got)
}

func TestStore_EventsForNameSpansPrincipals(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1}, VerifyingKey: mkKey(1)}
	b := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1}, VerifyingKey: mkKey(2)}

	_, err := s.Insert(ctx, a)
	require.NoError(t, err)
	_, err = s.Insert(ctx, b)
	require.NoError(t, err)

	events, err := s.EventsForName(ctx, "n", 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestStore_AllEventsSortedByEnvelope(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1}, VerifyingKey: mkKey(0xff)}
	b := event.Signed{Inner: event.SetEvent{Name: "m", Priority: 1}, VerifyingKey: mkKey(0x01)}

	_, err := s.Insert(ctx, a)
	require.NoError(t, err)
	_, err = s.Insert(ctx, b)
	require.NoError(t, err)

	events, err := s.AllEvents(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, event.SortByEnvelope([]event.Signed{a, b}), events)
}

func TestStore_PeerLastHashRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, ok, err := s.GetPeerLastHash(ctx, "http://peer")
	require.NoError(t, err)
	assert.False(t, ok)

	hash := canon.Sum([]byte("state"))
	require.NoError(t, s.SetPeerLastHash(ctx, "http://peer", hash))

	got, ok, err := s.GetPeerLastHash(ctx, "http://peer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, hash, got)
}

func TestStore_StateHashMatchesEventStateHash(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	signed := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1}, VerifyingKey: mkKey(1)}

	_, err := s.Insert(ctx, signed)
	require.NoError(t, err)

	got, err := s.StateHash(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, event.StateHash([]event.Signed{signed}), got)
}

func TestStore_Close(t *testing.T) {
	s := NewStore()
	assert.NoError(t, s.Close())
}

func TestStore_InsertAfterCloseReturnsErrClosed(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Close())

	signed := event.Signed{Inner: event.SetEvent{Name: "n", Priority: 1}, VerifyingKey: mkKey(1)}
	_, err := s.Insert(context.Background(), signed)
	assert.ErrorIs(t, err, storage.ErrClosed)
}
