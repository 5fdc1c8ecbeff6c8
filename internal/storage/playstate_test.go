package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsnailee/llm-detective/internal/services"
	"github.com/minsnailee/llm-detective/pkg/session"
)

func testKey() session.Key {
	return session.Key{ScenarioID: "12", SessionID: 34}
}

func setupCache(t *testing.T) services.Cache {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	svc := services.NewRedisService(mr.Addr(), testLogger())
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestTimerStore_RoundTrip(t *testing.T) {
	cache := setupCache(t)
	store := NewTimerStore(cache, testKey())
	ctx := context.Background()

	raw, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", raw, "fresh session has no persisted timer")

	require.NoError(t, store.Save(ctx, 125))

	raw, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "125", raw)

	// The value seeds a fresh mount through the normal precedence chain.
	assert.Equal(t, 125, session.SeedElapsed(-1, -1, raw))
}

func TestNotesStore_RoundTripAndReset(t *testing.T) {
	cache := setupCache(t)
	store := NewNotesStore(cache, testKey())
	ctx := context.Background()

	text, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	require.NoError(t, store.Save(ctx, "B's alibi contradicts the timeline"))

	text, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B's alibi contradicts the timeline", text)

	require.NoError(t, store.Reset(ctx))

	text, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", text, "reset persists the empty string")
}

func TestClueStore_RoundTrip(t *testing.T) {
	cache := setupCache(t)
	store := NewClueStore(cache, testKey())
	ctx := context.Background()

	ids, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.Save(ctx, []string{"e1", "e3"}))

	ids, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e1", "e3"}, ids)

	require.NoError(t, store.Save(ctx, nil))
	ids, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestClueStore_CorruptValueDegrades(t *testing.T) {
	cache := services.NewMockCache()
	key := testKey()
	require.NoError(t, cache.Set(context.Background(), key.ClueKey(), "{not json", 0))

	store := NewClueStore(cache, key)
	ids, err := store.Load(context.Background())
	require.NoError(t, err, "corrupt blob must not block play")
	assert.Empty(t, ids)
}

func TestStores_KeyIsolation(t *testing.T) {
	cache := setupCache(t)
	ctx := context.Background()

	a := session.Key{ScenarioID: "12", SessionID: 34}
	b := session.Key{ScenarioID: "12", SessionID: 35}

	require.NoError(t, NewNotesStore(cache, a).Save(ctx, "session a notes"))

	text, err := NewNotesStore(cache, b).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", text, "another session's notes must be invisible")
}
