package storage

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/game/rule"
	"github.com/palemoky/turn-party/internal/game/session"
)

func testSnapshot(id string) session.Snapshot {
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return session.Snapshot{
		SessionID: id,
		GameType:  rule.WordChain,
		State:     "active",
		CreatorID: "p1",
		Players: []session.PlayerView{
			{ID: "p1", Name: "Alice", Score: 2, Connected: true},
			{ID: "p2", Name: "Bob", Score: 1, Connected: true},
		},
		CurrentPlayerID: "p2",
		TurnSeq:         4,
		Data:            rule.WordChainData{Words: []string{"apple", "egg", "goat"}},
		HistoryLen:      3,
		Version:         7,
		CreatedAt:       at,
		UpdatedAt:       at.Add(time.Minute),
	}
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	t.Parallel()

	client, mr := newTestClient(t)
	store := NewSnapshotStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot("s1")))
	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+"s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "s1", loaded.SessionID)
	assert.Equal(t, rule.WordChain, loaded.GameType)
	assert.Equal(t, uint64(4), loaded.TurnSeq)
	assert.Equal(t, uint64(7), loaded.Version)
	assert.Len(t, loaded.Players, 2)
	assert.True(t, loaded.UpdatedAt.Equal(testSnapshot("s1").UpdatedAt))

	data, ok := loaded.Data.(map[string]any)
	require.True(t, ok)
	assert.Len(t, data["words"], 3)
}

func TestSnapshotStore_Missing(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	store := NewSnapshotStore(client, 0)

	loaded, err := store.Load(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSnapshotStore_Expires(t *testing.T) {
	t.Parallel()

	client, mr := newTestClient(t)
	store := NewSnapshotStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot("s1")))
	mr.FastForward(2 * time.Minute)

	loaded, err := store.Load(ctx, "s1")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSnapshotStore_IDsAndDelete(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	store := NewSnapshotStore(client, 0)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, testSnapshot(id)))
	}
	require.NoError(t, client.Set(ctx, "other:key", "x", 0).Err())
	require.NoError(t, store.Delete(ctx, "b"))

	ids, err := store.IDs(ctx)
	require.NoError(t, err)
	sort.Strings(ids)
	assert.Equal(t, []string{"a", "c"}, ids)
}
