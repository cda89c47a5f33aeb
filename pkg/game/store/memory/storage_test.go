package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/game/store"
)

func TestStorage_SaveAndFindByID(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := New()

	rec := game.NewRecord("game-1")
	rec.Players = []*game.Player{{ID: "alice", ChipCount: 1000}}
	require.NoError(t, s.Save(ctx, rec))
	a.EqualValues(1, rec.Version)

	found, err := s.FindByID(ctx, "game-1")
	require.NoError(t, err)
	a.Equal("alice", found.Players[0].ID)

	// the returned record is a copy
	found.Players[0].ChipCount = 0
	again, err := s.FindByID(ctx, "game-1")
	require.NoError(t, err)
	a.Equal(1000, again.Players[0].ChipCount)
}

func TestStorage_FindByIDNotFound(t *testing.T) {
	s := New()
	_, err := s.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestStorage_SaveVersionConflict(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := New()

	rec := game.NewRecord("game-1")
	require.NoError(t, s.Save(ctx, rec))

	stale := game.NewRecord("game-1")
	a.ErrorIs(s.Save(ctx, stale), store.ErrVersionConflict)

	require.NoError(t, s.Save(ctx, rec))
	a.EqualValues(2, rec.Version)
}

func TestStorage_ConditionalUpdate(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	s := New()

	rec := game.NewRecord("game-1")
	require.NoError(t, s.Save(ctx, rec))

	updated, err := s.ConditionalUpdate(ctx, "game-1",
		func(r *game.Record) bool { return !r.Locked },
		func(r *game.Record) { r.Locked = true })
	require.NoError(t, err)
	a.True(updated.Locked)
	a.EqualValues(2, updated.Version)

	_, err = s.ConditionalUpdate(ctx, "game-1",
		func(r *game.Record) bool { return !r.Locked },
		func(r *game.Record) { r.Locked = true })
	a.ErrorIs(err, store.ErrConditionFailed)
}
