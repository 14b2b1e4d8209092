package dispatch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/sim"
	"github.com/roach88/harvest/internal/store"
	"github.com/roach88/harvest/internal/testutil"
)

var _ Recorder = (*store.Store)(nil)

func TestDispatch_RecordsToHarvestLog(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	world := sim.NewWorld("overworld")
	world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 2), game.Stack(wheat, 1))
	player := sim.NewPlayer("alex", game.ItemStack{})

	maxSeq, err := s.MaxSeq(ctx)
	require.NoError(t, err)

	d, err := New(crop.Default(), game.DefaultTags(),
		WithRecorder(s),
		WithClock(NewClockAt(maxSeq)),
		WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)

	r, err := d.Dispatch(ctx, Event{World: world, Actor: player, Hand: game.MainHand, Pos: farm})
	require.NoError(t, err)
	assert.Equal(t, game.Success, r.Result)

	got, err := s.ReadInteraction(ctx, r.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Record, got)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, map[string]int{"Wheat": 1}, stats.ByRule)
	assert.Equal(t, int64(1), stats.LastSeq)
}

func TestDispatch_DuplicateIDKeepsFirstRecord(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	world := sim.NewWorld("overworld")
	world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 2))
	player := sim.NewPlayer("alex", game.ItemStack{})

	d, err := New(crop.Default(), game.DefaultTags(),
		WithRecorder(s),
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewFixedIDGenerator("replayed-event")),
		WithLogger(testutil.DiscardLogger()),
	)
	require.NoError(t, err)

	ev := Event{World: world, Actor: player, Hand: game.MainHand, Pos: farm}
	first, err := d.Dispatch(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, "replayed-event", first.Record.ID)
	assert.Equal(t, game.Success, first.Result)

	// the block is now age 0, so the retry is a different decision
	second, err := d.Dispatch(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, "replayed-event", second.Record.ID)
	assert.Equal(t, game.Pass, second.Result)

	got, err := s.ReadInteraction(ctx, "replayed-event")
	require.NoError(t, err)
	assert.Equal(t, first.Record, got)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}
