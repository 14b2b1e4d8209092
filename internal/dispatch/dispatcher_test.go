package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/ir"
	"github.com/roach88/harvest/internal/replant"
	"github.com/roach88/harvest/internal/sim"
	"github.com/roach88/harvest/internal/testutil"
)

var (
	_ World = (*sim.World)(nil)
	_ Actor = (*sim.Player)(nil)
)

const (
	wheat      = game.Identifier("minecraft:wheat")
	wheatSeeds = game.Identifier("minecraft:wheat_seeds")
)

var farm = game.BlockPos{X: 10, Y: 64, Z: -4}

type memRecorder struct {
	mu      sync.Mutex
	records []ir.Interaction
	err     error
}

func (r *memRecorder) WriteInteraction(_ context.Context, in ir.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, in)
	return nil
}

type fixture struct {
	world    *sim.World
	player   *sim.Player
	recorder *memRecorder
	d        *Dispatcher
}

func newFixture(t *testing.T, catalog *crop.Catalog, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		world:    sim.NewWorld("overworld"),
		player:   sim.NewPlayer("steve", game.Stack("minecraft:iron_hoe", 1)),
		recorder: &memRecorder{},
	}
	base := []Option{
		WithRecorder(f.recorder),
		WithClock(testutil.NewDeterministicClock()),
		WithIDGenerator(testutil.NewSequentialIDGenerator("int")),
		WithLogger(testutil.DiscardLogger()),
	}
	d, err := New(catalog, game.DefaultTags(), append(base, opts...)...)
	require.NoError(t, err)
	f.d = d
	return f
}

func (f *fixture) event() Event {
	return Event{World: f.world, Actor: f.player, Hand: game.MainHand, Pos: farm, Facing: game.Up, Hit: Vec3{X: 10.5, Y: 64.9, Z: -3.5}}
}

func wheatOnly() *crop.Catalog {
	return crop.NewCatalog([]crop.Rule{crop.NewRule(wheat, 7)}, crop.DefaultSettings())
}

func TestInteract_ReplantsRipeWheat(t *testing.T) {
	f := newFixture(t, wheatOnly())
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat[age=7]", game.Stack(wheatSeeds, 1), game.Stack(wheat, 3))

	result, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)
	assert.Equal(t, game.Success, result)

	assert.Equal(t, []sim.Spawn{{Pos: farm, Stack: game.Stack(wheat, 3)}}, f.world.Spawned())
	placed := f.world.Placed()
	require.Len(t, placed, 1)
	assert.Equal(t, "minecraft:wheat[age=0]", placed[0].State.String())

	assert.Equal(t, []game.Hand{game.MainHand}, f.player.Swings())
	assert.InDelta(t, crop.DefaultExhaustionPerHarvest, f.player.Exhaustion(), 1e-12)

	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, "int-0001", rec.ID)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, "replanted", rec.Outcome)
	assert.Equal(t, "success", rec.Result)
	assert.Equal(t, "wheat", rec.Rule)
	assert.Equal(t, "minecraft:wheat[age=7]", rec.Before)
	assert.Equal(t, "minecraft:wheat[age=0]", rec.After)
	assert.Equal(t, []ir.Stack{{Item: "minecraft:wheat_seeds", Count: 1}, {Item: "minecraft:wheat", Count: 3}}, rec.Drops)
	assert.Equal(t, []ir.Stack{{Item: "minecraft:wheat", Count: 3}}, rec.Scatter)
	assert.Equal(t, 1, rec.Consumed)
	assert.Equal(t, f.d.Catalog().Hash(), rec.CatalogHash)
	assert.Equal(t, [3]int{10, 64, -4}, [3]int{rec.X, rec.Y, rec.Z})
}

func TestInteract_RejectsWithoutSeed(t *testing.T) {
	f := newFixture(t, wheatOnly())
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat", game.Stack(wheat, 2))

	result, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)
	assert.Equal(t, game.Failure, result)

	assert.Empty(t, f.world.Spawned())
	assert.Empty(t, f.world.Placed())
	assert.Empty(t, f.player.Swings())
	assert.Zero(t, f.player.Exhaustion())

	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, "rejected", rec.Outcome)
	assert.Equal(t, replant.ReasonNoSeed, rec.Reason)
	assert.Empty(t, rec.After)
	assert.Empty(t, rec.Scatter)
}

func TestInteract_PassesNonCrops(t *testing.T) {
	f := newFixture(t, crop.Default())
	f.world.Place(farm, game.NewBlockState("minecraft:stone"))
	f.world.FailOn(sim.OpDrops, errors.New("drops must not be computed for stone"))

	result, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)
	assert.Equal(t, game.Pass, result)
	assert.Empty(t, f.world.Placed())

	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, "not_applicable", f.recorder.records[0].Outcome)
	assert.Equal(t, replant.ReasonNotCrop, f.recorder.records[0].Reason)
}

func TestInteract_PassesUnripeCrop(t *testing.T) {
	f := newFixture(t, crop.Default())
	f.world.Place(farm, game.NewBlockState(wheat, "age", "3"))
	f.world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 1))

	result, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)
	assert.Equal(t, game.Pass, result)
	assert.Empty(t, f.world.Spawned())
	assert.Equal(t, replant.ReasonNoRule, f.recorder.records[0].Reason)
}

func TestInteract_FiltersClientWorldAndOffHand(t *testing.T) {
	f := newFixture(t, crop.Default())
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 2))

	client := sim.NewClientWorld("overworld")
	client.Place(farm, game.NewBlockState(wheat, "age", "7"))

	ev := f.event()
	ev.World = client
	r, err := f.d.Dispatch(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, game.Pass, r.Result)
	assert.True(t, r.Filtered)

	ev = f.event()
	ev.Hand = game.OffHand
	r, err = f.d.Dispatch(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, game.Pass, r.Result)
	assert.True(t, r.Filtered)

	assert.Empty(t, f.world.Placed())
	assert.Empty(t, client.Placed())
	assert.Empty(t, f.recorder.records, "filtered events are not recorded")
}

func TestInteract_HostReadFailureFailsOpen(t *testing.T) {
	for _, op := range []sim.Op{sim.OpBlockState, sim.OpBlockEntity, sim.OpDrops} {
		t.Run(string(op), func(t *testing.T) {
			f := newFixture(t, crop.Default())
			f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
			f.world.FailOn(op, errors.New("chunk unloaded"))

			result, err := f.d.Interact(context.Background(), f.event())
			assert.Equal(t, game.Pass, result)
			require.Error(t, err)
			assert.True(t, IsHostError(err))

			var he *HostError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, string(op), he.Op)
			assert.Empty(t, f.recorder.records)
		})
	}
}

func TestInteract_HostWriteFailureFailsOpen(t *testing.T) {
	f := newFixture(t, crop.Default())
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 2), game.Stack(wheat, 3))
	f.world.FailOn(sim.OpSetBlockState, errors.New("read-only world"))

	result, err := f.d.Interact(context.Background(), f.event())
	assert.Equal(t, game.Pass, result)
	assert.True(t, IsHostError(err))
	assert.Empty(t, f.player.Swings())
	assert.Empty(t, f.world.Spawned(), "no loot may be scattered when the crop stays ripe")

	state, err := f.world.BlockState(farm)
	require.NoError(t, err)
	assert.Equal(t, "minecraft:wheat[age=7]", state.String())

	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, "replanted", rec.Outcome)
	assert.Equal(t, "pass", rec.Result)
	assert.Empty(t, rec.After)
	assert.Empty(t, rec.Scatter)
}

func TestInteract_SpawnFailureAfterResetKeepsReplant(t *testing.T) {
	logger, logs := testutil.CaptureLogger(slog.LevelDebug)
	f := newFixture(t, crop.Default(), WithLogger(logger))
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat",
		game.Stack(wheatSeeds, 2), game.Stack(wheat, 3), game.Stack("minecraft:poppy", 1))
	f.world.FailAfter(sim.OpSpawnStack, 1, errors.New("entity cap reached"))

	result, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)
	assert.Equal(t, game.Success, result)
	assert.Len(t, f.player.Swings(), 1)

	spawned := f.world.Spawned()
	require.Len(t, spawned, 1)
	assert.Equal(t, game.Stack(wheatSeeds, 1), spawned[0].Stack)

	state, err := f.world.BlockState(farm)
	require.NoError(t, err)
	assert.Equal(t, "minecraft:wheat[age=0]", state.String())

	require.Len(t, f.recorder.records, 1)
	rec := f.recorder.records[0]
	assert.Equal(t, "success", rec.Result)
	assert.Equal(t, "minecraft:wheat[age=0]", rec.After)
	assert.Equal(t, []ir.Stack{{Item: "minecraft:wheat_seeds", Count: 1}}, rec.Scatter)
	assert.Contains(t, logs.String(), "scattering drops failed")
	assert.Contains(t, logs.String(), "entity cap reached")
}

func TestInteract_RecorderFailureIsNotFatal(t *testing.T) {
	logger, logs := testutil.CaptureLogger(slog.LevelDebug)
	f := newFixture(t, crop.Default(), WithLogger(logger))
	f.recorder.err = errors.New("disk full")
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 2))

	result, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)
	assert.Equal(t, game.Success, result)
	assert.Contains(t, logs.String(), "failed to record interaction")
	assert.Contains(t, logs.String(), "disk full")
}

func TestInteract_SkipsEmptyScatterStacks(t *testing.T) {
	f := newFixture(t, crop.Default())
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 1))

	result, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)
	assert.Equal(t, game.Success, result)
	assert.Empty(t, f.world.Spawned(), "the only stack was the consumed seed")
}

func TestInteract_CancelledContext(t *testing.T) {
	f := newFixture(t, crop.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.d.Interact(ctx, f.event())
	assert.Equal(t, game.Pass, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInteract_MissingWorld(t *testing.T) {
	f := newFixture(t, crop.Default())
	result, err := f.d.Interact(context.Background(), Event{Actor: f.player})
	assert.Equal(t, game.Pass, result)
	assert.Error(t, err)
}

func TestInteract_CustomHandler(t *testing.T) {
	never := replant.HandlerFunc(func(context.Context, replant.Interaction) replant.Outcome {
		return replant.NotApplicableOutcome("disabled")
	})
	f := newFixture(t, crop.Default(), WithHandler(never))
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 2))

	result, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)
	assert.Equal(t, game.Pass, result)
	assert.Equal(t, "disabled", f.recorder.records[0].Reason)
}

func TestInteract_HandlerSeesSnapshot(t *testing.T) {
	var got replant.Interaction
	spy := replant.HandlerFunc(func(ctx context.Context, in replant.Interaction) replant.Outcome {
		got = in
		return replant.DefaultHandler{}.Handle(ctx, in)
	})
	f := newFixture(t, crop.Default(), WithHandler(spy))
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetEntity(farm, map[string]string{"fertilized": "true"})
	f.world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 2))

	_, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)

	assert.Equal(t, "overworld", got.World)
	assert.Equal(t, farm, got.Pos)
	assert.Equal(t, "steve", got.Actor)
	assert.Equal(t, game.Identifier("minecraft:iron_hoe"), got.Held.Item)
	assert.Equal(t, map[string]string{"fertilized": "true"}, got.Entity)
	assert.Equal(t, []game.ItemStack{game.Stack(wheatSeeds, 2)}, got.Drops)
	assert.Same(t, f.d.Catalog(), got.Catalog)
}

func TestInteract_BrokenHandlerWithoutResetFailsOpen(t *testing.T) {
	broken := replant.HandlerFunc(func(context.Context, replant.Interaction) replant.Outcome {
		r := crop.NewRule(wheat, 7)
		return replant.Outcome{Kind: replant.Replanted, Rule: &r, Consumed: 1}
	})
	f := newFixture(t, crop.Default(), WithHandler(broken))
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))

	result, err := f.d.Interact(context.Background(), f.event())
	assert.Equal(t, game.Pass, result)
	assert.True(t, IsHostError(err))
	assert.Empty(t, f.world.Placed())
}

func TestInteract_SequenceAcrossEvents(t *testing.T) {
	f := newFixture(t, crop.Default())
	f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
	f.world.SetLoot("minecraft:wheat[age=7]", game.Stack(wheatSeeds, 2))

	for i := 0; i < 3; i++ {
		_, err := f.d.Interact(context.Background(), f.event())
		require.NoError(t, err)
	}

	require.Len(t, f.recorder.records, 3)
	assert.Equal(t, "replanted", f.recorder.records[0].Outcome)
	// The crop is now at age 0 and no longer matches.
	assert.Equal(t, "not_applicable", f.recorder.records[1].Outcome)
	for i, rec := range f.recorder.records {
		assert.Equal(t, int64(i+1), rec.Seq)
	}
	assert.Equal(t, "int-0003", f.recorder.records[2].ID)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, game.DefaultTags())
	assert.Error(t, err)

	_, err = New(crop.Default(), nil)
	assert.Error(t, err)

	unknown := crop.NewCatalog(nil, crop.Settings{Handler: "missing"})
	_, err = New(unknown, game.DefaultTags())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown replant handler")
}

func TestExplain_LevelFollowsAdditionalLogging(t *testing.T) {
	quiet := crop.NewCatalog(crop.DefaultRules(), crop.DefaultSettings())
	loudSettings := crop.DefaultSettings()
	loudSettings.AdditionalLogging = true
	loud := crop.NewCatalog(crop.DefaultRules(), loudSettings)

	for _, tc := range []struct {
		name    string
		catalog *crop.Catalog
		logged  bool
	}{
		{"quiet", quiet, false},
		{"loud", loud, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger, logs := testutil.CaptureLogger(slog.LevelInfo)
			f := newFixture(t, tc.catalog, WithLogger(logger))
			f.world.Place(farm, game.NewBlockState(wheat, "age", "7"))
			f.world.SetLoot("minecraft:wheat", game.Stack(wheatSeeds, 2))

			_, err := f.d.Interact(context.Background(), f.event())
			require.NoError(t, err)

			if tc.logged {
				assert.Contains(t, logs.String(), "replanted crop")
				assert.Contains(t, logs.String(), "rule=Wheat")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestExplain_NoRuleListsValidCrops(t *testing.T) {
	logger, logs := testutil.CaptureLogger(slog.LevelDebug)
	f := newFixture(t, crop.Default(), WithLogger(logger))
	f.world.Place(farm, game.NewBlockState(wheat, "age", "5"))

	_, err := f.d.Interact(context.Background(), f.event())
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "crop state matches no rule")
	assert.Contains(t, out, "Wheat{minecraft:wheat[age=7]}")
	assert.Contains(t, out, "closest=")
}
