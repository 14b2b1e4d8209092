package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/harvest/internal/config"
	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/dispatch"
	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/sim"
	"github.com/roach88/harvest/internal/store"
	"github.com/roach88/harvest/internal/testutil"
)

// errInjected is what a world operation returns under host_failure.
var errInjected = errors.New("injected host failure")

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and sequential ids.
type Harness struct {
	store      *store.Store
	world      *sim.World
	client     *sim.World
	player     *sim.Player
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
// 1. Load the catalog (file, inline or default)
// 2. Build the world, loot tables and player
// 3. Dispatch each interaction and check its expect clause
// 4. Read the harvest log back as the trace
// 5. Evaluate assertions
//
// An error means the scenario could not run at all; failed expectations
// are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, testutil.DiscardLogger())
}

// RunWithLogger is Run with the dispatcher's decision trail sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	catalog, err := loadCatalog(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	content, err := config.Marshal(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := st.WriteCatalog(ctx, catalog.Hash(), content, catalog.Len()); err != nil {
		return nil, fmt.Errorf("failed to record catalog: %w", err)
	}

	h, err := newHarness(scenario, catalog, st, logger)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Interactions {
		h.executeStep(ctx, i, step, result)
	}

	trace, err := st.ReadRecent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = trace

	for _, pos := range h.world.Positions() {
		state, err := h.world.BlockState(pos)
		if err != nil {
			return nil, fmt.Errorf("failed to read final block at %s: %w", pos, err)
		}
		result.Final[pos.String()] = state.String()
	}

	actx := &AssertionContext{
		Trace:  result.Trace,
		World:  h.world,
		Player: h.player,
	}
	for _, msg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func newHarness(s *Scenario, catalog *crop.Catalog, st *store.Store, logger *slog.Logger) (*Harness, error) {
	worldName := s.World
	if worldName == "" {
		worldName = DefaultWorld
	}
	actor := s.Actor
	if actor == "" {
		actor = DefaultActor
	}

	world := sim.NewWorld(worldName)
	for _, b := range s.Blocks {
		state, err := game.ParseBlockState(b.State)
		if err != nil {
			return nil, fmt.Errorf("block %v: %w", b.Pos, err)
		}
		world.Place(toPos(b.Pos), state)
		if b.Entity != nil {
			world.SetEntity(toPos(b.Pos), b.Entity)
		}
	}
	for _, l := range s.Loot {
		key, err := lootKey(l.Block)
		if err != nil {
			return nil, err
		}
		drops := make([]game.ItemStack, len(l.Drops))
		for i, d := range l.Drops {
			drops[i] = toStack(d)
		}
		world.SetLoot(key, drops...)
	}

	var held game.ItemStack
	if s.Held != nil {
		held = toStack(*s.Held)
	}
	player := sim.NewPlayer(actor, held)

	d, err := dispatch.New(catalog, buildTags(s.Tags),
		dispatch.WithRecorder(st),
		dispatch.WithClock(testutil.NewDeterministicClock()),
		dispatch.WithIDGenerator(testutil.NewSequentialIDGenerator("int")),
		dispatch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	return &Harness{
		store:      st,
		world:      world,
		client:     sim.NewClientWorld(worldName),
		player:     player,
		dispatcher: d,
		logger:     logger,
	}, nil
}

// executeStep dispatches one interaction and checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step InteractionStep, result *Result) {
	hand, _ := game.ParseHand(step.Hand)
	pos := toPos(step.Pos)

	var world dispatch.World = h.world
	if step.Client {
		world = h.client
	}

	op := sim.Op(step.HostFailure)
	if op != "" {
		h.world.FailOn(op, errInjected)
	}
	spawnedBefore := len(h.world.Spawned())

	report, err := h.dispatcher.Dispatch(ctx, dispatch.Event{
		World:  world,
		Actor:  h.player,
		Hand:   hand,
		Pos:    pos,
		Facing: game.Up,
	})

	if op != "" {
		h.world.FailOn(op, nil)
	}

	sr := StepResult{
		Index:    i,
		Result:   report.Result.String(),
		Filtered: report.Filtered,
	}
	if !report.Filtered && report.Record.ID != "" {
		sr.Outcome = report.Outcome.Kind.String()
	}
	if err != nil {
		sr.Error = err.Error()
	}
	result.Steps = append(result.Steps, sr)

	expectErr := step.Expect != nil && step.Expect.Error
	switch {
	case err != nil && !expectErr:
		result.AddError(fmt.Sprintf("interactions[%d]: unexpected error: %v", i, err))
	case err == nil && expectErr:
		result.AddError(fmt.Sprintf("interactions[%d]: expected an error, got none", i))
	}
	if step.Expect == nil {
		return
	}

	want := step.Expect
	if want.Result != "" && want.Result != sr.Result {
		result.AddError(fmt.Sprintf("interactions[%d]: expected result %q, got %q", i, want.Result, sr.Result))
	}
	if want.Outcome != "" {
		got := sr.Outcome
		if sr.Filtered {
			got = ExpectFiltered
		}
		if want.Outcome != got {
			result.AddError(fmt.Sprintf("interactions[%d]: expected outcome %q, got %q", i, want.Outcome, got))
		}
	}
	if want.Block != "" {
		expected, _ := game.ParseBlockState(want.Block)
		actual, err := h.world.BlockState(pos)
		if err != nil {
			result.AddError(fmt.Sprintf("interactions[%d]: reading block: %v", i, err))
		} else if !actual.Equal(expected) {
			result.AddError(fmt.Sprintf("interactions[%d]: expected block %s, got %s", i, expected, actual))
		}
	}
	if want.Scatter != nil {
		got := h.world.Spawned()[spawnedBefore:]
		if msg := compareScatter(want.Scatter, got); msg != "" {
			result.AddError(fmt.Sprintf("interactions[%d]: %s", i, msg))
		}
	}
}

func compareScatter(want []StackSpec, got []sim.Spawn) string {
	if len(want) != len(got) {
		return fmt.Sprintf("expected %d scattered stacks, got %d (%v)", len(want), len(got), spawnStacks(got))
	}
	for i, w := range want {
		ws := toStack(w)
		if got[i].Stack != ws {
			return fmt.Sprintf("scatter[%d]: expected %s, got %s", i, ws, got[i].Stack)
		}
	}
	return ""
}

func spawnStacks(spawns []sim.Spawn) []game.ItemStack {
	out := make([]game.ItemStack, len(spawns))
	for i, s := range spawns {
		out[i] = s.Stack
	}
	return out
}

// loadCatalog picks the scenario's catalog source: a config file, an
// inline document, or the built-in default.
func loadCatalog(s *Scenario) (*crop.Catalog, error) {
	switch {
	case s.Config != "":
		return config.Load(s.Config)
	case s.Catalog != nil:
		data, err := json.Marshal(s.Catalog)
		if err != nil {
			return nil, fmt.Errorf("inline catalog: %w", err)
		}
		return config.Parse("inline.json", data)
	default:
		return crop.Default(), nil
	}
}

func buildTags(ts *TagSpec) game.Tags {
	if ts == nil {
		return game.DefaultTags()
	}
	crops := make([]game.Identifier, len(ts.Crops))
	for i, c := range ts.Crops {
		crops[i] = game.MustIdentifier(c)
	}
	seeds := make([]game.Identifier, len(ts.Seeds))
	for i, sd := range ts.Seeds {
		seeds[i] = game.MustIdentifier(sd)
	}
	return game.NewTagSet(crops, seeds)
}

// lootKey normalizes a loot key to the form the world looks it up by.
func lootKey(raw string) (string, error) {
	if strings.Contains(raw, "[") {
		state, err := game.ParseBlockState(raw)
		if err != nil {
			return "", fmt.Errorf("loot key: %w", err)
		}
		return state.String(), nil
	}
	id, err := game.ParseIdentifier(raw)
	if err != nil {
		return "", fmt.Errorf("loot key: %w", err)
	}
	return string(id), nil
}
