package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/ir"
	"github.com/roach88/harvest/internal/replant"
)

// Dispatcher routes host interaction events through a replant handler.
//
// Thread-safety: Dispatch may be called concurrently. The catalog is
// immutable, handlers are stateless and the clock is atomic. The host
// guarantees no two concurrent events for the same position.
type Dispatcher struct {
	catalog  *crop.Catalog
	tags     game.Tags
	handler  replant.Handler
	recorder Recorder
	clock    Sequencer
	ids      IDGenerator
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHandler overrides the handler named in the catalog settings.
func WithHandler(h replant.Handler) Option {
	return func(d *Dispatcher) {
		d.handler = h
	}
}

// WithRecorder attaches a harvest log.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithClock replaces the default clock (starting at 0).
func WithClock(c Sequencer) Option {
	return func(d *Dispatcher) {
		d.clock = c
	}
}

// WithIDGenerator replaces the default UUIDv7 generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Dispatcher) {
		d.ids = g
	}
}

// WithLogger sets the logger for the decision trail and failures.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a Dispatcher for catalog. The handler is resolved from the
// catalog settings unless WithHandler is given.
func New(catalog *crop.Catalog, tags game.Tags, opts ...Option) (*Dispatcher, error) {
	if catalog == nil {
		return nil, errors.New("dispatch: catalog is nil")
	}
	if tags == nil {
		return nil, errors.New("dispatch: tags are nil")
	}

	d := &Dispatcher{
		catalog: catalog,
		tags:    tags,
		clock:   NewClock(),
		ids:     UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.handler == nil {
		h, err := replant.ForCatalog(catalog)
		if err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}
		d.handler = h
	}
	return d, nil
}

// Catalog returns the catalog the dispatcher decides with.
func (d *Dispatcher) Catalog() *crop.Catalog {
	return d.catalog
}

// Report is everything the dispatcher learned about one event.
type Report struct {
	// Result is what the host receives.
	Result game.ActionResult

	// Filtered is true when the event was passed through without a
	// snapshot (client world or off hand). Nothing else is set then.
	Filtered bool

	Outcome replant.Outcome

	// Record is the harvest-log entry; zero when Filtered or when the
	// snapshot could not be taken.
	Record ir.Interaction
}

// Interact handles one host callback and returns the host-visible result.
// A non-nil error always comes with Pass.
func (d *Dispatcher) Interact(ctx context.Context, ev Event) (game.ActionResult, error) {
	r, err := d.Dispatch(ctx, ev)
	return r.Result, err
}

// Dispatch is Interact with the full report.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Report, error) {
	if ev.World == nil || ev.Actor == nil {
		return Report{Result: game.Pass}, errors.New("dispatch: event has no world or actor")
	}
	if ev.World.IsClient() {
		return Report{Result: game.Pass, Filtered: true}, nil
	}
	if ev.Hand != game.MainHand {
		return Report{Result: game.Pass, Filtered: true}, nil
	}
	if err := ctx.Err(); err != nil {
		return Report{Result: game.Pass}, err
	}

	in, err := d.snapshot(ev)
	if err != nil {
		d.logger.Error("interaction snapshot failed", "world", ev.World.Name(), "pos", ev.Pos.String(), "error", err)
		return Report{Result: game.Pass}, err
	}

	out := d.handler.Handle(ctx, in)
	d.explain(in, out)

	result := out.ActionResult()
	var (
		scattered []game.ItemStack
		applyErr  error
	)
	if out.Kind == replant.Replanted {
		scattered, applyErr = d.apply(ev, out)
		if applyErr != nil {
			d.logger.Error("applying replant failed", "world", ev.World.Name(), "pos", ev.Pos.String(), "error", applyErr)
			result = game.Pass
		}
	}

	rec := d.record(ev, in, out, result, scattered)
	if d.recorder != nil {
		if err := d.recorder.WriteInteraction(ctx, rec); err != nil {
			d.logger.Error("failed to record interaction", "id", rec.ID, "seq", rec.Seq, "error", err)
		}
	}

	return Report{Result: result, Outcome: out, Record: rec}, applyErr
}

// snapshot reads everything the handler needs. Drops are only computed for
// crop-tagged blocks; loot rolls are not free on the host side.
func (d *Dispatcher) snapshot(ev Event) (replant.Interaction, error) {
	state, err := ev.World.BlockState(ev.Pos)
	if err != nil {
		return replant.Interaction{}, &HostError{Op: "block_state", Pos: ev.Pos, Err: err}
	}
	entity, err := ev.World.BlockEntity(ev.Pos)
	if err != nil {
		return replant.Interaction{}, &HostError{Op: "block_entity", Pos: ev.Pos, Err: err}
	}

	actor := ev.Actor.ID()
	held := ev.Actor.MainHandStack()

	var drops []game.ItemStack
	if d.tags.IsCrop(state.Block) {
		drops, err = ev.World.Drops(state, ev.Pos, entity, actor, held)
		if err != nil {
			return replant.Interaction{}, &HostError{Op: "drops", Pos: ev.Pos, Err: err}
		}
	}

	return replant.Interaction{
		World:   ev.World.Name(),
		Pos:     ev.Pos,
		State:   state,
		Actor:   actor,
		Held:    held,
		Entity:  entity,
		Drops:   drops,
		Tags:    d.tags,
		Catalog: d.catalog,
	}, nil
}

// apply performs the world mutations for a replant: reset, scatter, swing,
// exhaust. Only a failed reset is returned; the block is still ripe then and
// nothing has been spawned, so the host can break it normally. Once the reset
// has happened the replant stands: a failed spawn is logged and the rest of
// the drops are not scattered. It returns the stacks actually spawned.
func (d *Dispatcher) apply(ev Event, out replant.Outcome) ([]game.ItemStack, error) {
	if out.Reset == nil {
		return nil, &HostError{Op: "set_block_state", Pos: ev.Pos, Err: errors.New("replanted outcome has no reset state")}
	}
	if err := ev.World.SetBlockState(ev.Pos, *out.Reset); err != nil {
		return nil, &HostError{Op: "set_block_state", Pos: ev.Pos, Err: err}
	}

	scattered := make([]game.ItemStack, 0, len(out.Drops))
	for _, stack := range out.Drops {
		if stack.Empty() {
			continue
		}
		if err := ev.World.SpawnStack(ev.Pos, stack); err != nil {
			d.logger.Error("scattering drops failed", "world", ev.World.Name(), "pos", ev.Pos.String(),
				"stack", stack.String(), "error", &HostError{Op: "spawn_stack", Pos: ev.Pos, Err: err})
			break
		}
		scattered = append(scattered, stack)
	}

	ev.Actor.SwingHand(ev.Hand)
	ev.Actor.AddExhaustion(d.catalog.Settings().ExhaustionPerHarvest)
	return scattered, nil
}

// explain writes the decision trail. It is loud only when the catalog asks
// for additional logging.
func (d *Dispatcher) explain(in replant.Interaction, out replant.Outcome) {
	level := slog.LevelDebug
	if d.catalog.Settings().AdditionalLogging {
		level = slog.LevelInfo
	}
	ctx := context.Background()
	if !d.logger.Enabled(ctx, level) {
		return
	}

	base := []any{"world", in.World, "pos", in.Pos.String(), "state", in.State.String()}

	switch {
	case out.Kind == replant.Replanted:
		reset := "<none>"
		if out.Reset != nil {
			reset = out.Reset.String()
		}
		d.logger.Log(ctx, level, "replanted crop", append(base,
			"rule", ruleLabel(out),
			"reset", reset,
			"drops", fmt.Sprint(out.Drops))...)
	case out.Kind == replant.Rejected:
		d.logger.Log(ctx, level, "no seed found in drops", append(base,
			"rule", ruleLabel(out),
			"drops", fmt.Sprint(in.Drops))...)
	case out.Reason == replant.ReasonNoRule:
		args := append(base, "valid_crops", d.catalog.String())
		if r, ok := d.catalog.Closest(in.State.Block); ok {
			args = append(args, "closest", r.String())
		}
		d.logger.Log(ctx, level, "crop state matches no rule", args...)
	default:
		d.logger.Log(ctx, level, "not a crop", base...)
	}
}

func (d *Dispatcher) record(ev Event, in replant.Interaction, out replant.Outcome, result game.ActionResult, scattered []game.ItemStack) ir.Interaction {
	rec := ir.Interaction{
		ID:          d.ids.Generate(),
		Seq:         d.clock.Next(),
		World:       in.World,
		Actor:       in.Actor,
		Hand:        ev.Hand.String(),
		X:           ev.Pos.X,
		Y:           ev.Pos.Y,
		Z:           ev.Pos.Z,
		Before:      in.State.String(),
		Outcome:     out.Kind.String(),
		Result:      result.String(),
		Reason:      out.Reason,
		Drops:       irStacks(in.Drops),
		Scatter:     []ir.Stack{},
		Consumed:    out.Consumed,
		CatalogHash: d.catalog.Hash(),
	}
	rec.Rule = ruleLabel(out)
	if out.Kind == replant.Replanted && result == game.Success {
		rec.After = out.Reset.String()
		rec.Scatter = irStacks(scattered)
	}
	return rec
}

func ruleLabel(out replant.Outcome) string {
	if out.Rule == nil {
		return ""
	}
	return out.Rule.Label
}

func irStacks(stacks []game.ItemStack) []ir.Stack {
	out := make([]ir.Stack, 0, len(stacks))
	for _, s := range stacks {
		if s.Empty() {
			continue
		}
		out = append(out, ir.Stack{Item: string(s.Item), Count: s.Count})
	}
	return out
}
