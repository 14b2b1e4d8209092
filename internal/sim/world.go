package sim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/harvest/internal/game"
)

// Op names a world operation, used for failure injection.
type Op string

const (
	OpBlockState    Op = "block_state"
	OpBlockEntity   Op = "block_entity"
	OpDrops         Op = "drops"
	OpSpawnStack    Op = "spawn_stack"
	OpSetBlockState Op = "set_block_state"
)

// Spawn is one stack dropped into the world.
type Spawn struct {
	Pos   game.BlockPos  `json:"pos"`
	Stack game.ItemStack `json:"stack"`
}

// Placement is one block state change.
type Placement struct {
	Pos   game.BlockPos   `json:"pos"`
	State game.BlockState `json:"state"`
}

// World is an in-memory world.
//
// Loot is looked up by the full state string first ("minecraft:wheat[age=7]")
// and then by block id; blocks with no entry drop nothing. Unset positions
// read as minecraft:air.
//
// Thread-safety: all methods are safe for concurrent use.
type World struct {
	mu       sync.Mutex
	name     string
	client   bool
	blocks   map[game.BlockPos]game.BlockState
	entities map[game.BlockPos]map[string]string
	loot     map[string][]game.ItemStack
	failures map[Op]error
	grace    map[Op]int

	spawned []Spawn
	placed  []Placement
}

// Air is the state of an unset position.
var Air = game.NewBlockState("minecraft:air")

// NewWorld creates an empty server-side world.
func NewWorld(name string) *World {
	return &World{
		name:     name,
		blocks:   make(map[game.BlockPos]game.BlockState),
		entities: make(map[game.BlockPos]map[string]string),
		loot:     make(map[string][]game.ItemStack),
		failures: make(map[Op]error),
		grace:    make(map[Op]int),
	}
}

// NewClientWorld creates a client-side copy; dispatchers ignore it.
func NewClientWorld(name string) *World {
	w := NewWorld(name)
	w.client = true
	return w
}

func (w *World) Name() string {
	return w.name
}

func (w *World) IsClient() bool {
	return w.client
}

// Place sets a block without recording a placement.
func (w *World) Place(pos game.BlockPos, state game.BlockState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks[pos] = state
}

// SetEntity attaches block entity side-data at pos.
func (w *World) SetEntity(pos game.BlockPos, data map[string]string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities[pos] = cloneMap(data)
}

// SetLoot defines the drops for key, a block id or a full state string.
func (w *World) SetLoot(key string, drops ...game.ItemStack) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loot[key] = game.CloneStacks(drops)
}

// FailOn makes op return err until cleared with FailOn(op, nil).
func (w *World) FailOn(op Op, err error) {
	w.FailAfter(op, 0, err)
}

// FailAfter lets op succeed n more times, then return err until cleared.
func (w *World) FailAfter(op Op, n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err == nil {
		delete(w.failures, op)
		delete(w.grace, op)
		return
	}
	w.failures[op] = err
	w.grace[op] = n
}

// fail reports the injected error for op, if any. Callers hold w.mu.
func (w *World) fail(op Op) error {
	err := w.failures[op]
	if err == nil {
		return nil
	}
	if w.grace[op] > 0 {
		w.grace[op]--
		return nil
	}
	return err
}

func (w *World) BlockState(pos game.BlockPos) (game.BlockState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fail(OpBlockState); err != nil {
		return game.BlockState{}, err
	}
	if s, ok := w.blocks[pos]; ok {
		return s, nil
	}
	return Air, nil
}

func (w *World) BlockEntity(pos game.BlockPos) (map[string]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fail(OpBlockEntity); err != nil {
		return nil, err
	}
	return cloneMap(w.entities[pos]), nil
}

// Drops returns a fresh copy of the loot for state. The actor, held stack
// and block entity do not influence the simulated loot.
func (w *World) Drops(state game.BlockState, _ game.BlockPos, _ map[string]string, _ string, _ game.ItemStack) ([]game.ItemStack, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fail(OpDrops); err != nil {
		return nil, err
	}
	if drops, ok := w.loot[state.String()]; ok {
		return game.CloneStacks(drops), nil
	}
	if drops, ok := w.loot[string(state.Block)]; ok {
		return game.CloneStacks(drops), nil
	}
	return []game.ItemStack{}, nil
}

func (w *World) SpawnStack(pos game.BlockPos, stack game.ItemStack) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fail(OpSpawnStack); err != nil {
		return err
	}
	if stack.Empty() {
		return fmt.Errorf("spawn empty stack %s", stack)
	}
	w.spawned = append(w.spawned, Spawn{Pos: pos, Stack: stack})
	return nil
}

func (w *World) SetBlockState(pos game.BlockPos, state game.BlockState) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.fail(OpSetBlockState); err != nil {
		return err
	}
	w.blocks[pos] = state
	w.placed = append(w.placed, Placement{Pos: pos, State: state})
	return nil
}

// Spawned returns the stacks dropped so far, in order.
func (w *World) Spawned() []Spawn {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Spawn, len(w.spawned))
	copy(out, w.spawned)
	return out
}

// Placed returns the block changes made through SetBlockState, in order.
func (w *World) Placed() []Placement {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Placement, len(w.placed))
	copy(out, w.placed)
	return out
}

// Positions returns every set position, sorted by X, Y, Z.
func (w *World) Positions() []game.BlockPos {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]game.BlockPos, 0, len(w.blocks))
	for p := range w.blocks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// ResetLog forgets recorded spawns and placements.
func (w *World) ResetLog() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spawned = nil
	w.placed = nil
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
