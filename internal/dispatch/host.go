package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/ir"
)

// World is the host's view of one world (dimension).
type World interface {
	// Name identifies the world in logs and records.
	Name() string

	// IsClient reports whether this is a client-side (render) copy of the
	// world. Client worlds never mutate.
	IsClient() bool

	BlockState(pos game.BlockPos) (game.BlockState, error)

	// BlockEntity returns side-data at pos, nil when the block has none.
	BlockEntity(pos game.BlockPos) (map[string]string, error)

	// Drops computes the loot for breaking state at pos right now, as mined
	// by actor holding held.
	Drops(state game.BlockState, pos game.BlockPos, entity map[string]string, actor string, held game.ItemStack) ([]game.ItemStack, error)

	SpawnStack(pos game.BlockPos, stack game.ItemStack) error
	SetBlockState(pos game.BlockPos, state game.BlockState) error
}

// Actor is the interacting entity, normally a player.
type Actor interface {
	ID() string
	MainHandStack() game.ItemStack
	SwingHand(hand game.Hand)
	AddExhaustion(amount float64)
}

// Recorder persists dispatched interactions. *store.Store implements it.
type Recorder interface {
	WriteInteraction(ctx context.Context, in ir.Interaction) error
}

// Vec3 is a precise hit location inside the block.
type Vec3 struct {
	X, Y, Z float64
}

// Event is one host "use block" callback.
type Event struct {
	World  World
	Actor  Actor
	Hand   game.Hand
	Pos    game.BlockPos
	Facing game.Direction
	Hit    Vec3
}

// HostError reports a failed call into the host world.
type HostError struct {
	Op  string
	Pos game.BlockPos
	Err error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host %s at %s: %v", e.Op, e.Pos, e.Err)
}

func (e *HostError) Unwrap() error {
	return e.Err
}

// IsHostError reports whether err is (or wraps) a HostError.
func IsHostError(err error) bool {
	var he *HostError
	return errors.As(err, &he)
}
