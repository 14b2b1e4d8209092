package sim

import (
	"sync"

	"github.com/roach88/harvest/internal/game"
)

// Player is an in-memory actor.
type Player struct {
	mu         sync.Mutex
	id         string
	held       game.ItemStack
	swings     []game.Hand
	exhaustion float64
}

// NewPlayer creates a player holding held in the main hand.
func NewPlayer(id string, held game.ItemStack) *Player {
	return &Player{id: id, held: held}
}

func (p *Player) ID() string {
	return p.id
}

func (p *Player) MainHandStack() game.ItemStack {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held
}

func (p *Player) SwingHand(hand game.Hand) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.swings = append(p.swings, hand)
}

func (p *Player) AddExhaustion(amount float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exhaustion += amount
}

// Swings returns the hands swung so far.
func (p *Player) Swings() []game.Hand {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]game.Hand, len(p.swings))
	copy(out, p.swings)
	return out
}

// Exhaustion returns the accumulated exhaustion.
func (p *Player) Exhaustion() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhaustion
}
