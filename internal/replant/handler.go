package replant

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
)

// Interaction is the snapshot a handler decides on. It is built by the
// dispatcher per event and discarded afterwards.
type Interaction struct {
	// World identifies the world the block lives in.
	World string

	Pos   game.BlockPos
	State game.BlockState

	// Actor identifies the interacting entity.
	Actor string

	// Held is the actor's main-hand stack, the tool used for loot.
	Held game.ItemStack

	// Entity is the block entity side-data at Pos, nil when there is none.
	Entity map[string]string

	// Drops is the host's loot result for breaking State right now.
	Drops []game.ItemStack

	Tags    game.Tags
	Catalog *crop.Catalog
}

// Handler decides what a harvest interaction should do.
//
// Implementations must not keep mutable state between calls: Handle may be
// invoked concurrently for different positions.
type Handler interface {
	Handle(ctx context.Context, in Interaction) Outcome
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, in Interaction) Outcome

func (f HandlerFunc) Handle(ctx context.Context, in Interaction) Outcome {
	return f(ctx, in)
}

// DefaultHandler consumes one seed from the natural drops and replants.
type DefaultHandler struct{}

func (DefaultHandler) Handle(_ context.Context, in Interaction) Outcome {
	return Decide(in.Tags, in.Catalog, in.State, in.Drops)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Handler{
		crop.DefaultHandler: DefaultHandler{},
	}
)

// Register adds a named handler. Names are unique.
func Register(name string, h Handler) error {
	if name == "" {
		return fmt.Errorf("register handler: name is empty")
	}
	if h == nil {
		return fmt.Errorf("register handler %q: handler is nil", name)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		return fmt.Errorf("register handler %q: already registered", name)
	}
	registry[name] = h
	return nil
}

// Lookup returns the handler registered under name.
func Lookup(name string) (Handler, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	h, ok := registry[name]
	return h, ok
}

// Names returns the registered handler names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForCatalog resolves the handler named in the catalog settings.
func ForCatalog(c *crop.Catalog) (Handler, error) {
	name := c.Settings().Handler
	h, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown replant handler %q (registered: %v)", name, Names())
	}
	return h, nil
}
