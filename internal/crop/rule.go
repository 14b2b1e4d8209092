package crop

import (
	"fmt"
	"strconv"

	"github.com/roach88/harvest/internal/game"
)

// DefaultGrowthProperty is the block state property holding a crop's growth stage.
const DefaultGrowthProperty = "age"

// Matcher selects block states by block identity, an optional growth stage
// and optional exact property values.
type Matcher struct {
	// Block must equal the state's block.
	Block game.Identifier

	// Property names the growth-stage property. Empty means DefaultGrowthProperty.
	Property string

	// Stage, when set, must equal the growth property's value.
	// nil matches any stage (including states without the property).
	Stage *int

	// States lists additional properties that must match exactly.
	States map[string]string
}

// GrowthProperty returns the effective growth property name.
func (m Matcher) GrowthProperty() string {
	if m.Property == "" {
		return DefaultGrowthProperty
	}
	return m.Property
}

// Test reports whether state satisfies the matcher.
func (m Matcher) Test(state game.BlockState) bool {
	if state.Block != m.Block {
		return false
	}

	if m.Stage != nil {
		stage, ok := state.IntProperty(m.GrowthProperty())
		if !ok || stage != *m.Stage {
			return false
		}
	}

	for k, want := range m.States {
		got, ok := state.Property(k)
		if !ok || got != want {
			return false
		}
	}

	return true
}

func (m Matcher) String() string {
	props := make(map[string]string, len(m.States)+1)
	for k, v := range m.States {
		props[k] = v
	}
	if m.Stage != nil {
		props[m.GrowthProperty()] = strconv.Itoa(*m.Stage)
	}
	return game.BlockState{Block: m.Block, Properties: props}.String()
}

// clone deep-copies the pointer and map fields.
func (m Matcher) clone() Matcher {
	out := m
	if m.Stage != nil {
		stage := *m.Stage
		out.Stage = &stage
	}
	if m.States != nil {
		out.States = make(map[string]string, len(m.States))
		for k, v := range m.States {
			out.States[k] = v
		}
	}
	return out
}

// Rule is one configured harvestable, replantable crop.
type Rule struct {
	// Label is the human-readable display name.
	Label string

	Matcher Matcher

	// InitialStage is the growth stage the crop is reset to on replant.
	InitialStage int
}

// Stage is a helper for building matchers from literals.
func Stage(n int) *int {
	return &n
}

// NewRule builds a rule matching block at a specific growth stage.
// The label defaults to the block path.
func NewRule(block game.Identifier, stage int) Rule {
	return Rule{
		Label:   block.Path(),
		Matcher: Matcher{Block: block, Stage: Stage(stage)},
	}
}

// Test reports whether the rule applies to state.
func (r Rule) Test(state game.BlockState) bool {
	return r.Matcher.Test(state)
}

// InitialState returns state reset to the rule's initial growth stage.
// Properties other than the growth property are preserved.
func (r Rule) InitialState(state game.BlockState) game.BlockState {
	return state.With(r.Matcher.GrowthProperty(), strconv.Itoa(r.InitialStage))
}

func (r Rule) String() string {
	return fmt.Sprintf("%s{%s}", r.Label, r.Matcher)
}
