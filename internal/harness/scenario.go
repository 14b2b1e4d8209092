package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/sim"
)

// Defaults applied when a scenario leaves the field empty.
const (
	DefaultWorld = "minecraft:overworld"
	DefaultActor = "player-1"
)

// Scenario defines one replant scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is a catalog file (JSON, YAML or CUE), relative to the
	// scenario file. Mutually exclusive with Catalog.
	Config string `yaml:"config,omitempty"`

	// Catalog is an inline catalog document in the same shape as the
	// config file. When both Config and Catalog are empty the built-in
	// default catalog is used.
	Catalog map[string]any `yaml:"catalog,omitempty"`

	// Tags overrides the vanilla crop and seed tags.
	Tags *TagSpec `yaml:"tags,omitempty"`

	World string     `yaml:"world,omitempty"`
	Actor string     `yaml:"actor,omitempty"`
	Held  *StackSpec `yaml:"held,omitempty"`

	// Blocks are placed before the first interaction.
	Blocks []BlockSpec `yaml:"blocks,omitempty"`

	// Loot defines what each block drops. Keys are full state strings or
	// block ids; the full state wins.
	Loot []LootSpec `yaml:"loot,omitempty"`

	// Interactions are dispatched in order.
	Interactions []InteractionStep `yaml:"interactions"`

	// Assertions are evaluated after the last interaction.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// TagSpec lists the members of the crop and seed tags.
type TagSpec struct {
	Crops []string `yaml:"crops"`
	Seeds []string `yaml:"seeds"`
}

// StackSpec is an item stack.
type StackSpec struct {
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

// BlockSpec places one block.
type BlockSpec struct {
	Pos    []int             `yaml:"pos"`
	State  string            `yaml:"state"`
	Entity map[string]string `yaml:"entity,omitempty"`
}

// LootSpec is one loot table entry.
type LootSpec struct {
	Block string      `yaml:"block"`
	Drops []StackSpec `yaml:"drops"`
}

// InteractionStep is one use-block event.
type InteractionStep struct {
	Pos []int `yaml:"pos"`

	// Hand is "main" (default) or "off".
	Hand string `yaml:"hand,omitempty"`

	// Client dispatches against a client-side copy of the world.
	Client bool `yaml:"client,omitempty"`

	// HostFailure makes one world operation fail for this step only.
	// One of block_state, block_entity, drops, spawn_stack, set_block_state.
	HostFailure string `yaml:"host_failure,omitempty"`

	// Expect is checked right after the step. Nil skips the check.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the per-step expectation. Empty fields are not checked.
type Expect struct {
	// Result is the host-visible result: pass, success or failure.
	Result string `yaml:"result,omitempty"`

	// Outcome is replanted, rejected or not_applicable. A filtered
	// interaction has no outcome; use "filtered" to expect that.
	Outcome string `yaml:"outcome,omitempty"`

	// Block is the state at the position after the step.
	Block string `yaml:"block,omitempty"`

	// Scatter is the exact list of stacks dropped by this step.
	Scatter []StackSpec `yaml:"scatter,omitempty"`

	// Error expects the dispatcher to report an error.
	Error bool `yaml:"error,omitempty"`
}

// Assertion validates the final log or world.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Outcome is used by outcome_count.
	Outcome string `yaml:"outcome,omitempty"`

	// Rule is the rule label used by replants.
	Rule string `yaml:"rule,omitempty"`

	// Pos and State are used by final_block.
	Pos   []int  `yaml:"pos,omitempty"`
	State string `yaml:"state,omitempty"`

	// Item is used by spawned.
	Item string `yaml:"item,omitempty"`

	// Count is used by outcome_count, replants and spawned.
	Count int `yaml:"count,omitempty"`

	// Amount is used by exhaustion.
	Amount float64 `yaml:"amount,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcomeCount = "outcome_count"
	AssertReplants     = "replants"
	AssertFinalBlock   = "final_block"
	AssertSpawned      = "spawned"
	AssertExhaustion   = "exhaustion"
)

// ExpectFiltered is the Expect.Outcome value for filtered interactions.
const ExpectFiltered = "filtered"

// LoadScenario reads and parses a scenario YAML file. Config paths are
// resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the config path BEFORE validation
	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) {
		scenario.Config = filepath.Join(filepath.Dir(path), scenario.Config)
	}
	if scenario.Config != "" {
		if _, err := os.Stat(scenario.Config); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: config file not found: %s", scenario.Config)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. Config paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config != "" && s.Catalog != nil {
		return fmt.Errorf("config and catalog are mutually exclusive")
	}
	if len(s.Interactions) == 0 {
		return fmt.Errorf("interactions list is required and must be non-empty")
	}

	if s.Tags != nil {
		for _, c := range s.Tags.Crops {
			if _, err := game.ParseIdentifier(c); err != nil {
				return fmt.Errorf("tags.crops: %w", err)
			}
		}
		for _, sd := range s.Tags.Seeds {
			if _, err := game.ParseIdentifier(sd); err != nil {
				return fmt.Errorf("tags.seeds: %w", err)
			}
		}
	}
	if s.Held != nil {
		if err := validateStack("held", *s.Held); err != nil {
			return err
		}
	}

	for i, b := range s.Blocks {
		if err := validatePos(fmt.Sprintf("blocks[%d]", i), b.Pos); err != nil {
			return err
		}
		if _, err := game.ParseBlockState(b.State); err != nil {
			return fmt.Errorf("blocks[%d]: %w", i, err)
		}
	}

	for i, l := range s.Loot {
		if l.Block == "" {
			return fmt.Errorf("loot[%d]: block is required", i)
		}
		if _, err := lootKey(l.Block); err != nil {
			return fmt.Errorf("loot[%d]: %w", i, err)
		}
		for j, d := range l.Drops {
			if err := validateStack(fmt.Sprintf("loot[%d].drops[%d]", i, j), d); err != nil {
				return err
			}
		}
	}

	for i, step := range s.Interactions {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step InteractionStep) error {
	if err := validatePos(fmt.Sprintf("interactions[%d]", i), step.Pos); err != nil {
		return err
	}
	if _, err := game.ParseHand(step.Hand); err != nil {
		return fmt.Errorf("interactions[%d]: %w", i, err)
	}
	switch sim.Op(step.HostFailure) {
	case "", sim.OpBlockState, sim.OpBlockEntity, sim.OpDrops, sim.OpSpawnStack, sim.OpSetBlockState:
	default:
		return fmt.Errorf("interactions[%d]: unknown host_failure %q", i, step.HostFailure)
	}
	if step.Expect == nil {
		return nil
	}
	switch step.Expect.Result {
	case "", "pass", "success", "failure":
	default:
		return fmt.Errorf("interactions[%d].expect: unknown result %q", i, step.Expect.Result)
	}
	switch step.Expect.Outcome {
	case "", "replanted", "rejected", "not_applicable", ExpectFiltered:
	default:
		return fmt.Errorf("interactions[%d].expect: unknown outcome %q", i, step.Expect.Outcome)
	}
	if step.Expect.Block != "" {
		if _, err := game.ParseBlockState(step.Expect.Block); err != nil {
			return fmt.Errorf("interactions[%d].expect: %w", i, err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertOutcomeCount:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for outcome_count", index)
		}
	case AssertReplants:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for replants", index)
		}
	case AssertFinalBlock:
		if err := validatePos(fmt.Sprintf("assertions[%d]", index), a.Pos); err != nil {
			return err
		}
		if _, err := game.ParseBlockState(a.State); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertSpawned:
		if a.Item == "" {
			return fmt.Errorf("assertions[%d]: item is required for spawned", index)
		}
	case AssertExhaustion:
		if a.Amount < 0 {
			return fmt.Errorf("assertions[%d]: amount must be non-negative for exhaustion", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validatePos(where string, pos []int) error {
	if len(pos) != 3 {
		return fmt.Errorf("%s: pos must have exactly 3 coordinates, got %d", where, len(pos))
	}
	return nil
}

func validateStack(where string, s StackSpec) error {
	if _, err := game.ParseIdentifier(s.Item); err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	if s.Count < 0 {
		return fmt.Errorf("%s: count must be non-negative", where)
	}
	return nil
}

func toPos(p []int) game.BlockPos {
	return game.BlockPos{X: p[0], Y: p[1], Z: p[2]}
}

func toStack(s StackSpec) game.ItemStack {
	return game.Stack(game.MustIdentifier(s.Item), s.Count)
}
