package crop

import (
	"strconv"
	"strings"

	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/ir"
)

// Defaults for catalog settings.
const (
	DefaultExhaustionPerHarvest = 0.005
	DefaultHandler              = "default"
)

// Settings are the scalar values that travel with a catalog.
type Settings struct {
	// ExhaustionPerHarvest is applied to the actor after a successful replant.
	ExhaustionPerHarvest float64

	// AdditionalLogging promotes the decision trail from debug to info.
	AdditionalLogging bool

	// Handler names the replant strategy selected at startup.
	Handler string
}

// DefaultSettings returns the settings used when no configuration exists.
func DefaultSettings() Settings {
	return Settings{
		ExhaustionPerHarvest: DefaultExhaustionPerHarvest,
		Handler:              DefaultHandler,
	}
}

// Catalog is an ordered, immutable collection of crop rules.
//
// Thread-safety: a Catalog is never mutated after NewCatalog returns.
type Catalog struct {
	rules    []Rule
	settings Settings
	hash     string
}

// NewCatalog creates a catalog. Rules are deep-copied so later changes to
// the caller's slice cannot reorder or alter lookups.
func NewCatalog(rules []Rule, settings Settings) *Catalog {
	copied := make([]Rule, len(rules))
	for i, r := range rules {
		r.Matcher = r.Matcher.clone()
		copied[i] = r
	}
	if settings.Handler == "" {
		settings.Handler = DefaultHandler
	}

	c := &Catalog{rules: copied, settings: settings}
	c.hash = ir.MustHash(ir.DomainCatalog, c.canonical())
	return c
}

// Default returns the built-in catalog used when configuration is missing
// or unreadable.
func Default() *Catalog {
	return NewCatalog(DefaultRules(), DefaultSettings())
}

// DefaultRules returns the vanilla crops at full maturity.
func DefaultRules() []Rule {
	return []Rule{
		{Label: "Wheat", Matcher: Matcher{Block: "minecraft:wheat", Stage: Stage(7)}},
		{Label: "Carrots", Matcher: Matcher{Block: "minecraft:carrots", Stage: Stage(7)}},
		{Label: "Potatoes", Matcher: Matcher{Block: "minecraft:potatoes", Stage: Stage(7)}},
		{Label: "Beetroots", Matcher: Matcher{Block: "minecraft:beetroots", Stage: Stage(3)}},
		{Label: "Nether Wart", Matcher: Matcher{Block: "minecraft:nether_wart", Stage: Stage(3)}},
	}
}

// FindMatch returns the first rule, in insertion order, whose predicate
// holds for state. It returns false when the block is not tagged as a crop
// or no rule matches. A nil catalog matches nothing.
func (c *Catalog) FindMatch(tags game.Tags, state game.BlockState) (Rule, bool) {
	if c == nil || tags == nil || !tags.IsCrop(state.Block) {
		return Rule{}, false
	}
	for _, r := range c.rules {
		if r.Test(state) {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns a copy of the rules in declaration order.
func (c *Catalog) Rules() []Rule {
	if c == nil {
		return nil
	}
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		r.Matcher = r.Matcher.clone()
		out[i] = r
	}
	return out
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules)
}

// Settings returns the catalog settings.
func (c *Catalog) Settings() Settings {
	if c == nil {
		return DefaultSettings()
	}
	return c.settings
}

// Hash returns the content hash of the rules and settings.
func (c *Catalog) Hash() string {
	if c == nil {
		return ""
	}
	return c.hash
}

// String joins the rules with " | ", the format used in debug logs.
func (c *Catalog) String() string {
	if c == nil || len(c.rules) == 0 {
		return "<none>"
	}
	parts := make([]string, len(c.rules))
	for i, r := range c.rules {
		parts[i] = r.String()
	}
	return strings.Join(parts, " | ")
}

// canonical builds the hashable form. The float setting is encoded as a
// shortest round-trip string since canonical JSON forbids floats.
func (c *Catalog) canonical() map[string]any {
	crops := make([]any, len(c.rules))
	for i, r := range c.rules {
		entry := map[string]any{
			"block":         string(r.Matcher.Block),
			"property":      r.Matcher.GrowthProperty(),
			"label":         r.Label,
			"initial_stage": r.InitialStage,
		}
		if r.Matcher.Stage != nil {
			entry["stage"] = *r.Matcher.Stage
		}
		if len(r.Matcher.States) > 0 {
			entry["states"] = r.Matcher.States
		}
		crops[i] = entry
	}
	return map[string]any{
		"crops":                  crops,
		"exhaustion_per_harvest": strconv.FormatFloat(c.settings.ExhaustionPerHarvest, 'g', -1, 64),
		"additional_logging":     c.settings.AdditionalLogging,
		"handler":                c.settings.Handler,
	}
}
