package ir

// Stack is an item stack as recorded in the harvest log.
type Stack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Interaction is one dispatched harvest interaction as it is persisted and
// rendered in traces. Block states are kept in their display form
// ("minecraft:wheat[age=7]") so records stay readable without a catalog.
type Interaction struct {
	ID     string `json:"id"`
	Seq    int64  `json:"seq"`
	World  string `json:"world"`
	Actor  string `json:"actor"`
	Hand   string `json:"hand"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Z      int    `json:"z"`
	Before string `json:"before"`

	// After is the reset state; empty unless the crop was replanted.
	After string `json:"after,omitempty"`

	Outcome  string  `json:"outcome"`
	Result   string  `json:"result"`
	Rule     string  `json:"rule,omitempty"`
	Reason   string  `json:"reason,omitempty"`
	Drops    []Stack `json:"drops"`
	Scatter  []Stack `json:"scatter"`
	Consumed int     `json:"consumed"`

	CatalogHash string `json:"catalog_hash"`
}

// Canonical returns the canonical-JSON-ready form of the record.
func (in Interaction) Canonical() map[string]any {
	m := in.content()
	m["id"] = in.ID
	m["seq"] = in.Seq
	return m
}

// ContentHash identifies what happened, independent of when and under
// which id. Two interactions with equal content hashes made the same
// decision on the same input.
func (in Interaction) ContentHash() string {
	return MustHash(DomainInteraction, in.content())
}

func (in Interaction) content() map[string]any {
	m := map[string]any{
		"world":        in.World,
		"actor":        in.Actor,
		"hand":         in.Hand,
		"pos":          []any{in.X, in.Y, in.Z},
		"before":       in.Before,
		"outcome":      in.Outcome,
		"result":       in.Result,
		"drops":        CanonicalStacks(in.Drops),
		"scatter":      CanonicalStacks(in.Scatter),
		"consumed":     in.Consumed,
		"catalog_hash": in.CatalogHash,
	}
	if in.After != "" {
		m["after"] = in.After
	}
	if in.Rule != "" {
		m["rule"] = in.Rule
	}
	if in.Reason != "" {
		m["reason"] = in.Reason
	}
	return m
}

// CanonicalStacks converts stacks to their canonical-JSON-ready form.
func CanonicalStacks(stacks []Stack) []any {
	out := make([]any, len(stacks))
	for i, s := range stacks {
		out[i] = map[string]any{"item": s.Item, "count": s.Count}
	}
	return out
}
