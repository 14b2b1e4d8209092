package replant

import (
	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
)

// Decide computes the replant outcome for one observed state.
//
// Steps:
// 1. Block not in the crop tag → NotApplicable
// 2. No catalog rule matches → NotApplicable
// 3. Scan drops in order for the first non-empty seed-tagged stack
// 4. Found → Replanted: that stack loses exactly one unit (removed at zero),
//    and the block is reset to the rule's initial state
// 5. Not found → Rejected: drops unchanged, nothing reset
//
// Neither drops nor state is modified; the outcome carries copies.
func Decide(tags game.Tags, catalog *crop.Catalog, state game.BlockState, drops []game.ItemStack) Outcome {
	if tags == nil || !tags.IsCrop(state.Block) {
		return NotApplicableOutcome(ReasonNotCrop)
	}

	rule, ok := catalog.FindMatch(tags, state)
	if !ok {
		return NotApplicableOutcome(ReasonNoRule)
	}

	adjusted, consumed := consumeSeed(tags, drops)
	if !consumed {
		return Outcome{
			Kind:   Rejected,
			Rule:   &rule,
			Drops:  game.CloneStacks(drops),
			Reason: ReasonNoSeed,
		}
	}

	reset := rule.InitialState(state)
	return Outcome{
		Kind:     Replanted,
		Rule:     &rule,
		Drops:    adjusted,
		Reset:    &reset,
		Consumed: 1,
	}
}

// consumeSeed returns a copy of drops with one unit removed from the first
// seed stack. Stacks that reach zero are dropped from the result.
func consumeSeed(tags game.Tags, drops []game.ItemStack) ([]game.ItemStack, bool) {
	for i, st := range drops {
		if st.Empty() || !tags.IsSeed(st.Item) {
			continue
		}

		out := make([]game.ItemStack, 0, len(drops))
		out = append(out, drops[:i]...)
		if st.Count > 1 {
			out = append(out, game.Stack(st.Item, st.Count-1))
		}
		out = append(out, drops[i+1:]...)
		return out, true
	}
	return nil, false
}
