package replant

import (
	"fmt"

	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
)

// Kind is the decision result category.
type Kind int

const (
	// NotApplicable: the engine is not interested; the host proceeds as usual.
	NotApplicable Kind = iota
	// Replanted: one seed was consumed and the crop is reset.
	Replanted
	// Rejected: a rule matched but no seed was found among the drops.
	Rejected
)

func (k Kind) String() string {
	switch k {
	case NotApplicable:
		return "not_applicable"
	case Replanted:
		return "replanted"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ActionResult maps the kind to the host-visible tri-state.
func (k Kind) ActionResult() game.ActionResult {
	switch k {
	case Replanted:
		return game.Success
	case Rejected:
		return game.Failure
	default:
		return game.Pass
	}
}

// Reasons attached to non-replanted outcomes.
const (
	ReasonNotCrop = "not_tagged_as_crop"
	ReasonNoRule  = "no_matching_rule"
	ReasonNoSeed  = "no_seed_in_drops"
)

// Outcome is the result of one decision. It is produced fresh per call and
// shares no memory with the inputs.
type Outcome struct {
	Kind Kind

	// Rule is the matched rule; nil for NotApplicable.
	Rule *crop.Rule

	// Drops is the set the caller must scatter on Replanted (already
	// reduced by the consumed seed). On Rejected it is an unmodified copy of
	// the observed drops and must not be scattered.
	Drops []game.ItemStack

	// Reset is the state to place at the original position on Replanted.
	Reset *game.BlockState

	// Consumed is the number of seeds taken from the drops.
	Consumed int

	// Reason explains NotApplicable and Rejected outcomes.
	Reason string
}

// NotApplicableOutcome builds a pass-through outcome.
func NotApplicableOutcome(reason string) Outcome {
	return Outcome{Kind: NotApplicable, Reason: reason}
}

// ActionResult is shorthand for o.Kind.ActionResult().
func (o Outcome) ActionResult() game.ActionResult {
	return o.Kind.ActionResult()
}

func (o Outcome) String() string {
	switch o.Kind {
	case Replanted:
		return fmt.Sprintf("replanted(%s, consumed=%d, drops=%v)", o.Rule.Label, o.Consumed, o.Drops)
	case Rejected:
		return fmt.Sprintf("rejected(%s, %s)", o.Rule.Label, o.Reason)
	default:
		return fmt.Sprintf("not_applicable(%s)", o.Reason)
	}
}
