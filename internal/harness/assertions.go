package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/harvest/internal/game"
	"github.com/roach88/harvest/internal/ir"
	"github.com/roach88/harvest/internal/sim"
)

// exhaustionTolerance absorbs float accumulation error.
const exhaustionTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Trace    []ir.Interaction // Full log for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, in := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %d,%d,%d %s -> %s", in.Seq, in.X, in.Y, in.Z, in.Before, in.Outcome)
		if in.Rule != "" {
			fmt.Fprintf(&buf, " (%s)", in.Rule)
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// AssertionContext provides what assertions are evaluated against.
type AssertionContext struct {
	Trace  []ir.Interaction
	World  *sim.World
	Player *sim.Player
}

// EvaluateAssertions evaluates all assertions.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutcomeCount:
			err = assertOutcomeCount(actx.Trace, assertion)
		case AssertReplants:
			err = assertReplants(actx.Trace, assertion)
		case AssertFinalBlock:
			if actx.World == nil {
				err = fmt.Errorf("assertion[%d]: final_block requires a world", i)
			} else {
				err = assertFinalBlock(actx.World, actx.Trace, assertion)
			}
		case AssertSpawned:
			if actx.World == nil {
				err = fmt.Errorf("assertion[%d]: spawned requires a world", i)
			} else {
				err = assertSpawned(actx.World, actx.Trace, assertion)
			}
		case AssertExhaustion:
			if actx.Player == nil {
				err = fmt.Errorf("assertion[%d]: exhaustion requires a player", i)
			} else {
				err = assertExhaustion(actx.Player, actx.Trace, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertOutcomeCount checks how many logged interactions had an outcome.
func assertOutcomeCount(trace []ir.Interaction, a Assertion) error {
	count := 0
	for _, in := range trace {
		if in.Outcome == a.Outcome {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertOutcomeCount,
			Expected: fmt.Sprintf("%s to occur %d times", a.Outcome, a.Count),
			Actual:   fmt.Sprintf("occurred %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertReplants counts successful replants logged for a rule label.
func assertReplants(trace []ir.Interaction, a Assertion) error {
	count := 0
	for _, in := range trace {
		if in.Outcome == "replanted" && in.Result == game.Success.String() && in.Rule == a.Rule {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertReplants,
			Expected: fmt.Sprintf("%d replants of %s", a.Count, a.Rule),
			Actual:   fmt.Sprintf("%d replants", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalBlock(w *sim.World, trace []ir.Interaction, a Assertion) error {
	expected, err := game.ParseBlockState(a.State)
	if err != nil {
		return err
	}
	pos := toPos(a.Pos)
	actual, err := w.BlockState(pos)
	if err != nil {
		return fmt.Errorf("final_block at %s: %w", pos, err)
	}
	if !actual.Equal(expected) {
		return &AssertionError{
			Type:     AssertFinalBlock,
			Expected: fmt.Sprintf("%s at %s", expected, pos),
			Actual:   actual.String(),
			Trace:    trace,
		}
	}
	return nil
}

// assertSpawned sums every scattered stack of an item.
func assertSpawned(w *sim.World, trace []ir.Interaction, a Assertion) error {
	item, err := game.ParseIdentifier(a.Item)
	if err != nil {
		return err
	}
	total := 0
	for _, s := range w.Spawned() {
		if s.Stack.Item == item {
			total += s.Stack.Count
		}
	}
	if total != a.Count {
		return &AssertionError{
			Type:     AssertSpawned,
			Expected: fmt.Sprintf("%d x %s scattered", a.Count, item),
			Actual:   fmt.Sprintf("%d scattered", total),
			Trace:    trace,
		}
	}
	return nil
}

func assertExhaustion(p *sim.Player, trace []ir.Interaction, a Assertion) error {
	got := p.Exhaustion()
	if math.Abs(got-a.Amount) > exhaustionTolerance {
		return &AssertionError{
			Type:     AssertExhaustion,
			Expected: fmt.Sprintf("exhaustion %g", a.Amount),
			Actual:   fmt.Sprintf("exhaustion %g", got),
			Trace:    trace,
		}
	}
	return nil
}
