// Package replant implements the replant-on-harvest decision.
//
// Decide is a pure function: given the tag boundary, a crop catalog, the
// observed block state and the drops the host already computed for breaking
// it, it returns an Outcome describing what should happen. It never touches
// a world; the dispatcher applies the outcome.
//
// Outcomes distinguish "not interested" (NotApplicable) from "tried and
// failed" (Rejected) so the host can choose between falling through to its
// default behaviour and suppressing it.
//
// Handler is the strategy seam. DefaultHandler wraps Decide; alternative
// policies are registered by name and selected at startup.
package replant
