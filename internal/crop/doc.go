// Package crop defines crop rules and the ordered catalog that the replant
// decision consults.
//
// A Rule is a pure predicate over a block state plus a display label. A
// Catalog is an ordered, immutable list of rules with first-match lookup and
// the scalar settings that travel with it (exhaustion cost, verbose
// logging, handler name).
//
// INVARIANTS:
//   - Rule.Test never mutates its input and has no side effects
//   - Catalog rule order NEVER changes after construction; first match wins
//   - A Catalog is safe for concurrent reads without locking
package crop
