// Package game holds the host-facing vocabulary shared by every harvest
// package: namespaced identifiers, block states, item stacks, positions,
// interaction hands, host action results and the read-only tag boundary.
//
// Nothing in this package talks to a host. Values are plain data so the
// decision core can stay pure and the dispatcher can translate them to and
// from whatever the embedding game uses.
package game
