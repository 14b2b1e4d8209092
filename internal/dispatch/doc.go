// Package dispatch connects host interaction events to the replant handler.
//
// A Dispatcher filters events (client-side worlds and off-hand use pass
// straight through), snapshots the block at the interaction point, asks the
// configured replant.Handler for an outcome and applies it to the world:
// reset the block, scatter the adjusted drops, swing the actor's hand and
// charge exhaustion.
//
// Every dispatched interaction is stamped with a logical sequence number and
// a UUIDv7 id and handed to an optional Recorder (the harvest log).
//
// Failure model: the dispatcher never makes an interaction fail because of
// its own problems. Host errors before the block is reset return Pass
// together with a *HostError and leave the world untouched. A spawn failure
// after the reset keeps Success and the log records only the stacks that
// were spawned. Recorder errors are logged and otherwise ignored.
package dispatch
