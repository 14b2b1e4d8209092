// Package httpapi exposes the dispatcher to out-of-process hosts over HTTP.
//
// A host that cannot link Go code posts a snapshot of the interacted block
// to /v1/interact. The snapshot is replayed against a one-shot in-memory
// world, and the response lists the mutations the host must apply:
// scattered stacks, the reset state, the hand swing and the exhaustion.
package httpapi
