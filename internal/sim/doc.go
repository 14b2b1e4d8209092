// Package sim is an in-memory host: a world with blocks, block entities and
// loot tables, and a player actor. It records every mutation so callers can
// inspect what an interaction did.
//
// The scenario harness, the HTTP bridge and package tests use it in place
// of a real game server.
package sim
