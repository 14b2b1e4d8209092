// Package store provides the SQLite-backed harvest log.
//
// The log is append-only:
//   - Interactions: one row per dispatched interaction, keyed by its UUIDv7 id
//   - Catalogs: each catalog version seen, keyed by content hash
//
// # Ordering
//
// All ordering uses the logical seq column, never wall time. Queries that
// return several rows end in ORDER BY seq ASC, id ASC COLLATE BINARY so the
// same log always reads back the same way.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Stack lists are stored as canonical JSON (internal/ir).
package store
