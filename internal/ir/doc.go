// Package ir provides canonical JSON serialization and content hashing for
// harvest records.
//
// Canonical JSON is used wherever bytes must be stable across runs: catalog
// fingerprints stored in the harvest log and golden trace snapshots.
//
// Key design constraints:
//   - NO floats: callers encode fractional values as strings
//   - NO null: absent fields are omitted by the caller
//   - Object keys sorted by UTF-16 code units (RFC 8785)
//   - Strings NFC-normalised at the serialization boundary
package ir
