// Package config loads and persists the harvest configuration document.
//
// The document is JSON (YAML and CUE are accepted too) validated against an
// embedded CUE schema with closed definitions, so unknown or malformed
// entries fail the whole load. There are no partial catalogs.
//
// LoadOrDefault is the startup path: any load failure is recovered by
// substituting crop.Default(), and that default is written back to disk.
// Write failures are logged and never fatal.
package config
