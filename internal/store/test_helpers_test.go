package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/harvest/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestInteraction creates a replanted wheat interaction.
func createTestInteraction(id string, seq int64) ir.Interaction {
	return ir.Interaction{
		ID:          id,
		Seq:         seq,
		World:       "overworld",
		Actor:       "steve",
		Hand:        "main_hand",
		X:           1,
		Y:           64,
		Z:           2,
		Before:      "minecraft:wheat[age=7]",
		After:       "minecraft:wheat[age=0]",
		Outcome:     "replanted",
		Result:      "success",
		Rule:        "Wheat",
		Drops:       []ir.Stack{{Item: "minecraft:wheat_seeds", Count: 2}, {Item: "minecraft:wheat", Count: 1}},
		Scatter:     []ir.Stack{{Item: "minecraft:wheat_seeds", Count: 1}, {Item: "minecraft:wheat", Count: 1}},
		Consumed:    1,
		CatalogHash: "catalog-hash",
	}
}

// createRejectedInteraction creates a rejected wheat interaction.
func createRejectedInteraction(id string, seq int64) ir.Interaction {
	in := createTestInteraction(id, seq)
	in.After = ""
	in.Outcome = "rejected"
	in.Result = "failure"
	in.Reason = "no_seed_in_drops"
	in.Drops = []ir.Stack{{Item: "minecraft:wheat", Count: 2}}
	in.Scatter = []ir.Stack{}
	in.Consumed = 0
	return in
}
