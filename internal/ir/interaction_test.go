package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInteraction() Interaction {
	return Interaction{
		ID:          "0190a000-0000-7000-8000-000000000001",
		Seq:         1,
		World:       "overworld",
		Actor:       "steve",
		Hand:        "main_hand",
		X:           1,
		Y:           64,
		Z:           -3,
		Before:      "minecraft:wheat[age=7]",
		After:       "minecraft:wheat[age=0]",
		Outcome:     "replanted",
		Result:      "success",
		Rule:        "Wheat",
		Drops:       []Stack{{Item: "minecraft:wheat_seeds", Count: 1}, {Item: "minecraft:wheat", Count: 3}},
		Scatter:     []Stack{{Item: "minecraft:wheat", Count: 3}},
		Consumed:    1,
		CatalogHash: "abc",
	}
}

func TestInteraction_CanonicalIncludesIdentity(t *testing.T) {
	in := sampleInteraction()

	data, err := MarshalCanonical(in.Canonical())
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"id":"0190a000-0000-7000-8000-000000000001"`)
	assert.Contains(t, s, `"seq":1`)
	assert.Contains(t, s, `"pos":[1,64,-3]`)
	assert.Contains(t, s, `"scatter":[{"count":3,"item":"minecraft:wheat"}]`)
	assert.NotContains(t, s, `"reason"`)
}

func TestInteraction_ContentHashIgnoresIdentity(t *testing.T) {
	a := sampleInteraction()
	b := sampleInteraction()
	b.ID = "other"
	b.Seq = 99

	assert.Equal(t, a.ContentHash(), b.ContentHash())

	b.Outcome = "rejected"
	assert.NotEqual(t, a.ContentHash(), b.ContentHash())
}

func TestInteraction_EmptyStacksEncodeAsArrays(t *testing.T) {
	in := Interaction{Outcome: "not_applicable", Result: "pass"}

	data, err := MarshalCanonical(in.Canonical())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"drops":[]`)
	assert.Contains(t, string(data), `"scatter":[]`)
	assert.NotContains(t, string(data), `"after"`)
}
