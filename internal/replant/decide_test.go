package replant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/harvest/internal/crop"
	"github.com/roach88/harvest/internal/game"
)

const (
	wheat      = game.Identifier("minecraft:wheat")
	wheatSeeds = game.Identifier("minecraft:wheat_seeds")
	stone      = game.Identifier("minecraft:stone")
)

func wheatCatalog() *crop.Catalog {
	return crop.NewCatalog([]crop.Rule{crop.NewRule(wheat, 7)}, crop.DefaultSettings())
}

func ripeWheat() game.BlockState {
	return game.NewBlockState(wheat, "age", "7")
}

// Scenario A: one seed and three wheat replant and leave only the wheat.
func TestDecide_ScenarioA_Replanted(t *testing.T) {
	drops := []game.ItemStack{game.Stack(wheatSeeds, 1), game.Stack(wheat, 3)}

	out := Decide(game.DefaultTags(), wheatCatalog(), ripeWheat(), drops)

	require.Equal(t, Replanted, out.Kind)
	assert.Equal(t, []game.ItemStack{game.Stack(wheat, 3)}, out.Drops)
	require.NotNil(t, out.Reset)
	assert.Equal(t, "minecraft:wheat[age=0]", out.Reset.String())
	assert.Equal(t, 1, out.Consumed)
	require.NotNil(t, out.Rule)
	assert.Equal(t, "wheat", out.Rule.Label)
	assert.Equal(t, game.Success, out.ActionResult())

	// Inputs untouched.
	assert.Equal(t, []game.ItemStack{game.Stack(wheatSeeds, 1), game.Stack(wheat, 3)}, drops)
	assert.Equal(t, "minecraft:wheat[age=7]", ripeWheat().String())
}

// Scenario B: no seed among the drops is a rejection with nothing changed.
func TestDecide_ScenarioB_Rejected(t *testing.T) {
	drops := []game.ItemStack{game.Stack(wheat, 2)}

	out := Decide(game.DefaultTags(), wheatCatalog(), ripeWheat(), drops)

	assert.Equal(t, Rejected, out.Kind)
	assert.Equal(t, ReasonNoSeed, out.Reason)
	assert.Equal(t, []game.ItemStack{game.Stack(wheat, 2)}, out.Drops)
	assert.Nil(t, out.Reset)
	assert.Equal(t, 0, out.Consumed)
	assert.Equal(t, game.Failure, out.ActionResult())
}

// Scenario C: untagged blocks are never handled, whatever the catalog says.
func TestDecide_ScenarioC_NotTagged(t *testing.T) {
	catalogs := []*crop.Catalog{
		nil,
		crop.NewCatalog(nil, crop.DefaultSettings()),
		crop.Default(),
		crop.NewCatalog([]crop.Rule{{Label: "stone", Matcher: crop.Matcher{Block: stone}}}, crop.DefaultSettings()),
	}
	for _, c := range catalogs {
		out := Decide(game.DefaultTags(), c, game.BlockState{Block: stone}, []game.ItemStack{game.Stack(wheatSeeds, 1)})
		assert.Equal(t, NotApplicable, out.Kind)
		assert.Equal(t, ReasonNotCrop, out.Reason)
		assert.Equal(t, game.Pass, out.ActionResult())
	}
}

func TestDecide_TaggedButNoRule(t *testing.T) {
	drops := []game.ItemStack{game.Stack(wheatSeeds, 2)}

	for _, state := range []game.BlockState{
		game.NewBlockState(wheat, "age", "3"),
		game.NewBlockState("minecraft:carrots", "age", "7"),
	} {
		out := Decide(game.DefaultTags(), wheatCatalog(), state, drops)
		assert.Equal(t, NotApplicable, out.Kind, state.String())
		assert.Equal(t, ReasonNoRule, out.Reason)
		assert.Nil(t, out.Rule)
	}
}

func TestDecide_EmptyDropsRejected(t *testing.T) {
	for _, drops := range [][]game.ItemStack{nil, {}} {
		out := Decide(game.DefaultTags(), wheatCatalog(), ripeWheat(), drops)
		assert.Equal(t, Rejected, out.Kind)
		assert.Empty(t, out.Drops)
	}
}

func TestDecide_DecrementsOnlyFirstSeedStack(t *testing.T) {
	drops := []game.ItemStack{
		game.Stack(wheat, 1),
		game.Stack(wheatSeeds, 3),
		game.Stack(wheatSeeds, 2),
	}

	out := Decide(game.DefaultTags(), wheatCatalog(), ripeWheat(), drops)

	require.Equal(t, Replanted, out.Kind)
	assert.Equal(t, []game.ItemStack{
		game.Stack(wheat, 1),
		game.Stack(wheatSeeds, 2),
		game.Stack(wheatSeeds, 2),
	}, out.Drops)
}

func TestDecide_SkipsEmptySeedStacks(t *testing.T) {
	drops := []game.ItemStack{game.Stack(wheatSeeds, 0), game.Stack(wheatSeeds, 1)}

	out := Decide(game.DefaultTags(), wheatCatalog(), ripeWheat(), drops)

	require.Equal(t, Replanted, out.Kind)
	assert.Equal(t, []game.ItemStack{game.Stack(wheatSeeds, 0)}, out.Drops)
}

func TestDecide_SeedCountProperty(t *testing.T) {
	// For every seed stack size, exactly one unit is removed.
	for n := 1; n <= 5; n++ {
		drops := []game.ItemStack{game.Stack(wheat, 2), game.Stack(wheatSeeds, n)}
		out := Decide(game.DefaultTags(), wheatCatalog(), ripeWheat(), drops)
		require.Equal(t, Replanted, out.Kind)

		total := 0
		for _, st := range out.Drops {
			if st.Item == wheatSeeds {
				total += st.Count
			}
		}
		assert.Equal(t, n-1, total)
		if n == 1 {
			assert.Len(t, out.Drops, 1, "stack of one is removed entirely")
		}
	}
}

func TestDecide_NilTags(t *testing.T) {
	out := Decide(nil, wheatCatalog(), ripeWheat(), []game.ItemStack{game.Stack(wheatSeeds, 1)})
	assert.Equal(t, NotApplicable, out.Kind)
}

func TestOutcomeString(t *testing.T) {
	out := Decide(game.DefaultTags(), wheatCatalog(), ripeWheat(), []game.ItemStack{game.Stack(wheatSeeds, 2)})
	assert.Equal(t, "replanted(wheat, consumed=1, drops=[1x minecraft:wheat_seeds])", out.String())

	out = Decide(game.DefaultTags(), wheatCatalog(), ripeWheat(), nil)
	assert.Equal(t, "rejected(wheat, no_seed_in_drops)", out.String())

	assert.Equal(t, "not_applicable(no_matching_rule)", NotApplicableOutcome(ReasonNoRule).String())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_applicable", NotApplicable.String())
	assert.Equal(t, "replanted", Replanted.String())
	assert.Equal(t, "rejected", Rejected.String())
}
