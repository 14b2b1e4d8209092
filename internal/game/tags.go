package game

// Tag names consulted by the engine. Both tags are owned by the host registry.
const (
	CropTag = "harvest:crops"
	SeedTag = "harvest:seeds"
)

// Tags is the read-only tag boundary.
type Tags interface {
	// IsCrop reports whether the block is in the crop tag.
	IsCrop(block Identifier) bool
	// IsSeed reports whether the item is in the seed tag.
	IsSeed(item Identifier) bool
}

// TagSet is a map-backed Tags implementation.
// It is not safe for concurrent mutation; build it once and share it read-only.
type TagSet struct {
	crops map[Identifier]struct{}
	seeds map[Identifier]struct{}
}

// NewTagSet creates a tag set with the given members.
func NewTagSet(crops, seeds []Identifier) *TagSet {
	t := &TagSet{
		crops: make(map[Identifier]struct{}, len(crops)),
		seeds: make(map[Identifier]struct{}, len(seeds)),
	}
	for _, c := range crops {
		t.crops[c] = struct{}{}
	}
	for _, s := range seeds {
		t.seeds[s] = struct{}{}
	}
	return t
}

// DefaultTags mirrors the vanilla contents of harvest:crops and harvest:seeds.
func DefaultTags() *TagSet {
	return NewTagSet(
		[]Identifier{
			"minecraft:wheat",
			"minecraft:carrots",
			"minecraft:potatoes",
			"minecraft:beetroots",
			"minecraft:nether_wart",
		},
		[]Identifier{
			"minecraft:wheat_seeds",
			"minecraft:carrot",
			"minecraft:potato",
			"minecraft:beetroot_seeds",
			"minecraft:nether_wart",
		},
	)
}

func (t *TagSet) IsCrop(block Identifier) bool {
	_, ok := t.crops[block]
	return ok
}

func (t *TagSet) IsSeed(item Identifier) bool {
	_, ok := t.seeds[item]
	return ok
}

// Crops returns the crop tag members in no particular order.
func (t *TagSet) Crops() []Identifier {
	out := make([]Identifier, 0, len(t.crops))
	for c := range t.crops {
		out = append(out, c)
	}
	return out
}

// Seeds returns the seed tag members in no particular order.
func (t *TagSet) Seeds() []Identifier {
	out := make([]Identifier, 0, len(t.seeds))
	for s := range t.seeds {
		out = append(out, s)
	}
	return out
}
