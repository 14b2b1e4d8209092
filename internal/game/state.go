package game

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BlockState is a block identity plus its discrete property values
// (e.g. minecraft:wheat with age=7).
//
// Properties is treated as immutable once a state is shared. Use With to
// derive a modified copy.
type BlockState struct {
	Block      Identifier        `json:"block"`
	Properties map[string]string `json:"properties,omitempty"`
}

// NewBlockState builds a state from alternating key/value pairs.
// Panics on an odd number of arguments.
func NewBlockState(block Identifier, kv ...string) BlockState {
	if len(kv)%2 != 0 {
		panic("NewBlockState: odd number of property arguments")
	}
	s := BlockState{Block: block}
	if len(kv) > 0 {
		s.Properties = make(map[string]string, len(kv)/2)
		for i := 0; i < len(kv); i += 2 {
			s.Properties[kv[i]] = kv[i+1]
		}
	}
	return s
}

// ParseBlockState parses the String form, e.g. "minecraft:wheat[age=7]".
// The block identifier goes through ParseIdentifier.
func ParseBlockState(raw string) (BlockState, error) {
	raw = strings.TrimSpace(raw)
	id, props, hasProps := strings.Cut(raw, "[")

	block, err := ParseIdentifier(id)
	if err != nil {
		return BlockState{}, fmt.Errorf("block state %q: %w", raw, err)
	}
	s := BlockState{Block: block}
	if !hasProps {
		return s, nil
	}

	body, ok := strings.CutSuffix(props, "]")
	if !ok {
		return BlockState{}, fmt.Errorf("block state %q: missing closing ']'", raw)
	}
	if strings.TrimSpace(body) == "" {
		return s, nil
	}

	s.Properties = make(map[string]string)
	for _, pair := range strings.Split(body, ",") {
		k, v, found := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !found || k == "" || v == "" {
			return BlockState{}, fmt.Errorf("block state %q: malformed property %q", raw, pair)
		}
		if _, dup := s.Properties[k]; dup {
			return BlockState{}, fmt.Errorf("block state %q: duplicate property %q", raw, k)
		}
		s.Properties[k] = v
	}
	return s, nil
}

// Property returns the value of a property and whether it is present.
func (s BlockState) Property(key string) (string, bool) {
	v, ok := s.Properties[key]
	return v, ok
}

// IntProperty returns a property parsed as an integer.
func (s BlockState) IntProperty(key string) (int, bool) {
	v, ok := s.Properties[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// With returns a copy of s with one property set.
func (s BlockState) With(key, value string) BlockState {
	props := make(map[string]string, len(s.Properties)+1)
	for k, v := range s.Properties {
		props[k] = v
	}
	props[key] = value
	return BlockState{Block: s.Block, Properties: props}
}

// Equal reports whether both states have the same block and properties.
func (s BlockState) Equal(o BlockState) bool {
	if s.Block != o.Block || len(s.Properties) != len(o.Properties) {
		return false
	}
	for k, v := range s.Properties {
		if ov, ok := o.Properties[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the state as block[k=v,...] with keys sorted.
func (s BlockState) String() string {
	if len(s.Properties) == 0 {
		return string(s.Block)
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(s.Block))
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s.Properties[k])
	}
	b.WriteByte(']')
	return b.String()
}

// ItemStack is a count of one item.
type ItemStack struct {
	Item  Identifier `json:"item"`
	Count int        `json:"count"`
}

// Stack is a shorthand constructor.
func Stack(item Identifier, count int) ItemStack {
	return ItemStack{Item: item, Count: count}
}

// Empty reports whether the stack holds nothing.
func (st ItemStack) Empty() bool {
	return st.Count <= 0
}

func (st ItemStack) String() string {
	return fmt.Sprintf("%dx %s", st.Count, st.Item)
}

// CloneStacks returns a copy of stacks. A nil input yields an empty slice.
func CloneStacks(stacks []ItemStack) []ItemStack {
	out := make([]ItemStack, len(stacks))
	copy(out, stacks)
	return out
}

// BlockPos is an integer world position.
type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p BlockPos) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}

// Hand identifies which hand performed an interaction.
type Hand int

const (
	MainHand Hand = iota
	OffHand
)

func (h Hand) String() string {
	switch h {
	case MainHand:
		return "main_hand"
	case OffHand:
		return "off_hand"
	default:
		return fmt.Sprintf("hand(%d)", int(h))
	}
}

// ParseHand accepts "main", "main_hand", "off" and "off_hand".
func ParseHand(s string) (Hand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "main", "main_hand":
		return MainHand, nil
	case "off", "off_hand":
		return OffHand, nil
	default:
		return MainHand, fmt.Errorf("unknown hand %q", s)
	}
}

// Direction is the face of the block that was hit.
type Direction string

const (
	Down  Direction = "down"
	Up    Direction = "up"
	North Direction = "north"
	South Direction = "south"
	West  Direction = "west"
	East  Direction = "east"
)

// ActionResult is what the host receives back from an interaction callback.
type ActionResult int

const (
	// Pass lets the host continue with its default processing.
	Pass ActionResult = iota
	// Success cancels default processing; the interaction was consumed.
	Success
	// Failure cancels default processing; the interaction was attempted and failed.
	Failure
)

func (r ActionResult) String() string {
	switch r {
	case Pass:
		return "pass"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}
