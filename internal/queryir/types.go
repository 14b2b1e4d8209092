package queryir

// Query selects interactions from the harvest log.
//
// Results are always in log order (seq, then id). With Limit > 0 only the
// newest Limit matches are kept, still in log order.
type Query struct {
	Filter Predicate // nil = no filter
	Limit  int
}

// Predicate is a filter condition. Sealed; see package docs.
type Predicate interface {
	predicateNode()
}

// Equals is field = value.
//
//	Equals{Field: "outcome", Value: "rejected"}
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Since is seq > Seq. Pollers pass the last seq they have seen.
type Since struct {
	Seq int64
}

func (Since) predicateNode() {}

// And holds when every predicate holds. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Kind is the value type of a field.
type Kind int

const (
	KindString Kind = iota
	KindInt
)

func (k Kind) String() string {
	if k == KindInt {
		return "integer"
	}
	return "string"
}

// Fields lists the filterable fields of a logged interaction.
var Fields = map[string]Kind{
	"id":           KindString,
	"world":        KindString,
	"actor":        KindString,
	"hand":         KindString,
	"x":            KindInt,
	"y":            KindInt,
	"z":            KindInt,
	"before":       KindString,
	"after":        KindString,
	"outcome":      KindString,
	"result":       KindString,
	"rule":         KindString,
	"reason":       KindString,
	"consumed":     KindInt,
	"catalog_hash": KindString,
}

// Where is shorthand for an Equals predicate.
func Where(field string, value any) Equals {
	return Equals{Field: field, Value: value}
}

// All conjoins predicates, dropping nils. It returns nil for no
// predicates and the predicate itself for one.
func All(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// AtPos matches one block position.
func AtPos(world string, x, y, z int) Predicate {
	return And{Predicates: []Predicate{
		Where("world", world),
		Where("x", x),
		Where("y", y),
		Where("z", z),
	}}
}
