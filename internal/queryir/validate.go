package queryir

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// FieldError reports a predicate that names an unknown field or carries
// a value of the wrong type.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// Validate checks every predicate in q. It is pure and returns the first
// problem found.
func Validate(q Query) error {
	if q.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", q.Limit)
	}
	return validatePredicate(q.Filter)
}

func validatePredicate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case Equals:
		return validateEquals(pred)
	case Since:
		if pred.Seq < 0 {
			return fmt.Errorf("since: seq must be non-negative, got %d", pred.Seq)
		}
		return nil
	case And:
		for _, sub := range pred.Predicates {
			if err := validatePredicate(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func validateEquals(eq Equals) error {
	kind, ok := Fields[eq.Field]
	if !ok {
		msg := "unknown field"
		if s := suggestField(eq.Field); s != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", s)
		}
		return &FieldError{Field: eq.Field, Message: msg}
	}

	switch eq.Value.(type) {
	case string:
		if kind == KindString {
			return nil
		}
	case int, int64:
		if kind == KindInt {
			return nil
		}
	}
	return &FieldError{
		Field:   eq.Field,
		Message: fmt.Sprintf("want %s value, got %T", kind, eq.Value),
	}
}

// suggestField returns the closest known field within edit distance 2.
func suggestField(name string) string {
	names := make([]string, 0, len(Fields))
	for f := range Fields {
		names = append(names, f)
	}
	sort.Strings(names)

	best, bestDist := "", 3
	for _, f := range names {
		if d := levenshtein.ComputeDistance(name, f); d < bestDist {
			best, bestDist = f, d
		}
	}
	return best
}

// Parse turns "field=value" terms into a conjunction of Equals, converting
// integer fields. Terms are kept in order.
func Parse(terms []string) (Predicate, error) {
	preds := make([]Predicate, 0, len(terms))
	for _, term := range terms {
		field, raw, ok := strings.Cut(term, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("filter %q: want field=value", term)
		}
		eq, err := Typed(field, strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		preds = append(preds, eq)
	}
	return All(preds...), nil
}

// Typed builds an Equals from a string value, converting it to the
// field's kind.
func Typed(field, raw string) (Equals, error) {
	eq := Equals{Field: field, Value: raw}
	if Fields[field] == KindInt {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Equals{}, &FieldError{Field: field, Message: fmt.Sprintf("want integer value, got %q", raw)}
		}
		eq.Value = n
	}
	if err := validateEquals(eq); err != nil {
		return Equals{}, err
	}
	return eq, nil
}
