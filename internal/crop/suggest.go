package crop

import (
	"github.com/agnivade/levenshtein"

	"github.com/roach88/harvest/internal/game"
)

// Closest returns the rule whose block is nearest to block by edit distance
// on the identifier path. Only candidates in the same namespace within a
// length-scaled limit are considered.
func (c *Catalog) Closest(block game.Identifier) (Rule, bool) {
	if c == nil {
		return Rule{}, false
	}
	candidates := make([]game.Identifier, len(c.rules))
	for i, r := range c.rules {
		candidates[i] = r.Matcher.Block
	}
	best, ok := Suggest(block, candidates)
	if !ok {
		return Rule{}, false
	}
	for _, r := range c.rules {
		if r.Matcher.Block == best {
			return r, true
		}
	}
	return Rule{}, false
}

// Suggest returns the candidate nearest to id, or false if none is close
// enough. Ties keep the earliest candidate.
func Suggest(id game.Identifier, candidates []game.Identifier) (game.Identifier, bool) {
	var (
		best     game.Identifier
		bestDist = -1
	)
	for _, cand := range candidates {
		if cand.Namespace() != id.Namespace() {
			continue
		}
		dist := levenshtein.ComputeDistance(id.Path(), cand.Path())
		if dist > distanceLimit(len(cand.Path())) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best, bestDist >= 0
}

func distanceLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
