package evaluator

import (
	"sort"

	"github.com/openmahjong/parlor/internal/model"
)

// Match describes how close a hand is to one winning pattern
type Match struct {
	// Pattern is the display name of the matched pattern
	Pattern string
	// TilesAway is the number of tiles still needed; 0 means complete
	TilesAway int
	// Complete is true when a 14-tile hand fully realizes the pattern
	Complete bool
	// Contributing marks the hand tiles used by the best arrangement
	// for this pattern, keyed by tile ID
	Contributing map[model.TileID]bool
}

// Evaluator scores a 13/14-tile hand against the set of valid winning
// layouts. The game core consumes it as a pure function; the pattern
// content itself is game data, not protocol.
type Evaluator interface {
	// Evaluate returns the best complete match for a 14-tile hand, or
	// nil if no pattern is fully realized
	Evaluate(tiles []model.Tile) *Match

	// ClosestMatches returns up to n patterns ordered by ascending
	// tiles-away distance
	ClosestMatches(tiles []model.Tile, n int) []Match
}

// ShapeEvaluator is the built-in evaluator. It matches hands against
// group-size shapes (pungs, kongs, quints, pairs) with jokers allowed
// to substitute in groups of three or more, never in pairs.
type ShapeEvaluator struct {
	patterns []pattern
}

var _ Evaluator = (*ShapeEvaluator)(nil)

// New creates a ShapeEvaluator with the standard pattern set
func New() *ShapeEvaluator {
	return &ShapeEvaluator{patterns: standardPatterns()}
}

// Evaluate returns the best complete match, or nil
func (e *ShapeEvaluator) Evaluate(tiles []model.Tile) *Match {
	if len(tiles) != 14 {
		return nil
	}
	best := e.ClosestMatches(tiles, 1)
	if len(best) == 0 || !best[0].Complete {
		return nil
	}
	m := best[0]
	return &m
}

// ClosestMatches scores the hand against every pattern and returns the
// n nearest, ties broken by pattern name for determinism
func (e *ShapeEvaluator) ClosestMatches(tiles []model.Tile, n int) []Match {
	matches := make([]Match, 0, len(e.patterns))
	for _, p := range e.patterns {
		matches = append(matches, matchPattern(p, tiles))
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].TilesAway != matches[j].TilesAway {
			return matches[i].TilesAway < matches[j].TilesAway
		}
		return matches[i].Pattern < matches[j].Pattern
	})
	if n < len(matches) {
		matches = matches[:n]
	}
	return matches
}
