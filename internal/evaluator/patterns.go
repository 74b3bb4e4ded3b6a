package evaluator

import (
	"fmt"
	"sort"

	"github.com/openmahjong/parlor/internal/model"
)

// pattern is one winning layout expressed as group sizes summing to 14.
// Groups of 3+ accept jokers; pairs must be natural.
type pattern struct {
	name   string
	groups []int
}

func standardPatterns() []pattern {
	return []pattern{
		{name: "Four Pungs and a Pair", groups: []int{3, 3, 3, 3, 2}},
		{name: "Two Kongs and Two Pungs", groups: []int{4, 4, 3, 3}},
		{name: "Three Kongs and a Pair", groups: []int{4, 4, 4, 2}},
		{name: "Quint, Kong, Pung, Pair", groups: []int{5, 4, 3, 2}},
		{name: "Two Quints and a Kong", groups: []int{5, 5, 4}},
		{name: "Seven Pairs", groups: []int{2, 2, 2, 2, 2, 2, 2}},
	}
}

// faceKey collapses identical tile faces; all flowers share one key
// since they are interchangeable in American play
func faceKey(t model.Tile) string {
	if t.Suit == model.SuitFlower {
		return "flower"
	}
	return fmt.Sprintf("%s:%d:%s", t.Suit, t.Value, t.Name)
}

type faceCount struct {
	key   string
	count int
}

// matchPattern greedily arranges the hand into the pattern's groups:
// largest groups first, each filled from the most plentiful remaining
// face, topping up 3+ groups with jokers. Deterministic for a given
// hand, which is all the claim and bot logic requires.
func matchPattern(p pattern, tiles []model.Tile) Match {
	counts := make(map[string]int)
	jokers := 0
	for _, t := range tiles {
		if t.IsJoker {
			jokers++
			continue
		}
		if t.Suit == model.SuitBlank {
			continue // blanks never participate in patterns
		}
		counts[faceKey(t)]++
	}

	faces := make([]faceCount, 0, len(counts))
	for k, c := range counts {
		faces = append(faces, faceCount{key: k, count: c})
	}

	groups := append([]int{}, p.groups...)
	sort.Sort(sort.Reverse(sort.IntSlice(groups)))

	// usedFaces records how many copies of each face the arrangement
	// consumes; jokersUsed how many jokers back-fill 3+ groups
	usedFaces := make(map[string]int)
	jokersUsed := 0
	covered := 0

	for _, g := range groups {
		// Most plentiful remaining face, key order as tiebreak
		sort.SliceStable(faces, func(i, j int) bool {
			if faces[i].count != faces[j].count {
				return faces[i].count > faces[j].count
			}
			return faces[i].key < faces[j].key
		})

		if len(faces) == 0 || faces[0].count == 0 {
			// Nothing natural left; 3+ groups can still be all jokers
			if g >= 3 && jokers >= g {
				jokers -= g
				jokersUsed += g
				covered += g
			}
			continue
		}

		take := faces[0].count
		if take > g {
			take = g
		}
		if g == 2 && take < 2 {
			// Pairs must be natural; a lone tile toward a pair still
			// counts as progress
			usedFaces[faces[0].key] += take
			faces[0].count -= take
			covered += take
			continue
		}

		usedFaces[faces[0].key] += take
		faces[0].count -= take
		covered += take

		if g >= 3 && take < g {
			fill := g - take
			if fill > jokers {
				fill = jokers
			}
			jokers -= fill
			jokersUsed += fill
			covered += fill
		}
	}

	contributing := make(map[model.TileID]bool)
	remaining := make(map[string]int, len(usedFaces))
	for k, v := range usedFaces {
		remaining[k] = v
	}
	jokersToMark := jokersUsed
	for _, t := range tiles {
		if t.IsJoker {
			if jokersToMark > 0 {
				contributing[t.ID] = true
				jokersToMark--
			}
			continue
		}
		k := faceKey(t)
		if remaining[k] > 0 {
			contributing[t.ID] = true
			remaining[k]--
		}
	}

	away := 14 - covered
	return Match{
		Pattern:      p.name,
		TilesAway:    away,
		Complete:     away == 0 && len(tiles) == 14,
		Contributing: contributing,
	}
}
