package bot

import (
	"github.com/openmahjong/parlor/internal/evaluator"
	"github.com/openmahjong/parlor/internal/model"
)

const patternsConsidered = 3

// PatternBrain drives bot seats toward the closest winning patterns.
// Tiles are scored by how much they contribute to the nearest patterns,
// weighted by inverse distance, and the least useful tile goes first.
// Deterministic for a given hand.
type PatternBrain struct {
	evaluator evaluator.Evaluator
}

// NewPatternBrain creates a PatternBrain backed by the given evaluator
func NewPatternBrain(eval evaluator.Evaluator) *PatternBrain {
	return &PatternBrain{evaluator: eval}
}

// tileScores weights each hand tile by its contribution to the closest
// patterns. Jokers and blanks carry flat bonuses so they are shed last;
// among equally useless tiles, lower values go first.
func (b *PatternBrain) tileScores(hand []model.Tile) map[model.TileID]float64 {
	scores := make(map[model.TileID]float64, len(hand))
	for _, t := range hand {
		scores[t.ID] = 0
	}
	for _, m := range b.evaluator.ClosestMatches(hand, patternsConsidered) {
		weight := 1.0 / float64(1+m.TilesAway)
		for id := range m.Contributing {
			if _, inHand := scores[id]; inHand {
				scores[id] += weight
			}
		}
	}
	for _, t := range hand {
		if t.IsJoker {
			scores[t.ID] += 10
		}
		if t.Suit == model.SuitBlank {
			scores[t.ID] += 5
		}
		scores[t.ID] += float64(t.Value) * 0.01
	}
	return scores
}

// ChooseDiscard throws the lowest-scoring tile, hand order as tiebreak
func (b *PatternBrain) ChooseDiscard(hand []model.Tile) model.TileID {
	scores := b.tileScores(hand)
	pick := hand[0].ID
	for _, t := range hand[1:] {
		if scores[t.ID] < scores[pick] {
			pick = t.ID
		}
	}
	return pick
}

// ChooseCharlestonPass offers the three lowest-scoring passable tiles
func (b *PatternBrain) ChooseCharlestonPass(hand []model.Tile) []model.TileID {
	scores := b.tileScores(hand)

	candidates := make([]model.Tile, 0, len(hand))
	for _, t := range hand {
		if t.IsJoker || t.Suit == model.SuitBlank {
			continue
		}
		candidates = append(candidates, t)
	}

	var picks []model.TileID
	for len(picks) < 3 && len(candidates) > 0 {
		best := 0
		for i := 1; i < len(candidates); i++ {
			if scores[candidates[i].ID] < scores[candidates[best].ID] {
				best = i
			}
		}
		picks = append(picks, candidates[best].ID)
		candidates = append(candidates[:best], candidates[best+1:]...)
	}
	return picks
}

// ChooseClaim decides whether a discard is worth exposing for. Mahjong
// is always taken; a kong is taken on three natural copies; a pung only
// when the face is contributing to the hand's closest pattern.
func (b *PatternBrain) ChooseClaim(player *model.PlayerState, discard model.Tile) *model.ClaimOffer {
	full := append([]model.Tile{}, player.Hand...)
	for _, e := range player.Exposures {
		full = append(full, e.Tiles...)
	}
	full = append(full, discard)
	if len(full) == 14 && b.evaluator.Evaluate(full) != nil {
		return &model.ClaimOffer{Type: model.ClaimMahjong}
	}

	var naturals []model.TileID
	for _, t := range player.Hand {
		if !t.IsJoker && t.SameFace(discard) {
			naturals = append(naturals, t.ID)
		}
	}
	if len(naturals) >= 3 {
		return &model.ClaimOffer{Type: model.ClaimKong, TileIDs: naturals[:3]}
	}
	if len(naturals) == 2 {
		closest := b.evaluator.ClosestMatches(player.Hand, 1)
		if len(closest) > 0 && closest[0].Contributing[naturals[0]] {
			return &model.ClaimOffer{Type: model.ClaimPung, TileIDs: naturals[:2]}
		}
	}
	return nil
}
