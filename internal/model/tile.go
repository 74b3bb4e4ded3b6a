package model

import (
	"fmt"
	"sort"
)

// TileID uniquely identifies a physical tile within one game instance
type TileID string

// Suit groups tiles into the American mahjong families
type Suit string

const (
	SuitBam    Suit = "bam"
	SuitCrak   Suit = "crak"
	SuitDot    Suit = "dot"
	SuitWind   Suit = "wind"
	SuitDragon Suit = "dragon"
	SuitFlower Suit = "flower"
	SuitJoker  Suit = "joker"
	SuitBlank  Suit = "blank"
)

// Named values for winds, dragons and the eight distinct flowers/seasons
const (
	WindEast  = "east"
	WindSouth = "south"
	WindWest  = "west"
	WindNorth = "north"

	DragonRed   = "red"
	DragonGreen = "green"
	DragonWhite = "white"
)

// FlowerNames are the eight one-of-a-kind flower/season tiles
var FlowerNames = []string{
	"plum", "orchid", "chrysanthemum", "bamboo",
	"spring", "summer", "autumn", "winter",
}

// Tile is a single physical tile. Immutable once created.
type Tile struct {
	ID      TileID `json:"id"`
	Suit    Suit   `json:"suit"`
	Value   int    `json:"value,omitempty"` // 1-9 for bam/crak/dot, 0 otherwise
	Name    string `json:"name,omitempty"`  // named value for winds/dragons/flowers
	IsJoker bool   `json:"isJoker"`
}

// DeckSize is the full American mahjong set:
// 3 suits x 9 values x 4 copies + 4 winds x 4 + 3 dragons x 4 + 8 flowers + 8 jokers.
const DeckSize = 152

// Matches reports whether t can stand in for other in an exposure group.
// Jokers match any non-joker tile; flowers are interchangeable with each
// other; everything else requires identical suit, value and name.
func (t Tile) Matches(other Tile) bool {
	if t.IsJoker {
		return !other.IsJoker
	}
	if t.Suit == SuitFlower && other.Suit == SuitFlower {
		return true
	}
	return t.Suit == other.Suit && t.Value == other.Value && t.Name == other.Name
}

// SameFace reports whether two tiles are identical copies (ignoring ID).
func (t Tile) SameFace(other Tile) bool {
	return t.Suit == other.Suit && t.Value == other.Value && t.Name == other.Name
}

// String renders a tile for logs and debugging
func (t Tile) String() string {
	switch t.Suit {
	case SuitBam, SuitCrak, SuitDot:
		return fmt.Sprintf("%d-%s", t.Value, t.Suit)
	case SuitJoker:
		return "joker"
	case SuitBlank:
		return "blank"
	default:
		return fmt.Sprintf("%s-%s", t.Name, t.Suit)
	}
}

var suitOrder = map[Suit]int{
	SuitBam:    0,
	SuitCrak:   1,
	SuitDot:    2,
	SuitWind:   3,
	SuitDragon: 4,
	SuitFlower: 5,
	SuitBlank:  6,
	SuitJoker:  7,
}

var nameOrder = map[string]int{
	WindEast: 0, WindSouth: 1, WindWest: 2, WindNorth: 3,
	DragonRed: 0, DragonGreen: 1, DragonWhite: 2,
	"plum": 0, "orchid": 1, "chrysanthemum": 2, "bamboo": 3,
	"spring": 4, "summer": 5, "autumn": 6, "winter": 7,
}

// Less defines the deterministic sort order used by game:sort
func (t Tile) Less(other Tile) bool {
	if suitOrder[t.Suit] != suitOrder[other.Suit] {
		return suitOrder[t.Suit] < suitOrder[other.Suit]
	}
	if t.Value != other.Value {
		return t.Value < other.Value
	}
	return nameOrder[t.Name] < nameOrder[other.Name]
}

// SortTiles orders tiles in place by suit, then value, then name
func SortTiles(tiles []Tile) {
	sort.SliceStable(tiles, func(i, j int) bool {
		return tiles[i].Less(tiles[j])
	})
}

// NewDeck builds the full unshuffled 152-tile set. Tile IDs are unique
// within the returned deck and never reused for the life of a game.
// When withBlanks is set, two jokers are replaced by zombie blanks so
// the total stays at DeckSize.
func NewDeck(withBlanks bool) []Tile {
	tiles := make([]Tile, 0, DeckSize)
	n := 0
	next := func(suit Suit, value int, name string, joker bool) {
		n++
		tiles = append(tiles, Tile{
			ID:      TileID(fmt.Sprintf("t%03d", n)),
			Suit:    suit,
			Value:   value,
			Name:    name,
			IsJoker: joker,
		})
	}

	for _, suit := range []Suit{SuitBam, SuitCrak, SuitDot} {
		for value := 1; value <= 9; value++ {
			for copies := 0; copies < 4; copies++ {
				next(suit, value, "", false)
			}
		}
	}
	for _, wind := range []string{WindEast, WindSouth, WindWest, WindNorth} {
		for copies := 0; copies < 4; copies++ {
			next(SuitWind, 0, wind, false)
		}
	}
	for _, dragon := range []string{DragonRed, DragonGreen, DragonWhite} {
		for copies := 0; copies < 4; copies++ {
			next(SuitDragon, 0, dragon, false)
		}
	}
	for _, flower := range FlowerNames {
		next(SuitFlower, 0, flower, false)
	}

	jokers := 8
	if withBlanks {
		jokers = 6
		next(SuitBlank, 0, "", false)
		next(SuitBlank, 0, "", false)
	}
	for i := 0; i < jokers; i++ {
		next(SuitJoker, 0, "", true)
	}

	return tiles
}

// FindTile returns the index of the tile with the given ID, or -1
func FindTile(tiles []Tile, id TileID) int {
	for i, t := range tiles {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// RemoveTile removes the tile with the given ID, returning it and true
// if present
func RemoveTile(tiles []Tile, id TileID) ([]Tile, Tile, bool) {
	idx := FindTile(tiles, id)
	if idx < 0 {
		return tiles, Tile{}, false
	}
	removed := tiles[idx]
	out := append(append([]Tile{}, tiles[:idx]...), tiles[idx+1:]...)
	return out, removed, true
}

// RemoveTiles removes every listed tile, returning the removed tiles in
// the order given and false when any ID is absent. A repeated ID fails
// on its second occurrence: each ID must account for its own physical
// tile. On failure the input slice is returned unchanged.
func RemoveTiles(tiles []Tile, ids []TileID) ([]Tile, []Tile, bool) {
	remaining := append([]Tile{}, tiles...)
	removed := make([]Tile, 0, len(ids))
	for _, id := range ids {
		rest, tile, ok := RemoveTile(remaining, id)
		if !ok {
			return tiles, nil, false
		}
		remaining = rest
		removed = append(removed, tile)
	}
	return remaining, removed, true
}
