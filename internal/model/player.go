package model

import "time"

// PlayerID uniquely identifies a participant across the system.
// It is derived from the connection identity that created the player.
type PlayerID string

// Seat is one of the four fixed compass positions at the table
type Seat string

const (
	SeatEast  Seat = "east"
	SeatSouth Seat = "south"
	SeatWest  Seat = "west"
	SeatNorth Seat = "north"
)

// Seats returns the four seats in round-robin turn order
func Seats() []Seat {
	return []Seat{SeatEast, SeatSouth, SeatWest, SeatNorth}
}

// Next returns the seat after s in turn order
func (s Seat) Next() Seat {
	switch s {
	case SeatEast:
		return SeatSouth
	case SeatSouth:
		return SeatWest
	case SeatWest:
		return SeatNorth
	default:
		return SeatEast
	}
}

// Across returns the seat opposite s
func (s Seat) Across() Seat {
	return s.Next().Next()
}

// DistanceFrom returns how many turn steps separate s from the given
// seat, in (0, 4]. The seat immediately after `from` has distance 1;
// this is the claim-priority tiebreak metric.
func (s Seat) DistanceFrom(from Seat) int {
	d := 0
	cur := from
	for {
		d++
		cur = cur.Next()
		if cur == s || d > 4 {
			return d
		}
	}
}

// ClaimType identifies what a claimed discard is used for
type ClaimType string

const (
	ClaimPung    ClaimType = "pung"
	ClaimKong    ClaimType = "kong"
	ClaimQuint   ClaimType = "quint"
	ClaimMahjong ClaimType = "mahjong"
)

// ConcealedTileCount returns how many tiles from the concealed hand a
// claim of this type must offer alongside the discard
func (c ClaimType) ConcealedTileCount() int {
	switch c {
	case ClaimPung:
		return 2
	case ClaimKong:
		return 3
	case ClaimQuint:
		return 4
	default:
		return 0
	}
}

// Beats reports whether this claim type outranks other when both target
// the same discard. Mahjong beats everything; among exposures a higher
// tile count wins. Equal types do not beat each other (the turn-order
// tiebreak applies instead).
func (c ClaimType) Beats(other ClaimType) bool {
	return c.rank() > other.rank()
}

func (c ClaimType) rank() int {
	switch c {
	case ClaimMahjong:
		return 4
	case ClaimQuint:
		return 3
	case ClaimKong:
		return 2
	case ClaimPung:
		return 1
	default:
		return 0
	}
}

// ExposureGroup is a publicly committed group formed by a resolved claim.
// Immutable once formed, except for joker swaps which substitute a
// matching concealed tile for a joker inside the group.
type ExposureGroup struct {
	Tiles         []Tile    `json:"tiles"`
	FromDiscardID TileID    `json:"fromDiscardId"`
	ClaimType     ClaimType `json:"claimType"`
}

// PlayerState is one seat's live state within a room
type PlayerState struct {
	ID          PlayerID
	DisplayName string
	Seat        Seat
	Hand        []Tile
	Exposures   []ExposureGroup
	Connected   bool
	IsBot       bool

	// ControlledBy links a puppeted seat to its human controller in the
	// 2-player Siamese mode. Empty for directly-occupied seats.
	ControlledBy PlayerID

	// IsDead marks a seat ruled unable to reach any winning pattern.
	// Dead seats are skipped for turns and excluded from claim windows.
	IsDead bool

	// ReconnectHash holds the bcrypt hash of the outstanding single-use
	// reconnect token while the player is disconnected mid-game.
	ReconnectHash string

	JoinedAt time.Time
}

// TotalTiles counts concealed hand plus all exposure tiles. Between
// turns this is 13; mid-turn (holding a drawn tile) it is 14.
func (p *PlayerState) TotalTiles() int {
	n := len(p.Hand)
	for _, e := range p.Exposures {
		n += len(e.Tiles)
	}
	return n
}

// HasTiles reports whether every given tile ID is in the concealed hand
func (p *PlayerState) HasTiles(ids []TileID) bool {
	for _, id := range ids {
		if FindTile(p.Hand, id) < 0 {
			return false
		}
	}
	return true
}

// HasDistinctTiles is HasTiles with repeated IDs rejected: every ID must
// name a separate physical tile in the concealed hand
func (p *PlayerState) HasDistinctTiles(ids []TileID) bool {
	seen := make(map[TileID]bool, len(ids))
	for _, id := range ids {
		if seen[id] || FindTile(p.Hand, id) < 0 {
			return false
		}
		seen[id] = true
	}
	return true
}
