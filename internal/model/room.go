package model

import "time"

// RoomCode is the short human-shareable identifier for joining rooms
type RoomCode string

// Phase is the current stage of the turn state machine
type Phase string

const (
	PhaseCharleston Phase = "charleston"
	PhaseDraw       Phase = "draw"
	PhaseDiscard    Phase = "discard"
	PhaseCalling    Phase = "calling"
	PhaseWon        Phase = "won"
)

// GameMode selects how seats are filled
type GameMode string

const (
	// ModeStandard seats up to four humans
	ModeStandard GameMode = "standard"
	// ModeSiamese seats two humans, each puppeting the opposite seat.
	// Winning requires both controlled hands to be complete at once.
	ModeSiamese GameMode = "siamese"
)

// RoomConfig holds settings fixed at room creation
type RoomConfig struct {
	GameMode     GameMode `json:"gameMode"`
	FillWithBots bool     `json:"fillWithBots"`
	EnableBlanks bool     `json:"enableBlanks"`
}

// DefaultRoomConfig returns the standard four-player configuration
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		GameMode:     ModeStandard,
		FillWithBots: true,
		EnableBlanks: false,
	}
}

// HumanSeats returns how many directly-occupied human seats the mode allows
func (c RoomConfig) HumanSeats() int {
	if c.GameMode == ModeSiamese {
		return 2
	}
	return 4
}

// PassDirection is a Charleston exchange direction over the four seats
type PassDirection string

const (
	PassRight  PassDirection = "right"
	PassAcross PassDirection = "across"
	PassLeft   PassDirection = "left"
)

// Target returns the seat that receives tiles passed by s in this direction
func (d PassDirection) Target(s Seat) Seat {
	switch d {
	case PassRight:
		return s.Next().Next().Next()
	case PassAcross:
		return s.Across()
	default:
		return s.Next()
	}
}

// CharlestonStage tracks where the pre-game ritual is up to
type CharlestonStage string

const (
	StagePassing  CharlestonStage = "passing"
	StageVoting   CharlestonStage = "voting"   // unanimous vote on the second charleston
	StageCourtesy CharlestonStage = "courtesy" // optional across-pair exchange
)

// CharlestonState is the active pre-game tile exchange
type CharlestonState struct {
	Stage     CharlestonStage
	Passes    []PassDirection // completed + upcoming pass directions
	PassIndex int             // index into Passes of the current pass

	Selected map[Seat][]TileID // each player's private 3-tile selection
	Ready    map[Seat]bool

	SecondVotes map[Seat]*bool // nil = not voted yet

	// Courtesy negotiation: each seat independently proposes 0-3 tiles
	// to exchange with its across partner; the resolved size is the
	// minimum of the two proposals.
	CourtesyProposals map[Seat]*int
	CourtesySelected  map[Seat][]TileID
}

// NewCharlestonState starts the first mandatory charleston
func NewCharlestonState() *CharlestonState {
	return &CharlestonState{
		Stage:             StagePassing,
		Passes:            []PassDirection{PassRight, PassAcross, PassLeft},
		Selected:          make(map[Seat][]TileID),
		Ready:             make(map[Seat]bool),
		SecondVotes:       make(map[Seat]*bool),
		CourtesyProposals: make(map[Seat]*int),
		CourtesySelected:  make(map[Seat][]TileID),
	}
}

// CurrentDirection returns the direction of the in-progress pass
func (c *CharlestonState) CurrentDirection() PassDirection {
	return c.Passes[c.PassIndex]
}

// AllReady reports whether all four seats have marked ready
func (c *CharlestonState) AllReady() bool {
	for _, s := range Seats() {
		if !c.Ready[s] {
			return false
		}
	}
	return true
}

// ClaimOffer is one seat's submitted claim on the live discard
type ClaimOffer struct {
	Type    ClaimType `json:"claimType"`
	TileIDs []TileID  `json:"tileIds"`
}

// ClaimResponse records a seat's answer during the calling window
type ClaimResponse struct {
	Passed bool
	Offer  *ClaimOffer
}

// CallingState is the open claim window after a discard
type CallingState struct {
	DiscardID TileID
	Discarder Seat
	Responses map[Seat]*ClaimResponse // nil entry = not yet responded
}

// NewCallingState opens a claim window for all seats but the discarder
func NewCallingState(discardID TileID, discarder Seat) *CallingState {
	return &CallingState{
		DiscardID: discardID,
		Discarder: discarder,
		Responses: make(map[Seat]*ClaimResponse),
	}
}

// Eligible returns the seats allowed to respond, excluding dead seats
func (c *CallingState) Eligible(room *Room) []Seat {
	var out []Seat
	for _, s := range Seats() {
		if s == c.Discarder {
			continue
		}
		if p := room.PlayerBySeat(s); p != nil && !p.IsDead {
			out = append(out, s)
		}
	}
	return out
}

// AllResponded reports whether every eligible seat has claimed or passed
func (c *CallingState) AllResponded(room *Room) bool {
	for _, s := range c.Eligible(room) {
		if c.Responses[s] == nil {
			return false
		}
	}
	return true
}

// PlayAgainState is the post-win ballot
type PlayAgainState struct {
	Votes    map[PlayerID]*bool // keyed by human controller, nil = outstanding
	Deadline time.Time
}

// AllYes reports whether every ballot has arrived and all are yes
func (p *PlayAgainState) AllYes() bool {
	for _, v := range p.Votes {
		if v == nil || !*v {
			return false
		}
	}
	return len(p.Votes) > 0
}

// WinResult records the winning player and matched pattern
type WinResult struct {
	PlayerID PlayerID `json:"playerId"`
	Seat     Seat     `json:"seat"`
	Pattern  string   `json:"pattern"`
}

// Room is the complete authoritative state of one game room.
// A Room is exclusively owned by its registry entry's dispatch context;
// no component mutates it outside a registry dispatch.
type Room struct {
	Code    RoomCode
	Config  RoomConfig
	Players []*PlayerState // seat order east, south, west, north once active

	Started     bool
	Phase       Phase
	CurrentTurn Seat

	Deck          []Tile // front = next draw
	DiscardPile   []Tile // most-recent-first
	LastDiscard   *Tile
	LastDiscarder Seat

	Winner   *WinResult
	WallGame bool // round ended with no winner on wall exhaustion

	Charleston *CharlestonState
	Calling    *CallingState
	PlayAgain  *PlayAgainState

	// GraceExpired records seats whose disconnect grace ran out while
	// the remaining players chose to keep waiting
	GraceExpired map[Seat]bool

	HandsPlayed int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WallCount returns the number of undealt tiles remaining
func (r *Room) WallCount() int {
	return len(r.Deck)
}

// PlayerBySeat returns the player at the given seat, or nil
func (r *Room) PlayerBySeat(seat Seat) *PlayerState {
	for _, p := range r.Players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// PlayerByID returns the player with the given ID, or nil
func (r *Room) PlayerByID(id PlayerID) *PlayerState {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CanActFor is the single authority check for seat delegation: a
// requester may act for a seat if they occupy it directly or are the
// registered controller of a puppeted seat.
func (r *Room) CanActFor(requester PlayerID, seat Seat) bool {
	p := r.PlayerBySeat(seat)
	if p == nil {
		return false
	}
	return p.ID == requester || p.ControlledBy == requester
}

// SeatsControlledBy returns every seat the given player may act for
func (r *Room) SeatsControlledBy(id PlayerID) []Seat {
	var out []Seat
	for _, p := range r.Players {
		if p.ID == id || p.ControlledBy == id {
			out = append(out, p.Seat)
		}
	}
	return out
}

// Controllers returns the distinct human controllers in seat order:
// one entry per human, excluding bots and puppeted seats.
func (r *Room) Controllers() []PlayerID {
	seen := make(map[PlayerID]bool)
	var out []PlayerID
	for _, p := range r.Players {
		if p.IsBot || p.ControlledBy != "" {
			continue
		}
		if !seen[p.ID] {
			seen[p.ID] = true
			out = append(out, p.ID)
		}
	}
	return out
}

// NextActiveSeat returns the next seat in turn order that is not dead
func (r *Room) NextActiveSeat(from Seat) Seat {
	s := from.Next()
	for i := 0; i < 3; i++ {
		p := r.PlayerBySeat(s)
		if p != nil && !p.IsDead {
			return s
		}
		s = s.Next()
	}
	return from
}

// TotalTiles sums deck, hands, exposures and discard pile. For every
// reachable state this equals DeckSize (closed-system conservation).
func (r *Room) TotalTiles() int {
	n := len(r.Deck) + len(r.DiscardPile)
	for _, p := range r.Players {
		n += p.TotalTiles()
	}
	return n
}
