package model

import "time"

// SeatView is what any participant may see about a seat. Opponents'
// concealed hands are represented by count only.
type SeatView struct {
	Seat        Seat            `json:"seat"`
	DisplayName string          `json:"playerName"`
	Connected   bool            `json:"connected"`
	IsBot       bool            `json:"isBot"`
	IsDead      bool            `json:"isDead"`
	HandCount   int             `json:"handCount"`
	Exposures   []ExposureGroup `json:"exposures"`
}

// HandView is a hand the recipient is entitled to see in full
type HandView struct {
	Seat  Seat   `json:"seat"`
	Tiles []Tile `json:"tiles"`
}

// CharlestonView is the public charleston state plus the recipient's
// own private selections
type CharlestonView struct {
	Stage     CharlestonStage `json:"stage"`
	Direction PassDirection   `json:"direction"`
	PassIndex int             `json:"passIndex"`
	Ready     map[Seat]bool   `json:"ready"`
	Selected  []TileID        `json:"selected,omitempty"` // recipient's own
}

// CallingView is the public claim-window state
type CallingView struct {
	DiscardID TileID        `json:"discardId"`
	Discarder Seat          `json:"discarder"`
	Responded map[Seat]bool `json:"responded"`
}

// ClientRoomView is the per-recipient snapshot pushed after every
// accepted mutation
type ClientRoomView struct {
	RoomCode    RoomCode   `json:"roomCode"`
	Config      RoomConfig `json:"config"`
	Started     bool       `json:"started"`
	Phase       Phase      `json:"phase"`
	CurrentTurn Seat       `json:"currentTurn"`

	Seats []SeatView `json:"seats"`
	Hands []HandView `json:"hands"` // the seats this recipient controls

	WallCount     int    `json:"wallCount"`
	DiscardPile   []Tile `json:"discardPile"`
	LastDiscard   *Tile  `json:"lastDiscard,omitempty"`
	LastDiscarder Seat   `json:"lastDiscarder,omitempty"`

	Charleston *CharlestonView `json:"charleston,omitempty"`
	Calling    *CallingView    `json:"calling,omitempty"`

	Winner            *WinResult `json:"winner,omitempty"`
	WallGame          bool       `json:"wallGame,omitempty"`
	PlayAgainDeadline *time.Time `json:"playAgainDeadline,omitempty"`
}

// BuildView assembles the snapshot scoped to one recipient: full tiles
// only for seats the recipient controls, counts for everyone else.
func BuildView(room *Room, viewer PlayerID) ClientRoomView {
	view := ClientRoomView{
		RoomCode:    room.Code,
		Config:      room.Config,
		Started:     room.Started,
		Phase:       room.Phase,
		CurrentTurn: room.CurrentTurn,
		WallCount:   room.WallCount(),
		DiscardPile: room.DiscardPile,
		LastDiscard: room.LastDiscard,
		Winner:      room.Winner,
		WallGame:    room.WallGame,
	}
	if room.LastDiscard != nil {
		view.LastDiscarder = room.LastDiscarder
	}

	for _, p := range room.Players {
		view.Seats = append(view.Seats, SeatView{
			Seat:        p.Seat,
			DisplayName: p.DisplayName,
			Connected:   p.Connected,
			IsBot:       p.IsBot,
			IsDead:      p.IsDead,
			HandCount:   len(p.Hand),
			Exposures:   p.Exposures,
		})
		if p.ID == viewer || p.ControlledBy == viewer {
			view.Hands = append(view.Hands, HandView{Seat: p.Seat, Tiles: p.Hand})
		}
	}

	if c := room.Charleston; c != nil && room.Phase == PhaseCharleston {
		cv := &CharlestonView{
			Stage:     c.Stage,
			PassIndex: c.PassIndex,
			Ready:     c.Ready,
		}
		if c.Stage == StagePassing && c.PassIndex < len(c.Passes) {
			cv.Direction = c.CurrentDirection()
		}
		if p := room.PlayerByID(viewer); p != nil {
			cv.Selected = c.Selected[p.Seat]
		}
		view.Charleston = cv
	}

	if c := room.Calling; c != nil && room.Phase == PhaseCalling {
		responded := make(map[Seat]bool)
		for seat, resp := range c.Responses {
			responded[seat] = resp != nil
		}
		view.Calling = &CallingView{
			DiscardID: c.DiscardID,
			Discarder: c.Discarder,
			Responded: responded,
		}
	}

	if room.PlayAgain != nil {
		d := room.PlayAgain.Deadline
		view.PlayAgainDeadline = &d
	}

	return view
}
