package model

import (
	"encoding/json"
	"time"
)

// GameRecord is the persisted trace of a completed game. It is
// write-only from the live protocol's perspective: the core inserts it
// at game end and never reads it back into play.
type GameRecord struct {
	ID        string          `json:"id"`
	RoomCode  RoomCode        `json:"roomCode"`
	CreatedAt time.Time       `json:"createdAt"`
	Payload   json.RawMessage `json:"payload"`
}

// GameRecordPayload is the shape the core marshals into the opaque blob
type GameRecordPayload struct {
	GameMode    GameMode   `json:"gameMode"`
	Winner      *WinResult `json:"winner,omitempty"`
	WallGame    bool       `json:"wallGame"`
	HandsPlayed int        `json:"handsPlayed"`
	Seats       []SeatView `json:"seats"`
	Reason      string     `json:"reason,omitempty"`
}
