package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	// Room events
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventGameStarted  EventType = "game_started"
	EventGameEnded    EventType = "game_ended"

	// Connection events
	EventPlayerDisconnected EventType = "player_disconnected"
	EventPlayerReconnected  EventType = "player_reconnected"
	EventPlayerTimeout      EventType = "player_timeout"

	// Game events
	EventCharlestonPass EventType = "charleston_pass"
	EventDiscard        EventType = "discard"
	EventClaimResolved  EventType = "claim_resolved"
	EventWallGame       EventType = "wall_game"
	EventGameWon        EventType = "game_won"
	EventDeadHand       EventType = "dead_hand"
	EventPlayAgain      EventType = "play_again"
)

// Event is the base structure for all broadcast events
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomCode  RoomCode
	PlayerID  PlayerID // The player who triggered or is affected
	Payload   any      // Type-specific data
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	DisplayName string `json:"playerName"`
	Seat        Seat   `json:"seat"`
	IsBot       bool   `json:"isBot"`
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	DisplayName string `json:"playerName"`
	Seat        Seat   `json:"seat"`
}

// GameStartedPayload contains data for game started events
type GameStartedPayload struct {
	WallCount int      `json:"wallCount"`
	GameMode  GameMode `json:"gameMode"`
}

// DisconnectedPayload announces a disconnect and its grace deadline
type DisconnectedPayload struct {
	DisplayName string    `json:"playerName"`
	Seat        Seat      `json:"seat"`
	Deadline    time.Time `json:"deadline"`
}

// ReconnectedPayload announces a successful rejoin
type ReconnectedPayload struct {
	DisplayName string `json:"playerName"`
	Seat        Seat   `json:"seat"`
}

// TimeoutPayload announces grace expiry; remaining players choose
// between ending the game and waiting indefinitely
type TimeoutPayload struct {
	DisplayName string `json:"playerName"`
	Seat        Seat   `json:"seat"`
}

// CharlestonPassPayload announces a completed simultaneous exchange
type CharlestonPassPayload struct {
	Direction PassDirection `json:"direction"`
	PassIndex int           `json:"passIndex"`
}

// DiscardPayload announces a tile entering the discard pile
type DiscardPayload struct {
	Seat Seat `json:"seat"`
	Tile Tile `json:"tile"`
}

// ClaimResolvedPayload announces the winning claim on a discard
type ClaimResolvedPayload struct {
	Seat      Seat      `json:"seat"`
	ClaimType ClaimType `json:"claimType"`
	TileID    TileID    `json:"tileId"`
}

// GameWonPayload announces the winner and matched pattern
type GameWonPayload struct {
	Winner WinResult `json:"winner"`
}

// DeadHandPayload announces a dead-hand ruling
type DeadHandPayload struct {
	Seat        Seat   `json:"seat"`
	DisplayName string `json:"playerName"`
}

// PlayAgainPayload opens the post-hand ballot and carries its deadline
type PlayAgainPayload struct {
	Deadline time.Time `json:"deadline"`
}

// GameEndedPayload carries the reason the room was torn down
type GameEndedPayload struct {
	Reason string `json:"reason"`
}
