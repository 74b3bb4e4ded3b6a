package model

import "errors"

// Common errors used across the application. Every public operation
// returns one of these on rejection; none mutates state when it fails.
var (
	// Room lifecycle errors
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrGameNotStarted     = errors.New("game has not started")
	ErrAlreadyInRoom      = errors.New("player is already in a room")
	ErrNotInRoom          = errors.New("player is not in this room")
	ErrInvalidRejoinToken = errors.New("invalid or expired rejoin token")
	ErrNotDisconnected    = errors.New("player is not disconnected")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")

	// Turn legality errors
	ErrNotYourTurn          = errors.New("not this seat's turn")
	ErrWrongPhase           = errors.New("action not legal in current phase")
	ErrNotAuthorizedForSeat = errors.New("requester not authorized for seat")
	ErrSeatDead             = errors.New("seat has been declared dead")

	// Tile errors
	ErrTileNotInHand     = errors.New("tile not in hand")
	ErrWallEmpty         = errors.New("wall is empty")
	ErrTileNotInDiscards = errors.New("tile not in discard pile")
	ErrBlanksDisabled    = errors.New("blank tiles not enabled in this room")
	ErrNotABlank         = errors.New("tile is not a blank")

	// Claim errors
	ErrNoCallingWindow  = errors.New("no claim window is open")
	ErrAlreadyResponded = errors.New("seat already claimed or passed this window")
	ErrInvalidClaim     = errors.New("claim does not match the discarded tile")
	ErrClaimTileCount   = errors.New("wrong number of tiles for claim type")
	ErrNotAWinningHand  = errors.New("hand does not complete a winning pattern")
	ErrNoMatchingJoker  = errors.New("no swappable joker in target exposure")

	// Charleston errors
	ErrNotCharleston       = errors.New("charleston is not in progress")
	ErrCharlestonSelection = errors.New("charleston pass requires exactly 3 tiles")
	ErrAlreadyReady        = errors.New("seat already marked ready")
	ErrVoteClosed          = errors.New("vote is not open")
	ErrAlreadyVoted        = errors.New("vote already cast")
	ErrCourtesyProposal    = errors.New("courtesy proposal must be 0-3 tiles")

	// Intent errors
	ErrUnknownIntent = errors.New("unknown intent action")
)
