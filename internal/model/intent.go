package model

// IntentSource identifies where an intent originated. All three sources
// flow through the same entry point so human and bot actions share one
// validation path.
type IntentSource string

const (
	SourceSocket IntentSource = "socket" // client event
	SourceBot    IntentSource = "bot"    // scheduled bot turn
	SourceSafety IntentSource = "safety" // bot-turn safety timeout fallback
)

// IntentAction names one protocol operation
type IntentAction string

const (
	ActionDraw             IntentAction = "draw"
	ActionDiscard          IntentAction = "discard"
	ActionSort             IntentAction = "sort"
	ActionClaim            IntentAction = "claim"
	ActionClaimPass        IntentAction = "claim-pass"
	ActionCharlestonSelect IntentAction = "charleston-select"
	ActionCharlestonReady  IntentAction = "charleston-ready"
	ActionCharlestonVote   IntentAction = "charleston-vote"
	ActionCourtesyPropose  IntentAction = "courtesy-propose"
	ActionPlayAgainVote    IntentAction = "play-again-vote"
	ActionJokerSwap        IntentAction = "joker-swap"
	ActionBlankExchange    IntentAction = "blank-exchange"
	ActionDeclareDead      IntentAction = "declare-dead"
	ActionTimeoutChoice    IntentAction = "timeout-choice"
)

// Intent is an attributed, discrete request against a room. Socket
// events, the bot scheduler and the safety-timeout fallback all build
// Intents; the game controller's Apply is the single entry point.
type Intent struct {
	Source    IntentSource
	Requester PlayerID
	Seat      Seat // target seat; empty defaults to the requester's own

	Action    IntentAction
	TileID    TileID
	TileIDs   []TileID
	ClaimType ClaimType

	Vote  *bool // charleston second-pass vote, play-again ballot
	Count *int  // courtesy-pass proposal (0-3)

	// Joker swap target
	TargetSeat Seat

	// Blank exchange: TileID is the held blank, DiscardTileID the
	// discard-pile tile taken in exchange
	DiscardTileID TileID

	// Timeout choice: true = end the game, false = keep waiting
	EndGame bool
}
