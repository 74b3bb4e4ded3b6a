package game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/openmahjong/parlor/internal/dependencies/clock"
	"github.com/openmahjong/parlor/internal/dependencies/random"
	"github.com/openmahjong/parlor/internal/evaluator"
	"github.com/openmahjong/parlor/internal/model"
	"github.com/openmahjong/parlor/internal/services/registry"
	"github.com/openmahjong/parlor/internal/storage"
)

// Named per-room timers owned by the game controller. The registry
// cancels all of them on room teardown.
const (
	timerBotTurn   = "bot:turn"
	timerBotSafety = "bot:safety"
	timerPlayAgain = "vote:play-again"
	timerCourtesy  = "charleston:courtesy"
)

const recordIDLength = 20

// Config carries the game controller's timing knobs
type Config struct {
	BotMinDelay      time.Duration
	BotMaxDelay      time.Duration
	BotSafetyTimeout time.Duration
	PlayAgainWindow  time.Duration
	CourtesyWindow   time.Duration
}

// DefaultConfig returns the production timings
func DefaultConfig() Config {
	return Config{
		BotMinDelay:      500 * time.Millisecond,
		BotMaxDelay:      2 * time.Second,
		BotSafetyTimeout: 10 * time.Second,
		PlayAgainWindow:  90 * time.Second,
		CourtesyWindow:   30 * time.Second,
	}
}

// Notifier pushes state and events out to connected clients. The ws hub
// implements it; tests use a recording fake.
type Notifier interface {
	// RoomState pushes a per-recipient snapshot to everyone in the room
	RoomState(room *model.Room)
	// Broadcast sends a game event to everyone in the room
	Broadcast(room *model.Room, event model.Event)
}

// Brain decides a bot seat's moves. The controller owns scheduling;
// the brain is pure decision logic.
type Brain interface {
	// ChooseDiscard picks which tile a 14-tile hand should throw
	ChooseDiscard(hand []model.Tile) model.TileID
	// ChooseCharlestonPass picks three tiles to pass
	ChooseCharlestonPass(hand []model.Tile) []model.TileID
	// ChooseClaim returns a claim on the discard, or nil to pass
	ChooseClaim(player *model.PlayerState, discard model.Tile) *model.ClaimOffer
}

// Controller runs the turn and phase state machine. Every mutation of a
// started game flows through Apply, which serializes per room via the
// registry dispatch lock; socket events, bot turns and safety timeouts
// all arrive as Intents on the same path.
type Controller struct {
	registry  *registry.Registry
	evaluator evaluator.Evaluator
	store     storage.Storage
	brain     Brain
	notifier  Notifier
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger
	cfg       Config
}

// New creates a game Controller
func New(
	reg *registry.Registry,
	eval evaluator.Evaluator,
	store storage.Storage,
	brain Brain,
	notifier Notifier,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	return &Controller{
		registry:  reg,
		evaluator: eval,
		store:     store,
		brain:     brain,
		notifier:  notifier,
		clock:     clk,
		random:    rnd,
		logger:    logger.With(slog.String("component", "game")),
		cfg:       cfg,
	}
}

// StartGame deals and begins play. In standard mode empty seats are
// filled with bots when the room allows it; in siamese mode the two
// humans each receive a puppeted seat across the table.
func (c *Controller) StartGame(ctx context.Context, code model.RoomCode, requester model.PlayerID) error {
	return c.registry.Dispatch(code, func(room *model.Room) error {
		if room.Started {
			return model.ErrGameAlreadyStarted
		}
		if room.PlayerByID(requester) == nil {
			return model.ErrNotInRoom
		}

		switch room.Config.GameMode {
		case model.ModeSiamese:
			if len(room.Players) != 2 {
				return model.ErrNotEnoughPlayers
			}
			c.addSiamesePuppets(room)
		default:
			if len(room.Players) < 4 && !room.Config.FillWithBots {
				return model.ErrNotEnoughPlayers
			}
			c.fillWithBots(room)
		}

		c.deal(room)
		room.Started = true
		room.CurrentTurn = model.SeatEast
		if room.Config.GameMode == model.ModeSiamese {
			// Charleston is skipped in siamese: every across-pair
			// exchange would be between a player and their own puppet
			room.Phase = model.PhaseDraw
		} else {
			room.Phase = model.PhaseCharleston
			room.Charleston = model.NewCharlestonState()
		}
		room.UpdatedAt = c.clock.Now()

		c.logger.Info("game started",
			slog.String("room_code", string(code)),
			slog.String("game_mode", string(room.Config.GameMode)),
			slog.Int("wall_count", room.WallCount()),
		)
		c.broadcast(room, model.EventGameStarted, requester, model.GameStartedPayload{
			WallCount: room.WallCount(),
			GameMode:  room.Config.GameMode,
		})
		c.notifier.RoomState(room)
		c.scheduleBots(room)
		return nil
	})
}

// Apply runs one intent against a room. This is the single entry point
// for all in-game actions; rejected intents leave the room unchanged,
// except a draw against an empty wall, which ends the hand and still
// reports ErrWallEmpty to the requester.
func (c *Controller) Apply(ctx context.Context, code model.RoomCode, intent model.Intent) error {
	return c.registry.Dispatch(code, func(room *model.Room) error {
		return c.applyLocked(ctx, room, intent)
	})
}

// applyLocked is Apply with the room dispatch lock already held. Timer
// callbacks, which fire inside a dispatch, come in here directly.
func (c *Controller) applyLocked(ctx context.Context, room *model.Room, intent model.Intent) error {
	seat, err := c.resolveSeat(room, intent)
	if err != nil {
		return err
	}

	switch intent.Action {
	case model.ActionDraw:
		err = c.handleDraw(ctx, room, seat)
	case model.ActionDiscard:
		err = c.handleDiscard(room, seat, intent.TileID)
	case model.ActionSort:
		err = c.handleSort(room, seat)
	case model.ActionClaim:
		err = c.handleClaim(ctx, room, seat, intent)
	case model.ActionClaimPass:
		err = c.handleClaimPass(ctx, room, seat)
	case model.ActionCharlestonSelect:
		err = c.handleCharlestonSelect(room, seat, intent.TileID)
	case model.ActionCharlestonReady:
		err = c.handleCharlestonReady(room, seat)
	case model.ActionCharlestonVote:
		err = c.handleCharlestonVote(room, seat, intent.Vote)
	case model.ActionCourtesyPropose:
		err = c.handleCourtesyPropose(room, seat, intent)
	case model.ActionPlayAgainVote:
		err = c.handlePlayAgainVote(ctx, room, intent.Requester, intent.Vote)
	case model.ActionJokerSwap:
		err = c.handleJokerSwap(room, seat, intent)
	case model.ActionBlankExchange:
		err = c.handleBlankExchange(room, seat, intent)
	case model.ActionDeclareDead:
		err = c.handleDeclareDead(ctx, room, seat)
	case model.ActionTimeoutChoice:
		err = c.handleTimeoutChoice(ctx, room, intent.EndGame)
	default:
		err = model.ErrUnknownIntent
	}

	// ErrWallEmpty is the one failure that also mutates the room (the
	// hand ends), so it falls through to the state push below
	if err != nil && !errors.Is(err, model.ErrWallEmpty) {
		c.logger.Debug("intent rejected",
			slog.String("room_code", string(room.Code)),
			slog.String("action", string(intent.Action)),
			slog.String("source", string(intent.Source)),
			slog.String("seat", string(seat)),
			slog.String("error", err.Error()),
		)
		return err
	}

	room.UpdatedAt = c.clock.Now()
	c.notifier.RoomState(room)
	c.scheduleBots(room)
	return err
}

// resolveSeat determines the seat an intent targets and checks the
// requester is allowed to act for it. An empty intent seat defaults to
// the requester's own.
func (c *Controller) resolveSeat(room *model.Room, intent model.Intent) (model.Seat, error) {
	seat := intent.Seat
	if seat == "" {
		p := room.PlayerByID(intent.Requester)
		if p == nil {
			return "", model.ErrNotInRoom
		}
		seat = p.Seat
	}
	if !room.CanActFor(intent.Requester, seat) {
		return "", model.ErrNotAuthorizedForSeat
	}
	return seat, nil
}

func (c *Controller) handleDraw(ctx context.Context, room *model.Room, seat model.Seat) error {
	if !room.Started {
		return model.ErrGameNotStarted
	}
	if room.Phase != model.PhaseDraw {
		return model.ErrWrongPhase
	}
	if room.CurrentTurn != seat {
		return model.ErrNotYourTurn
	}
	p := room.PlayerBySeat(seat)
	if p.IsDead {
		return model.ErrSeatDead
	}

	if room.WallCount() == 0 {
		// The failed draw and the wall game are one stroke: the hand
		// ends for everyone and the requester still gets the typed error
		c.endHandWallGame(ctx, room)
		return model.ErrWallEmpty
	}

	tile := room.Deck[0]
	room.Deck = room.Deck[1:]
	p.Hand = append(p.Hand, tile)
	room.Phase = model.PhaseDiscard

	if win, pattern := c.seatWins(room, p); win {
		c.endHandWon(ctx, room, p, pattern)
	}
	return nil
}

func (c *Controller) handleDiscard(room *model.Room, seat model.Seat, tileID model.TileID) error {
	if !room.Started {
		return model.ErrGameNotStarted
	}
	if room.Phase != model.PhaseDiscard {
		return model.ErrWrongPhase
	}
	if room.CurrentTurn != seat {
		return model.ErrNotYourTurn
	}
	p := room.PlayerBySeat(seat)

	hand, tile, ok := model.RemoveTile(p.Hand, tileID)
	if !ok {
		return model.ErrTileNotInHand
	}
	p.Hand = hand
	room.DiscardPile = append([]model.Tile{tile}, room.DiscardPile...)
	room.LastDiscard = &tile
	room.LastDiscarder = seat

	c.broadcast(room, model.EventDiscard, p.ID, model.DiscardPayload{Seat: seat, Tile: tile})

	// Open a calling window only for seats that could actually use the
	// tile; everyone else is auto-passed. If nobody can use it the turn
	// advances immediately.
	calling := model.NewCallingState(tile.ID, seat)
	anyPotential := false
	for _, s := range calling.Eligible(room) {
		if c.couldClaim(room, room.PlayerBySeat(s), tile) {
			anyPotential = true
		} else {
			calling.Responses[s] = &model.ClaimResponse{Passed: true}
		}
	}

	if !anyPotential {
		c.advanceTurn(room, seat)
		return nil
	}
	room.Phase = model.PhaseCalling
	room.Calling = calling
	return nil
}

func (c *Controller) handleSort(room *model.Room, seat model.Seat) error {
	if !room.Started {
		return model.ErrGameNotStarted
	}
	p := room.PlayerBySeat(seat)
	model.SortTiles(p.Hand)
	return nil
}

// couldClaim reports whether a seat has any legal use for the discard:
// at least two concealed tiles that could stand beside it in an
// exposure, or a hand it completes outright. Jokers and blanks are
// never claimable once discarded.
func (c *Controller) couldClaim(room *model.Room, p *model.PlayerState, discard model.Tile) bool {
	if discard.IsJoker || discard.Suit == model.SuitBlank {
		return false
	}
	matching := 0
	for _, t := range p.Hand {
		if t.IsJoker || t.SameFace(discard) {
			matching++
		}
	}
	if matching >= 2 {
		return true
	}
	tiles := append(c.evalTiles(p), discard)
	return len(tiles) == 14 && c.evaluator.Evaluate(tiles) != nil
}

// evalTiles is the full 13/14-tile holding the evaluator sees: the
// concealed hand plus every exposed tile.
func (c *Controller) evalTiles(p *model.PlayerState) []model.Tile {
	tiles := append([]model.Tile{}, p.Hand...)
	for _, e := range p.Exposures {
		tiles = append(tiles, e.Tiles...)
	}
	return tiles
}

// seatWins checks the acting seat's 14-tile holding for a complete
// pattern. In siamese mode the controller's other seat must be exactly
// one tile from complete as well, so a lone finished hand never ends
// the game.
func (c *Controller) seatWins(room *model.Room, p *model.PlayerState) (bool, string) {
	tiles := c.evalTiles(p)
	if len(tiles) != 14 {
		return false, ""
	}
	m := c.evaluator.Evaluate(tiles)
	if m == nil {
		return false, ""
	}
	if room.Config.GameMode == model.ModeSiamese {
		controller := p.ControlledBy
		if controller == "" {
			controller = p.ID
		}
		for _, s := range room.SeatsControlledBy(controller) {
			if s == p.Seat {
				continue
			}
			partner := room.PlayerBySeat(s)
			closest := c.evaluator.ClosestMatches(c.evalTiles(partner), 1)
			if len(closest) == 0 || closest[0].TilesAway > 1 {
				return false, ""
			}
		}
	}
	return true, m.Pattern
}

func (c *Controller) advanceTurn(room *model.Room, from model.Seat) {
	room.Calling = nil
	room.CurrentTurn = room.NextActiveSeat(from)
	room.Phase = model.PhaseDraw
}

// endHandWon closes out a hand with a winner and opens play-again voting
func (c *Controller) endHandWon(ctx context.Context, room *model.Room, p *model.PlayerState, pattern string) {
	room.Winner = &model.WinResult{PlayerID: p.ID, Seat: p.Seat, Pattern: pattern}
	room.Phase = model.PhaseWon
	room.Calling = nil
	room.HandsPlayed++

	c.logger.Info("game won",
		slog.String("room_code", string(room.Code)),
		slog.String("seat", string(p.Seat)),
		slog.String("pattern", pattern),
	)
	c.broadcast(room, model.EventGameWon, p.ID, model.GameWonPayload{Winner: *room.Winner})
	c.persistRecord(ctx, room, "won")
	c.startPlayAgainVote(room)
}

// endHandWallGame closes out a hand with no winner on wall exhaustion
func (c *Controller) endHandWallGame(ctx context.Context, room *model.Room) {
	room.WallGame = true
	room.Winner = nil
	room.Phase = model.PhaseWon
	room.Calling = nil
	room.HandsPlayed++

	c.logger.Info("wall game", slog.String("room_code", string(room.Code)))
	c.broadcast(room, model.EventWallGame, "", nil)
	c.persistRecord(ctx, room, "wall_game")
	c.startPlayAgainVote(room)
}

// endRoom broadcasts the end reason and tears the room down
func (c *Controller) endRoom(room *model.Room, reason string) {
	c.logger.Info("room ended",
		slog.String("room_code", string(room.Code)),
		slog.String("reason", reason),
	)
	c.broadcast(room, model.EventGameEnded, "", model.GameEndedPayload{Reason: reason})
	c.registry.DestroyRoom(room.Code)
}

// persistRecord writes the completed hand to storage. Persistence
// failures are logged, never surfaced into play.
func (c *Controller) persistRecord(ctx context.Context, room *model.Room, reason string) {
	payload := model.GameRecordPayload{
		GameMode:    room.Config.GameMode,
		Winner:      room.Winner,
		WallGame:    room.WallGame,
		HandsPlayed: room.HandsPlayed,
		Reason:      reason,
	}
	for _, p := range room.Players {
		payload.Seats = append(payload.Seats, model.SeatView{
			Seat:        p.Seat,
			DisplayName: p.DisplayName,
			Connected:   p.Connected,
			IsBot:       p.IsBot,
			IsDead:      p.IsDead,
			HandCount:   len(p.Hand),
			Exposures:   p.Exposures,
		})
	}

	blob, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to marshal game record", slog.String("error", err.Error()))
		return
	}
	record := &model.GameRecord{
		ID:        c.random.String(recordIDLength, "abcdefghijklmnopqrstuvwxyz0123456789"),
		RoomCode:  room.Code,
		CreatedAt: c.clock.Now(),
		Payload:   blob,
	}
	if err := c.store.SaveGameRecord(ctx, record); err != nil {
		c.logger.Error("failed to persist game record",
			slog.String("room_code", string(room.Code)),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) broadcast(room *model.Room, eventType model.EventType, player model.PlayerID, payload any) {
	c.notifier.Broadcast(room, model.Event{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		RoomCode:  room.Code,
		PlayerID:  player,
		Payload:   payload,
	})
}

func (c *Controller) fillWithBots(room *model.Room) {
	botNumber := 1
	for len(room.Players) < 4 {
		seat := model.Seats()[len(room.Players)]
		id := model.PlayerID("bot-" + c.random.String(8, "abcdefghijklmnopqrstuvwxyz0123456789"))
		room.Players = append(room.Players, &model.PlayerState{
			ID:          id,
			DisplayName: "Bot " + string(rune('0'+botNumber)),
			Seat:        seat,
			Connected:   true,
			IsBot:       true,
			JoinedAt:    c.clock.Now(),
		})
		c.registry.BindPlayer(id, room.Code)
		botNumber++
	}
}

// addSiamesePuppets seats each human's second hand across the table:
// east puppets west, south puppets north.
func (c *Controller) addSiamesePuppets(room *model.Room) {
	for _, p := range append([]*model.PlayerState{}, room.Players...) {
		id := model.PlayerID("puppet-" + c.random.String(8, "abcdefghijklmnopqrstuvwxyz0123456789"))
		room.Players = append(room.Players, &model.PlayerState{
			ID:           id,
			DisplayName:  p.DisplayName,
			Seat:         p.Seat.Across(),
			Connected:    true,
			ControlledBy: p.ID,
			JoinedAt:     c.clock.Now(),
		})
		c.registry.BindPlayer(id, room.Code)
	}
}

// deal shuffles a fresh wall and gives each seat its starting 13 tiles
func (c *Controller) deal(room *model.Room) {
	deck := model.NewDeck(room.Config.EnableBlanks)
	c.random.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	for _, seat := range model.Seats() {
		p := room.PlayerBySeat(seat)
		p.Hand = append([]model.Tile{}, deck[:13]...)
		deck = deck[13:]
		model.SortTiles(p.Hand)
	}
	room.Deck = deck
	room.DiscardPile = nil
	room.LastDiscard = nil
}
