package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/openmahjong/parlor/internal/dependencies/clock"
	"github.com/openmahjong/parlor/internal/model"
	"github.com/openmahjong/parlor/internal/services/game"
	"github.com/openmahjong/parlor/internal/services/registry"
	"github.com/openmahjong/parlor/internal/services/supervisor"
)

// Handler translates inbound wire messages into room and game calls.
// Failures go back to the requester alone as a targeted error event;
// successes surface as broadcast state updates, so nothing here throws
// across the intent boundary.
type Handler struct {
	registry   *registry.Registry
	game       *game.Controller
	supervisor *supervisor.Supervisor
	hub        *Hub
	clock      clock.Clock
	logger     *slog.Logger
}

// NewHandler creates a message Handler
func NewHandler(
	reg *registry.Registry,
	gameController *game.Controller,
	sup *supervisor.Supervisor,
	hub *Hub,
	clk clock.Clock,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		registry:   reg,
		game:       gameController,
		supervisor: sup,
		hub:        hub,
		clock:      clk,
		logger:     logger.With(slog.String("component", "ws-handler")),
	}
}

type createRoomRequest struct {
	PlayerName string `json:"playerName"`
	Config     struct {
		GameMode     string `json:"gameMode"`
		FillWithBots bool   `json:"fillWithBots"`
		EnableBlanks bool   `json:"enableBlanks"`
	} `json:"config"`
}

type joinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type rejoinRequest struct {
	RoomCode    string `json:"roomCode"`
	PlayerName  string `json:"playerName"`
	RejoinToken string `json:"rejoinToken"`
}

type roomJoinedResponse struct {
	RoomCode    model.RoomCode `json:"roomCode"`
	Seat        model.Seat     `json:"seat"`
	PlayerName  string         `json:"playerName,omitempty"`
	RejoinToken string         `json:"rejoinToken"`
}

type seatRequest struct {
	Seat string `json:"seat,omitempty"`
}

type discardRequest struct {
	TileID string `json:"tileId"`
	Seat   string `json:"seat,omitempty"`
}

type claimRequest struct {
	ClaimType string   `json:"claimType"`
	TileIDs   []string `json:"tileIds"`
	Seat      string   `json:"seat,omitempty"`
}

type charlestonVoteRequest struct {
	Accept bool   `json:"accept"`
	Seat   string `json:"seat,omitempty"`
}

type courtesyProposeRequest struct {
	Count   int      `json:"count"`
	TileIDs []string `json:"tileIds"`
	Seat    string   `json:"seat,omitempty"`
}

type playAgainVoteRequest struct {
	Vote bool `json:"vote"`
}

type jokerSwapRequest struct {
	TileID     string `json:"tileId"`
	TargetSeat string `json:"targetSeat"`
	Seat       string `json:"seat,omitempty"`
}

type blankExchangeRequest struct {
	TileID        string `json:"tileId"`
	DiscardTileID string `json:"discardTileId"`
	Seat          string `json:"seat,omitempty"`
}

type timeoutChoiceRequest struct {
	EndGame bool `json:"endGame"`
}

// HandleMessage routes one inbound envelope
func (h *Handler) HandleMessage(c *Conn, env Envelope) {
	var err error
	switch env.Type {
	case "room:create":
		err = h.handleCreate(c, env.Payload)
	case "room:join":
		err = h.handleJoin(c, env.Payload)
	case "room:rejoin":
		err = h.handleRejoin(c, env.Payload)
	case "room:leave":
		err = h.handleLeave(c)
	case "room:start":
		err = h.handleStart(c)
	case "game:charleston-skip":
		err = h.handleCharlestonSkip(c, env.Payload)
	default:
		err = h.handleGameIntent(c, env)
	}

	if err != nil {
		c.Enqueue(MsgError, ErrorPayload{Message: err.Error()})
	}
}

// HandleClose runs the disconnect lifecycle when a connection drops
func (h *Handler) HandleClose(c *Conn) {
	h.hub.Unregister(c)
	if code, ok := h.registry.RoomCodeFor(c.ID); ok {
		h.supervisor.HandleDisconnect(code, c.ID)
	}
}

func (h *Handler) handleCreate(c *Conn, payload json.RawMessage) error {
	var req createRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}

	cfg := model.DefaultRoomConfig()
	cfg.FillWithBots = req.Config.FillWithBots
	cfg.EnableBlanks = req.Config.EnableBlanks
	if req.Config.GameMode != "" {
		cfg.GameMode = model.GameMode(req.Config.GameMode)
	}

	room, err := h.registry.CreateRoom(c.ID, req.PlayerName, cfg)
	if err != nil {
		return err
	}
	token, err := h.supervisor.IssueToken(room.Code, c.ID)
	if err != nil {
		return err
	}

	c.Enqueue(MsgRoomCreated, roomJoinedResponse{
		RoomCode:    room.Code,
		Seat:        model.SeatEast,
		PlayerName:  req.PlayerName,
		RejoinToken: token,
	})
	h.pushState(room.Code)
	return nil
}

func (h *Handler) handleJoin(c *Conn, payload json.RawMessage) error {
	var req joinRoomRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	code := model.RoomCode(req.RoomCode)

	seat, err := h.registry.JoinRoom(code, c.ID, req.PlayerName)
	if err != nil {
		return err
	}
	token, err := h.supervisor.IssueToken(code, c.ID)
	if err != nil {
		return err
	}

	c.Enqueue(MsgRoomJoined, roomJoinedResponse{
		RoomCode:    code,
		Seat:        seat,
		PlayerName:  req.PlayerName,
		RejoinToken: token,
	})
	_ = h.registry.Dispatch(code, func(room *model.Room) error {
		h.hub.Broadcast(room, model.Event{
			Type:      model.EventPlayerJoined,
			Timestamp: h.clock.Now(),
			RoomCode:  code,
			PlayerID:  c.ID,
			Payload: model.PlayerJoinedPayload{
				DisplayName: req.PlayerName,
				Seat:        seat,
			},
		})
		h.hub.RoomState(room)
		return nil
	})
	return nil
}

func (h *Handler) handleRejoin(c *Conn, payload json.RawMessage) error {
	var req rejoinRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	code := model.RoomCode(req.RoomCode)

	seat, token, err := h.supervisor.Rejoin(code, req.PlayerName, req.RejoinToken, c.ID)
	if err != nil {
		return err
	}
	c.Enqueue(MsgRoomJoined, roomJoinedResponse{
		RoomCode:    code,
		Seat:        seat,
		RejoinToken: token,
	})
	return nil
}

func (h *Handler) handleLeave(c *Conn) error {
	code, ok := h.registry.RoomCodeFor(c.ID)
	if !ok {
		return model.ErrNotInRoom
	}
	h.supervisor.HandleDisconnect(code, c.ID)
	return nil
}

func (h *Handler) handleStart(c *Conn) error {
	code, ok := h.registry.RoomCodeFor(c.ID)
	if !ok {
		return model.ErrNotInRoom
	}
	return h.game.StartGame(context.Background(), code, c.ID)
}

// handleCharlestonSkip is stage sensitive: during the vote it counts as
// a no; during the courtesy it proposes zero tiles.
func (h *Handler) handleCharlestonSkip(c *Conn, payload json.RawMessage) error {
	code, ok := h.registry.RoomCodeFor(c.ID)
	if !ok {
		return model.ErrNotInRoom
	}
	var req seatRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return err
		}
	}

	var stage model.CharlestonStage
	err := h.registry.Dispatch(code, func(room *model.Room) error {
		if room.Charleston == nil {
			return model.ErrNotCharleston
		}
		stage = room.Charleston.Stage
		return nil
	})
	if err != nil {
		return err
	}

	intent := model.Intent{
		Source:    model.SourceSocket,
		Requester: c.ID,
		Seat:      model.Seat(req.Seat),
	}
	switch stage {
	case model.StageVoting:
		no := false
		intent.Action = model.ActionCharlestonVote
		intent.Vote = &no
	case model.StageCourtesy:
		zero := 0
		intent.Action = model.ActionCourtesyPropose
		intent.Count = &zero
	default:
		return model.ErrNotCharleston
	}
	return h.game.Apply(context.Background(), code, intent)
}

// handleGameIntent maps the remaining game messages onto Intents and
// feeds them through the controller's single entry point
func (h *Handler) handleGameIntent(c *Conn, env Envelope) error {
	code, ok := h.registry.RoomCodeFor(c.ID)
	if !ok {
		return model.ErrNotInRoom
	}

	intent := model.Intent{
		Source:    model.SourceSocket,
		Requester: c.ID,
	}

	switch env.Type {
	case "game:draw":
		var req seatRequest
		if err := unmarshalIfPresent(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionDraw
		intent.Seat = model.Seat(req.Seat)

	case "game:discard":
		var req discardRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionDiscard
		intent.TileID = model.TileID(req.TileID)
		intent.Seat = model.Seat(req.Seat)

	case "game:sort":
		var req seatRequest
		if err := unmarshalIfPresent(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionSort
		intent.Seat = model.Seat(req.Seat)

	case "game:claim":
		var req claimRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionClaim
		intent.ClaimType = model.ClaimType(req.ClaimType)
		intent.Seat = model.Seat(req.Seat)
		for _, id := range req.TileIDs {
			intent.TileIDs = append(intent.TileIDs, model.TileID(id))
		}

	case "game:claim-pass":
		var req seatRequest
		if err := unmarshalIfPresent(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionClaimPass
		intent.Seat = model.Seat(req.Seat)

	case "game:charleston-select":
		var req discardRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionCharlestonSelect
		intent.TileID = model.TileID(req.TileID)
		intent.Seat = model.Seat(req.Seat)

	case "game:charleston-ready":
		var req seatRequest
		if err := unmarshalIfPresent(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionCharlestonReady
		intent.Seat = model.Seat(req.Seat)

	case "game:charleston-vote":
		var req charlestonVoteRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		accept := req.Accept
		intent.Action = model.ActionCharlestonVote
		intent.Vote = &accept
		intent.Seat = model.Seat(req.Seat)

	case "game:courtesy-propose":
		var req courtesyProposeRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		count := req.Count
		intent.Action = model.ActionCourtesyPropose
		intent.Count = &count
		intent.Seat = model.Seat(req.Seat)
		for _, id := range req.TileIDs {
			intent.TileIDs = append(intent.TileIDs, model.TileID(id))
		}

	case "game:play-again-vote":
		var req playAgainVoteRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		vote := req.Vote
		intent.Action = model.ActionPlayAgainVote
		intent.Vote = &vote

	case "game:joker-swap":
		var req jokerSwapRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionJokerSwap
		intent.TileID = model.TileID(req.TileID)
		intent.TargetSeat = model.Seat(req.TargetSeat)
		intent.Seat = model.Seat(req.Seat)

	case "game:blank-exchange":
		var req blankExchangeRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionBlankExchange
		intent.TileID = model.TileID(req.TileID)
		intent.DiscardTileID = model.TileID(req.DiscardTileID)
		intent.Seat = model.Seat(req.Seat)

	case "game:declare-dead":
		var req seatRequest
		if err := unmarshalIfPresent(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionDeclareDead
		intent.Seat = model.Seat(req.Seat)

	case "game:timeout-choice":
		var req timeoutChoiceRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return err
		}
		intent.Action = model.ActionTimeoutChoice
		intent.EndGame = req.EndGame

	default:
		h.logger.Debug("unknown message type", slog.String("type", env.Type))
		return model.ErrUnknownIntent
	}

	return h.game.Apply(context.Background(), code, intent)
}

func (h *Handler) pushState(code model.RoomCode) {
	_ = h.registry.Dispatch(code, func(room *model.Room) error {
		h.hub.RoomState(room)
		return nil
	})
}

func unmarshalIfPresent(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}
