package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/openmahjong/parlor/internal/model"
)

// Server-push message types
const (
	MsgRoomCreated        = "room:created"
	MsgRoomJoined         = "room:joined"
	MsgState              = "game:state"
	MsgError              = "error"
	MsgWin                = "game:win"
	MsgEnded              = "game:ended"
	MsgDiscard            = "game:discard"
	MsgClaimResolved      = "game:claim-resolved"
	MsgCharlestonPass     = "game:charleston-pass"
	MsgWallGame           = "game:wall-game"
	MsgDeadHand           = "game:dead-hand"
	MsgPlayAgain          = "game:play-again"
	MsgStarted            = "game:started"
	MsgPlayerJoined       = "player:joined"
	MsgPlayerLeft         = "player:left"
	MsgPlayerDisconnected = "player:disconnected"
	MsgPlayerReconnected  = "player:reconnected"
	MsgPlayerTimeout      = "player:timeout"
)

// Envelope is the wire framing for every message in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the body of a targeted error event
type ErrorPayload struct {
	Message string `json:"message"`
}

// Hub tracks live connections by player identity and fans room state
// and events out to them. It implements the game controller's Notifier.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[model.PlayerID]*Conn
}

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With(slog.String("component", "ws")),
		conns:  make(map[model.PlayerID]*Conn),
	}
}

// Register adds a connection to the hub
func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

// Unregister drops a connection. A newer connection registered under
// the same identity is left alone.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[c.ID] == c {
		delete(h.conns, c.ID)
	}
}

// Send delivers one message to one player, if connected
func (h *Hub) Send(id model.PlayerID, msgType string, payload any) {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.Enqueue(msgType, payload)
}

// RoomState pushes a per-recipient snapshot to every human in the room.
// Each recipient sees full tiles only for the seats they control.
func (h *Hub) RoomState(room *model.Room) {
	for _, id := range room.Controllers() {
		h.Send(id, MsgState, model.BuildView(room, id))
	}
}

// Broadcast fans a game event out to every human in the room
func (h *Hub) Broadcast(room *model.Room, event model.Event) {
	msgType, ok := wireType(event.Type)
	if !ok {
		return
	}
	for _, id := range room.Controllers() {
		h.Send(id, msgType, event.Payload)
	}
}

// wireType maps internal event types onto protocol message names
func wireType(t model.EventType) (string, bool) {
	switch t {
	case model.EventGameWon:
		return MsgWin, true
	case model.EventGameEnded:
		return MsgEnded, true
	case model.EventGameStarted:
		return MsgStarted, true
	case model.EventWallGame:
		return MsgWallGame, true
	case model.EventDiscard:
		return MsgDiscard, true
	case model.EventClaimResolved:
		return MsgClaimResolved, true
	case model.EventCharlestonPass:
		return MsgCharlestonPass, true
	case model.EventDeadHand:
		return MsgDeadHand, true
	case model.EventPlayAgain:
		return MsgPlayAgain, true
	case model.EventPlayerJoined:
		return MsgPlayerJoined, true
	case model.EventPlayerLeft:
		return MsgPlayerLeft, true
	case model.EventPlayerDisconnected:
		return MsgPlayerDisconnected, true
	case model.EventPlayerReconnected:
		return MsgPlayerReconnected, true
	case model.EventPlayerTimeout:
		return MsgPlayerTimeout, true
	}
	return "", false
}
