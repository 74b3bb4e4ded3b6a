package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openmahjong/parlor/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 64
)

// Conn is one client's websocket with its outbound queue. Writes go
// through the buffered send channel so the hub never blocks on a slow
// client; a client that falls too far behind loses messages rather
// than stalling the room.
type Conn struct {
	ID model.PlayerID

	sock    *websocket.Conn
	send    chan []byte
	handler *Handler
	logger  *slog.Logger
}

// NewConn wraps an upgraded websocket under a fresh player identity
func NewConn(id model.PlayerID, sock *websocket.Conn, handler *Handler, logger *slog.Logger) *Conn {
	return &Conn{
		ID:      id,
		sock:    sock,
		send:    make(chan []byte, sendBuffer),
		handler: handler,
		logger:  logger.With(slog.String("player_id", string(id))),
	}
}

// Enqueue serializes and queues one outbound message, dropping it if
// the client's queue is full
func (c *Conn) Enqueue(msgType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("failed to marshal outbound payload",
			slog.String("type", msgType),
			slog.String("error", err.Error()),
		)
		return
	}
	msg, err := json.Marshal(Envelope{Type: msgType, Payload: body})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping message to slow client", slog.String("type", msgType))
	}
}

// Run services the connection until it drops, then tells the handler so
// the seat enters its disconnect lifecycle
func (c *Conn) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		c.handler.HandleClose(c)
		_ = c.sock.Close()
	}()

	c.sock.SetReadLimit(maxMessageSize)
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", slog.String("error", err.Error()))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.Enqueue(MsgError, ErrorPayload{Message: "malformed message"})
			continue
		}
		c.handler.HandleMessage(c, env)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
