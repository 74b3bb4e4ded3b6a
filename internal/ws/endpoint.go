package ws

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/openmahjong/parlor/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Room codes are the access control; the socket itself is open
		return true
	},
}

// Endpoint upgrades HTTP requests into game connections. Each upgrade
// mints a fresh connection identity; rejoining an existing seat goes
// through room:rejoin with a token.
type Endpoint struct {
	hub     *Hub
	handler *Handler
	logger  *slog.Logger
}

// NewEndpoint creates the websocket upgrade endpoint
func NewEndpoint(hub *Hub, handler *Handler, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		hub:     hub,
		handler: handler,
		logger:  logger.With(slog.String("component", "ws-endpoint")),
	}
}

// ServeHTTP implements http.Handler
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	id := model.PlayerID("p_" + generateConnID())
	conn := NewConn(id, sock, e.handler, e.logger)
	e.hub.Register(conn)

	e.logger.Debug("connection opened", slog.String("player_id", string(id)))
	conn.Run()
}

func generateConnID() string {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
