package supervisor

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/openmahjong/parlor/internal/dependencies/clock"
	"github.com/openmahjong/parlor/internal/model"
	"github.com/openmahjong/parlor/internal/services/game"
	"github.com/openmahjong/parlor/internal/services/registry"
)

// Config holds the supervisor's timing knobs
type Config struct {
	// DisconnectGrace is how long a mid-game seat stays reserved for
	// its disconnected player before the remaining players are asked
	// what to do
	DisconnectGrace time.Duration
}

// DefaultConfig returns the production grace period
func DefaultConfig() Config {
	return Config{DisconnectGrace: 60 * time.Second}
}

// Supervisor handles the connection lifecycle around a running game:
// disconnect grace timers, single-use rejoin tokens, and the in-place
// identity swap a reconnect performs. Seat state always survives the
// connection that created it.
type Supervisor struct {
	registry *registry.Registry
	notifier game.Notifier
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config
}

// New creates a Supervisor
func New(reg *registry.Registry, notifier game.Notifier, clk clock.Clock, logger *slog.Logger, cfg Config) *Supervisor {
	return &Supervisor{
		registry: reg,
		notifier: notifier,
		clock:    clk,
		logger:   logger.With(slog.String("component", "supervisor")),
		cfg:      cfg,
	}
}

// IssueToken mints a fresh single-use rejoin token for a seat. Only the
// bcrypt hash is kept at rest; the plaintext goes to the client once
// and is never stored.
func (s *Supervisor) IssueToken(code model.RoomCode, player model.PlayerID) (string, error) {
	token := generateToken()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	err = s.registry.Dispatch(code, func(room *model.Room) error {
		p := room.PlayerByID(player)
		if p == nil {
			return model.ErrNotInRoom
		}
		p.ReconnectHash = string(hash)
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// HandleDisconnect reacts to a dropped connection. Before the game
// starts the seat is simply vacated; mid-game it is held for the grace
// period, after which the remaining players choose between ending the
// game and waiting.
func (s *Supervisor) HandleDisconnect(code model.RoomCode, player model.PlayerID) {
	started := false
	err := s.registry.Dispatch(code, func(room *model.Room) error {
		p := room.PlayerByID(player)
		if p == nil {
			return model.ErrNotInRoom
		}
		started = room.Started
		if !started {
			s.broadcast(room, model.EventPlayerLeft, player, model.PlayerLeftPayload{
				DisplayName: p.DisplayName,
				Seat:        p.Seat,
			})
			return nil
		}

		p.Connected = false
		deadline := s.clock.Now().Add(s.cfg.DisconnectGrace)
		s.logger.Info("player disconnected mid-game",
			slog.String("room_code", string(code)),
			slog.String("player_id", string(player)),
			slog.Time("deadline", deadline),
		)
		s.broadcast(room, model.EventPlayerDisconnected, player, model.DisconnectedPayload{
			DisplayName: p.DisplayName,
			Seat:        p.Seat,
			Deadline:    deadline,
		})
		s.registry.SetTimer(code, "disconnect:"+string(player), s.cfg.DisconnectGrace, func(r *model.Room) {
			s.onGraceExpired(r, player)
		})
		s.notifier.RoomState(room)
		return nil
	})
	if err != nil {
		return
	}
	if !started {
		_, _ = s.registry.Leave(code, player)
	}
}

// onGraceExpired fires when a disconnected seat's hold runs out. If no
// human is left connected the room is torn down outright; otherwise the
// remaining players are told and get the end-or-wait choice.
func (s *Supervisor) onGraceExpired(room *model.Room, player model.PlayerID) {
	p := room.PlayerByID(player)
	if p == nil || p.Connected {
		return
	}
	if room.GraceExpired == nil {
		room.GraceExpired = make(map[model.Seat]bool)
	}
	room.GraceExpired[p.Seat] = true

	s.logger.Info("disconnect grace expired",
		slog.String("room_code", string(room.Code)),
		slog.String("player_id", string(player)),
	)
	s.broadcast(room, model.EventPlayerTimeout, player, model.TimeoutPayload{
		DisplayName: p.DisplayName,
		Seat:        p.Seat,
	})

	anyConnected := false
	for _, other := range room.Players {
		if other.IsBot || other.ControlledBy != "" {
			continue
		}
		if other.Connected {
			anyConnected = true
			break
		}
	}
	if !anyConnected {
		s.broadcast(room, model.EventGameEnded, "", model.GameEndedPayload{Reason: "abandoned"})
		s.registry.DestroyRoom(room.Code)
		return
	}
	s.notifier.RoomState(room)
}

// Rejoin swaps a new connection identity into a disconnected seat. The
// credential is the name and token pair: the presented token is matched
// against outstanding hashes and the name must match the seat it opens.
// On success the seat's full state carries over and a replacement token
// is issued.
func (s *Supervisor) Rejoin(code model.RoomCode, name, token string, newID model.PlayerID) (model.Seat, string, error) {
	newToken := generateToken()
	newHash, err := bcrypt.GenerateFromPassword([]byte(newToken), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}

	var seat model.Seat
	var oldID model.PlayerID
	err = s.registry.Dispatch(code, func(room *model.Room) error {
		var p *model.PlayerState
		for _, cand := range room.Players {
			if cand.Connected || cand.ReconnectHash == "" || cand.DisplayName != name {
				continue
			}
			if bcrypt.CompareHashAndPassword([]byte(cand.ReconnectHash), []byte(token)) == nil {
				p = cand
				break
			}
		}
		if p == nil {
			// One error for every failure mode so a caller cannot tell
			// which half of the credential was wrong
			return model.ErrInvalidRejoinToken
		}

		oldID = p.ID
		seat = p.Seat
		p.ID = newID
		p.Connected = true
		p.ReconnectHash = string(newHash)
		delete(room.GraceExpired, p.Seat)

		// Everything keyed by the old identity follows the swap
		for _, other := range room.Players {
			if other.ControlledBy == oldID {
				other.ControlledBy = newID
			}
		}
		if room.PlayAgain != nil {
			if ballot, ok := room.PlayAgain.Votes[oldID]; ok {
				delete(room.PlayAgain.Votes, oldID)
				room.PlayAgain.Votes[newID] = ballot
			}
		}

		s.registry.CancelTimer(code, "disconnect:"+string(oldID))
		s.registry.SwapPlayer(oldID, newID, code)

		s.logger.Info("player rejoined",
			slog.String("room_code", string(code)),
			slog.String("seat", string(seat)),
		)
		s.broadcast(room, model.EventPlayerReconnected, newID, model.ReconnectedPayload{
			DisplayName: p.DisplayName,
			Seat:        seat,
		})
		s.notifier.RoomState(room)
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return seat, newToken, nil
}

func (s *Supervisor) broadcast(room *model.Room, eventType model.EventType, player model.PlayerID, payload any) {
	s.notifier.Broadcast(room, model.Event{
		Type:      eventType,
		Timestamp: s.clock.Now(),
		RoomCode:  room.Code,
		PlayerID:  player,
		Payload:   payload,
	})
}

func generateToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
