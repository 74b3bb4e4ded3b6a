package registry

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openmahjong/parlor/internal/dependencies/clock"
	"github.com/openmahjong/parlor/internal/dependencies/random"
	"github.com/openmahjong/parlor/internal/model"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes (avoid confusing chars)
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// entry owns one room. The mutex serializes every intent against the
// room; the timer table holds the room's named cancellable timers so
// teardown can cancel all of them in one pass.
//
// Lock order: Registry.mu is never held while acquiring entry.mu;
// callers inside a Dispatch may call DestroyRoom safely.
type entry struct {
	mu     sync.Mutex
	room   *model.Room
	closed atomic.Bool

	timerMu sync.Mutex
	timers  map[string]clock.Timer
}

// Registry is the only process-wide mutable structure: the map of room
// code to room and of player ID to room code. Rooms themselves are
// mutated only through Dispatch, which serializes all intents for a
// given room.
type Registry struct {
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	mu         sync.RWMutex
	rooms      map[model.RoomCode]*entry
	playerRoom map[model.PlayerID]model.RoomCode
}

// New creates an empty Registry
func New(clk clock.Clock, rnd random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		clock:      clk,
		random:     rnd,
		logger:     logger.With(slog.String("component", "registry")),
		rooms:      make(map[model.RoomCode]*entry),
		playerRoom: make(map[model.PlayerID]model.RoomCode),
	}
}

// CreateRoom creates a room with a unique collision-checked code and
// seats the creator at the first compass seat.
func (r *Registry) CreateRoom(creator model.PlayerID, displayName string, cfg model.RoomConfig) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.playerRoom[creator]; ok {
		return nil, model.ErrAlreadyInRoom
	}

	var code model.RoomCode
	for {
		code = model.RoomCode(r.random.String(RoomCodeLength, RoomCodeAlphabet))
		if _, exists := r.rooms[code]; !exists {
			break
		}
	}

	now := r.clock.Now()
	room := &model.Room{
		Code:   code,
		Config: cfg,
		Players: []*model.PlayerState{{
			ID:          creator,
			DisplayName: displayName,
			Seat:        model.SeatEast,
			Connected:   true,
			JoinedAt:    now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.rooms[code] = &entry{
		room:   room,
		timers: make(map[string]clock.Timer),
	}
	r.playerRoom[creator] = code

	r.logger.Info("room created",
		slog.String("room_code", string(code)),
		slog.String("player_id", string(creator)),
		slog.String("game_mode", string(cfg.GameMode)),
	)

	return room, nil
}

// JoinRoom validates and seats a joining player in the next open
// compass seat. Fails with ErrRoomNotFound, ErrGameAlreadyStarted or
// ErrRoomFull.
func (r *Registry) JoinRoom(code model.RoomCode, player model.PlayerID, displayName string) (model.Seat, error) {
	r.mu.RLock()
	e, ok := r.rooms[code]
	_, alreadyIn := r.playerRoom[player]
	r.mu.RUnlock()
	if !ok {
		return "", model.ErrRoomNotFound
	}
	if alreadyIn {
		return "", model.ErrAlreadyInRoom
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return "", model.ErrRoomNotFound
	}

	room := e.room
	if room.Started {
		return "", model.ErrGameAlreadyStarted
	}
	if len(room.Players) >= room.Config.HumanSeats() {
		return "", model.ErrRoomFull
	}

	// Humans fill seats in round-robin compass order; in siamese mode
	// that is east then south, with the puppeted west/north seats
	// created at game start.
	seat := model.Seats()[len(room.Players)]

	room.Players = append(room.Players, &model.PlayerState{
		ID:          player,
		DisplayName: displayName,
		Seat:        seat,
		Connected:   true,
		JoinedAt:    r.clock.Now(),
	})
	room.UpdatedAt = r.clock.Now()

	r.mu.Lock()
	r.playerRoom[player] = code
	r.mu.Unlock()

	r.logger.Info("player joined room",
		slog.String("room_code", string(code)),
		slog.String("player_id", string(player)),
		slog.String("seat", string(seat)),
	)

	return seat, nil
}

// Leave removes a player from an unstarted room. The room is destroyed
// when its last player leaves before start.
func (r *Registry) Leave(code model.RoomCode, player model.PlayerID) (empty bool, err error) {
	r.mu.RLock()
	e, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return false, model.ErrRoomNotFound
	}

	e.mu.Lock()
	room := e.room
	idx := -1
	for i, p := range room.Players {
		if p.ID == player {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return false, model.ErrNotInRoom
	}

	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	room.UpdatedAt = r.clock.Now()
	empty = len(room.Players) == 0
	e.mu.Unlock()

	r.mu.Lock()
	delete(r.playerRoom, player)
	r.mu.Unlock()

	if empty {
		r.DestroyRoom(code)
	}
	return empty, nil
}

// RoomCodeFor maps a player identity to its room
func (r *Registry) RoomCodeFor(player model.PlayerID) (model.RoomCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	code, ok := r.playerRoom[player]
	return code, ok
}

// BindPlayer records a player as belonging to a room. Used when seats
// are created outside JoinRoom (bot fill, siamese puppets).
func (r *Registry) BindPlayer(player model.PlayerID, code model.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playerRoom[player] = code
}

// SwapPlayer rebinds a seat to a new connection identity in the player
// index. Used by reconnects, where the seat's state is preserved but
// the connection identity changes.
func (r *Registry) SwapPlayer(old, new model.PlayerID, code model.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.playerRoom, old)
	r.playerRoom[new] = code
}

// Dispatch runs fn against the room with the room's intent lock held.
// All room mutations flow through here, which is what serializes
// intents per room: no two intents for the same room ever interleave.
func (r *Registry) Dispatch(code model.RoomCode, fn func(*model.Room) error) error {
	r.mu.RLock()
	e, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The room may have been destroyed while waiting for the lock
	if e.closed.Load() {
		return model.ErrRoomNotFound
	}

	return fn(e.room)
}

// SetTimer schedules a named timer for the room, replacing any existing
// timer with the same name. When it fires, fn runs through Dispatch, so
// a timer firing against a torn-down room is a no-op.
func (r *Registry) SetTimer(code model.RoomCode, name string, d time.Duration, fn func(*model.Room)) {
	r.mu.RLock()
	e, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return
	}

	e.timerMu.Lock()
	if old, exists := e.timers[name]; exists {
		old.Stop()
	}
	e.timers[name] = r.clock.AfterFunc(d, func() {
		e.timerMu.Lock()
		delete(e.timers, name)
		e.timerMu.Unlock()

		if err := r.Dispatch(code, func(room *model.Room) error {
			fn(room)
			return nil
		}); err != nil {
			r.logger.Debug("timer fired for missing room",
				slog.String("room_code", string(code)),
				slog.String("timer", name),
			)
		}
	})
	e.timerMu.Unlock()
}

// CancelTimer stops a named timer if it is pending
func (r *Registry) CancelTimer(code model.RoomCode, name string) {
	r.mu.RLock()
	e, ok := r.rooms[code]
	r.mu.RUnlock()
	if !ok {
		return
	}

	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	if t, exists := e.timers[name]; exists {
		t.Stop()
		delete(e.timers, name)
	}
}

// DestroyRoom tears a room down: every outstanding timer is cancelled
// and all player mappings removed, so no leaked callback can act on the
// deleted room. Safe to call from within a Dispatch against the same
// room.
func (r *Registry) DestroyRoom(code model.RoomCode) {
	r.mu.Lock()
	e, ok := r.rooms[code]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.closed.Store(true)
	for _, p := range e.room.Players {
		if r.playerRoom[p.ID] == code {
			delete(r.playerRoom, p.ID)
		}
	}
	delete(r.rooms, code)
	r.mu.Unlock()

	e.timerMu.Lock()
	for name, t := range e.timers {
		t.Stop()
		delete(e.timers, name)
	}
	e.timerMu.Unlock()

	r.logger.Info("room destroyed", slog.String("room_code", string(code)))
}

// RoomCount returns the number of live rooms
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
