package game

import (
	"context"
	"log/slog"

	"github.com/openmahjong/parlor/internal/model"
)

// startPlayAgainVote opens the post-hand ballot. Only human controllers
// vote; bots and puppeted seats have no say. Any "no", or the window
// expiring, ends the room.
func (c *Controller) startPlayAgainVote(room *model.Room) {
	votes := make(map[model.PlayerID]*bool)
	for _, id := range room.Controllers() {
		votes[id] = nil
	}
	room.PlayAgain = &model.PlayAgainState{
		Votes:    votes,
		Deadline: c.clock.Now().Add(c.cfg.PlayAgainWindow),
	}
	c.broadcast(room, model.EventPlayAgain, "", model.PlayAgainPayload{
		Deadline: room.PlayAgain.Deadline,
	})

	code := room.Code
	c.registry.SetTimer(code, timerPlayAgain, c.cfg.PlayAgainWindow, func(r *model.Room) {
		if r.PlayAgain == nil {
			return
		}
		c.endRoom(r, "play_again_timeout")
	})
}

func (c *Controller) handlePlayAgainVote(ctx context.Context, room *model.Room, requester model.PlayerID, vote *bool) error {
	if room.PlayAgain == nil {
		return model.ErrVoteClosed
	}
	if vote == nil {
		return model.ErrVoteClosed
	}
	existing, eligible := room.PlayAgain.Votes[requester]
	if !eligible {
		return model.ErrNotAuthorizedForSeat
	}
	if existing != nil {
		return model.ErrAlreadyVoted
	}
	room.PlayAgain.Votes[requester] = vote

	if !*vote {
		c.registry.CancelTimer(room.Code, timerPlayAgain)
		c.endRoom(room, "play_again_declined")
		return nil
	}
	if room.PlayAgain.AllYes() {
		c.registry.CancelTimer(room.Code, timerPlayAgain)
		c.resetForNextHand(room)
	}
	return nil
}

// resetForNextHand deals a fresh wall with the same seats. Dealt state
// from the finished hand is discarded wholesale.
func (c *Controller) resetForNextHand(room *model.Room) {
	for _, p := range room.Players {
		p.Exposures = nil
		p.IsDead = false
	}
	room.Winner = nil
	room.WallGame = false
	room.Calling = nil
	room.PlayAgain = nil
	room.GraceExpired = nil

	c.deal(room)
	room.CurrentTurn = model.SeatEast
	if room.Config.GameMode == model.ModeSiamese {
		room.Phase = model.PhaseDraw
	} else {
		room.Phase = model.PhaseCharleston
		room.Charleston = model.NewCharlestonState()
	}

	c.logger.Info("next hand dealt",
		slog.String("room_code", string(room.Code)),
		slog.Int("hands_played", room.HandsPlayed),
	)
	c.broadcast(room, model.EventGameStarted, "", model.GameStartedPayload{
		WallCount: room.WallCount(),
		GameMode:  room.Config.GameMode,
	})
}

// handleTimeoutChoice is the remaining players' decision after a
// disconnect grace expires: end the game now, or keep the seat open
// and wait indefinitely.
func (c *Controller) handleTimeoutChoice(ctx context.Context, room *model.Room, endGame bool) error {
	if !room.Started {
		return model.ErrGameNotStarted
	}
	if len(room.GraceExpired) == 0 {
		return model.ErrWrongPhase
	}
	if !endGame {
		// Waiting is the passive default; the choice stays reopenable
		return nil
	}
	c.endRoom(room, "abandoned")
	return nil
}
