package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openmahjong/parlor/internal/model"
)

// scheduleBots arms whatever timers the room's current state calls for.
// Runs after every accepted intent, so bot scheduling always reflects
// the latest state. A bot's move is backed by a safety timeout that
// forces a fallback action if the scheduled turn never lands.
func (c *Controller) scheduleBots(room *model.Room) {
	if !room.Started {
		return
	}
	code := room.Code

	switch room.Phase {
	case model.PhaseDraw, model.PhaseDiscard:
		p := room.PlayerBySeat(room.CurrentTurn)
		if p == nil || !p.IsBot {
			c.registry.CancelTimer(code, timerBotTurn)
			c.registry.CancelTimer(code, timerBotSafety)
			return
		}
		c.registry.SetTimer(code, timerBotTurn, c.botDelay(), func(r *model.Room) {
			c.runBotTurn(r, model.SourceBot)
		})
		c.registry.SetTimer(code, timerBotSafety, c.cfg.BotSafetyTimeout, func(r *model.Room) {
			c.runBotTurn(r, model.SourceSafety)
		})

	case model.PhaseCalling:
		c.registry.CancelTimer(code, timerBotTurn)
		c.registry.CancelTimer(code, timerBotSafety)
		for _, s := range room.Calling.Eligible(room) {
			p := room.PlayerBySeat(s)
			if !p.IsBot || room.Calling.Responses[s] != nil {
				continue
			}
			seat := s
			c.registry.SetTimer(code, "bot:claim:"+string(seat), c.botDelay(), func(r *model.Room) {
				c.runBotClaim(r, seat)
			})
		}

	case model.PhaseCharleston:
		c.registry.CancelTimer(code, timerBotTurn)
		c.registry.CancelTimer(code, timerBotSafety)
		for _, s := range model.Seats() {
			p := room.PlayerBySeat(s)
			if p == nil || !p.IsBot {
				continue
			}
			seat := s
			if c.botCharlestonPending(room.Charleston, seat) {
				c.registry.SetTimer(code, "bot:charleston:"+string(seat), c.botDelay(), func(r *model.Room) {
					c.runBotCharleston(r, seat)
				})
			}
		}

	default:
		c.registry.CancelTimer(code, timerBotTurn)
		c.registry.CancelTimer(code, timerBotSafety)
	}
}

func (c *Controller) botCharlestonPending(ch *model.CharlestonState, seat model.Seat) bool {
	if ch == nil {
		return false
	}
	switch ch.Stage {
	case model.StagePassing:
		return !ch.Ready[seat]
	case model.StageVoting:
		return ch.SecondVotes[seat] == nil
	case model.StageCourtesy:
		return ch.CourtesyProposals[seat] == nil
	}
	return false
}

// runBotTurn plays the current bot seat's move: draw when owed a tile,
// otherwise discard the brain's pick. The safety source takes the same
// path as the scheduled one so the fallback is identical in effect.
func (c *Controller) runBotTurn(room *model.Room, source model.IntentSource) {
	if room.Phase != model.PhaseDraw && room.Phase != model.PhaseDiscard {
		return
	}
	p := room.PlayerBySeat(room.CurrentTurn)
	if p == nil || !p.IsBot {
		return
	}

	intent := model.Intent{
		Source:    source,
		Requester: p.ID,
		Seat:      p.Seat,
	}
	if room.Phase == model.PhaseDraw {
		intent.Action = model.ActionDraw
	} else {
		intent.Action = model.ActionDiscard
		intent.TileID = c.brain.ChooseDiscard(p.Hand)
	}

	if err := c.applyLocked(context.Background(), room, intent); err != nil && !errors.Is(err, model.ErrWallEmpty) {
		c.logger.Warn("bot turn rejected",
			slog.String("room_code", string(room.Code)),
			slog.String("seat", string(p.Seat)),
			slog.String("action", string(intent.Action)),
			slog.String("error", err.Error()),
		)
	}
}

// runBotClaim answers an open calling window for one bot seat
func (c *Controller) runBotClaim(room *model.Room, seat model.Seat) {
	if room.Phase != model.PhaseCalling || room.Calling == nil {
		return
	}
	if room.Calling.Responses[seat] != nil {
		return
	}
	p := room.PlayerBySeat(seat)
	if p == nil || !p.IsBot {
		return
	}
	discard, err := c.liveDiscard(room, room.Calling)
	if err != nil {
		return
	}

	intent := model.Intent{
		Source:    model.SourceBot,
		Requester: p.ID,
		Seat:      seat,
		Action:    model.ActionClaimPass,
	}
	if offer := c.brain.ChooseClaim(p, discard); offer != nil {
		intent.Action = model.ActionClaim
		intent.ClaimType = offer.Type
		intent.TileIDs = offer.TileIDs
	}

	if err := c.applyLocked(context.Background(), room, intent); err != nil {
		// A rejected claim still owes the window a response
		intent.Action = model.ActionClaimPass
		intent.ClaimType = ""
		intent.TileIDs = nil
		_ = c.applyLocked(context.Background(), room, intent)
	}
}

// runBotCharleston advances one bot seat through the charleston: pick
// and lock three tiles, decline the optional second round, offer zero
// courtesy tiles.
func (c *Controller) runBotCharleston(room *model.Room, seat model.Seat) {
	ch := room.Charleston
	if room.Phase != model.PhaseCharleston || ch == nil {
		return
	}
	p := room.PlayerBySeat(seat)
	if p == nil || !p.IsBot {
		return
	}

	base := model.Intent{Source: model.SourceBot, Requester: p.ID, Seat: seat}
	ctx := context.Background()

	switch ch.Stage {
	case model.StagePassing:
		if ch.Ready[seat] {
			return
		}
		for _, id := range c.brain.ChooseCharlestonPass(p.Hand) {
			intent := base
			intent.Action = model.ActionCharlestonSelect
			intent.TileID = id
			if err := c.applyLocked(ctx, room, intent); err != nil {
				return
			}
		}
		intent := base
		intent.Action = model.ActionCharlestonReady
		_ = c.applyLocked(ctx, room, intent)

	case model.StageVoting:
		no := false
		intent := base
		intent.Action = model.ActionCharlestonVote
		intent.Vote = &no
		_ = c.applyLocked(ctx, room, intent)

	case model.StageCourtesy:
		zero := 0
		intent := base
		intent.Action = model.ActionCourtesyPropose
		intent.Count = &zero
		_ = c.applyLocked(ctx, room, intent)
	}
}

func (c *Controller) botDelay() time.Duration {
	span := c.cfg.BotMaxDelay - c.cfg.BotMinDelay
	if span <= 0 {
		return c.cfg.BotMinDelay
	}
	steps := int(span/time.Millisecond) + 1
	return c.cfg.BotMinDelay + time.Duration(c.random.Intn(steps))*time.Millisecond
}
