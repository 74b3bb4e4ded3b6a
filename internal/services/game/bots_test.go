package game

import (
	"context"
	"time"

	"github.com/openmahjong/parlor/internal/model"
)

// botStep is one scheduled bot delay: the mock random returns 0 from
// Intn, so every bot timer lands on the configured minimum.
func (s *ControllerSuite) botStep() {
	s.clock.Advance(s.ctrl.cfg.BotMinDelay)
}

func (s *ControllerSuite) TestBotDrawsAndDiscardsOnItsTurn() {
	code, ids := s.createRoom(model.DefaultRoomConfig(), 1)
	s.Require().NoError(s.ctrl.StartGame(context.Background(), code, ids[0]))

	s.forceDrawPhase(code)
	s.inspect(code, func(room *model.Room) {
		room.CurrentTurn = model.SeatSouth
	})
	// Any accepted intent re-arms the schedule for the new state
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionSort}))

	s.botStep()
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDiscard, room.Phase)
		s.Len(room.PlayerBySeat(model.SeatSouth).Hand, 14)
	})

	s.botStep()
	s.inspect(code, func(room *model.Room) {
		s.Len(room.PlayerBySeat(model.SeatSouth).Hand, 13)
		s.Len(room.DiscardPile, 1)
	})
	s.assertConservation(code)
}

// The safety timeout must force the bot's move even when the scheduled
// turn timer never lands
func (s *ControllerSuite) TestBotSafetyTimeoutForcesMove() {
	code, ids := s.createRoom(model.DefaultRoomConfig(), 1)
	s.Require().NoError(s.ctrl.StartGame(context.Background(), code, ids[0]))

	s.forceDrawPhase(code)
	s.inspect(code, func(room *model.Room) {
		room.CurrentTurn = model.SeatSouth
	})
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionSort}))

	// Suppress the scheduled turn so only the safety fallback remains
	s.registry.CancelTimer(code, timerBotTurn)

	s.clock.Advance(s.ctrl.cfg.BotSafetyTimeout)
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDiscard, room.Phase)
		s.Len(room.PlayerBySeat(model.SeatSouth).Hand, 14)
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestBotClaimsKongFromDiscard() {
	code, ids := s.createRoom(model.DefaultRoomConfig(), 2)
	s.Require().NoError(s.ctrl.StartGame(context.Background(), code, ids[0]))
	s.forceDrawPhase(code)

	eastHand := s.rigHand(code, model.SeatEast, faces(
		repeat(model.SuitDot, 5, 1),
		repeat(model.SuitWind, 0, 12),
	))
	// The west bot holds three naturals plus scattered singles, so the
	// brain calls a kong without completing a hand
	s.rigHand(code, model.SeatWest, faces(
		repeat(model.SuitDot, 5, 3),
		repeat(model.SuitCrak, 5, 1), repeat(model.SuitCrak, 6, 1), repeat(model.SuitCrak, 7, 1),
		repeat(model.SuitCrak, 8, 1), repeat(model.SuitCrak, 9, 1),
		repeat(model.SuitDot, 1, 1), repeat(model.SuitDot, 2, 1), repeat(model.SuitDot, 3, 1),
		repeat(model.SuitDot, 4, 1), repeat(model.SuitDot, 6, 1),
	))

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))
	discardID := tileWithFace(eastHand, model.SuitDot, 5).ID
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDiscard, TileID: discardID}))

	s.inspect(code, func(room *model.Room) {
		s.Require().Equal(model.PhaseCalling, room.Phase)
		s.Nil(room.Calling.Responses[model.SeatWest])
	})

	s.botStep()
	s.inspect(code, func(room *model.Room) {
		west := room.PlayerBySeat(model.SeatWest)
		s.Require().Len(west.Exposures, 1)
		s.Equal(model.ClaimKong, west.Exposures[0].ClaimType)
		s.Len(west.Exposures[0].Tiles, 4)
		s.Equal(model.SeatWest, room.CurrentTurn)
		s.Equal(model.PhaseDiscard, room.Phase)
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestBotsCompleteCharlestonWithOneHuman() {
	code, ids := s.createRoom(model.DefaultRoomConfig(), 1)
	s.Require().NoError(s.ctrl.StartGame(context.Background(), code, ids[0]))

	humanPass := func() {
		var picks []model.TileID
		s.inspect(code, func(room *model.Room) {
			for _, t := range room.PlayerBySeat(model.SeatEast).Hand[:3] {
				picks = append(picks, t.ID)
			}
		})
		for _, tid := range picks {
			s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: tid}))
		}
		s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonReady}))
	}

	for pass := 0; pass < 3; pass++ {
		s.botStep() // bots select and mark ready
		humanPass()
		s.inspect(code, func(room *model.Room) {
			s.Require().NotNil(room.Charleston)
			s.Equal(pass+1, room.Charleston.PassIndex)
		})
	}

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.StageVoting, room.Charleston.Stage)
	})

	// Bots always decline the second charleston
	s.botStep()
	yes := true
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonVote, Vote: &yes}))

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.StageCourtesy, room.Charleston.Stage)
	})

	// Bots propose zero courtesy tiles
	s.botStep()
	zero := 0
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCourtesyPropose, Count: &zero}))

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDraw, room.Phase)
		s.Equal(model.SeatEast, room.CurrentTurn)
		s.Nil(room.Charleston)
		for _, p := range room.Players {
			s.Len(p.Hand, 13)
		}
	})
	s.assertConservation(code)
}

// A stale bot timer from an earlier phase must be harmless when it fires
func (s *ControllerSuite) TestStaleBotTimerIsNoOp() {
	code, ids := s.createRoom(model.DefaultRoomConfig(), 1)
	s.Require().NoError(s.ctrl.StartGame(context.Background(), code, ids[0]))

	// Charleston timers are armed; skipping straight to draw leaves them
	// pointing at a phase that no longer exists
	s.forceDrawPhase(code)

	s.clock.Advance(time.Minute)
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDraw, room.Phase)
		for _, p := range room.Players {
			s.Len(p.Hand, 13)
		}
	})
}
