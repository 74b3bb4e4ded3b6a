package game

import (
	"time"

	"github.com/openmahjong/parlor/internal/model"
)

// runCharlestonPass has every seat select its first three tiles and mark
// ready, which executes one simultaneous pass.
func (s *ControllerSuite) runCharlestonPass(code model.RoomCode, ids []model.PlayerID) {
	seats := model.Seats()
	for i, id := range ids {
		var picks []model.TileID
		s.inspect(code, func(room *model.Room) {
			for _, t := range room.PlayerBySeat(seats[i]).Hand[:3] {
				picks = append(picks, t.ID)
			}
		})
		for _, tid := range picks {
			s.Require().NoError(s.apply(code, model.Intent{Requester: id, Action: model.ActionCharlestonSelect, TileID: tid}))
		}
		s.Require().NoError(s.apply(code, model.Intent{Requester: id, Action: model.ActionCharlestonReady}))
	}
}

func (s *ControllerSuite) voteSecondCharleston(code model.RoomCode, ids []model.PlayerID, votes []bool) {
	for i, id := range ids {
		v := votes[i]
		s.Require().NoError(s.apply(code, model.Intent{Requester: id, Action: model.ActionCharlestonVote, Vote: &v}))
	}
}

// reachCourtesy runs the mandatory charleston and votes down the second
func (s *ControllerSuite) reachCourtesy(code model.RoomCode, ids []model.PlayerID) {
	for i := 0; i < 3; i++ {
		s.runCharlestonPass(code, ids)
	}
	s.voteSecondCharleston(code, ids, []bool{false, false, false, false})
	s.inspect(code, func(room *model.Room) {
		s.Require().Equal(model.StageCourtesy, room.Charleston.Stage)
	})
}

func (s *ControllerSuite) propose(code model.RoomCode, id model.PlayerID, tileIDs []model.TileID) error {
	count := len(tileIDs)
	return s.apply(code, model.Intent{
		Requester: id,
		Action:    model.ActionCourtesyPropose,
		Count:     &count,
		TileIDs:   tileIDs,
	})
}

func (s *ControllerSuite) TestFirstPassMovesTilesRight() {
	code, ids := s.startStandard()

	var eastPicks []model.TileID
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PassRight, room.Charleston.CurrentDirection())
		for _, t := range room.PlayerBySeat(model.SeatEast).Hand[:3] {
			eastPicks = append(eastPicks, t.ID)
		}
	})

	s.runCharlestonPass(code, ids)

	s.inspect(code, func(room *model.Room) {
		s.Equal(1, room.Charleston.PassIndex)
		s.Empty(room.Charleston.Selected)
		s.Empty(room.Charleston.Ready)

		// Passing right sends east's tiles to north
		north := room.PlayerBySeat(model.SeatNorth)
		for _, id := range eastPicks {
			s.GreaterOrEqual(model.FindTile(north.Hand, id), 0)
		}
		for _, p := range room.Players {
			s.Len(p.Hand, 13)
		}
	})
	s.assertConservation(code)
	s.Len(s.notifier.eventsOfType(model.EventCharlestonPass), 1)
}

func (s *ControllerSuite) TestThreePassesOpenSecondCharlestonVote() {
	code, ids := s.startStandard()
	for i := 0; i < 3; i++ {
		s.runCharlestonPass(code, ids)
	}
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.StageVoting, room.Charleston.Stage)
	})
}

func (s *ControllerSuite) TestUnanimousVoteRunsSecondCharlestonReversed() {
	code, ids := s.startStandard()
	for i := 0; i < 3; i++ {
		s.runCharlestonPass(code, ids)
	}
	s.voteSecondCharleston(code, ids, []bool{true, true, true, true})

	s.inspect(code, func(room *model.Room) {
		ch := room.Charleston
		s.Equal(model.StagePassing, ch.Stage)
		s.Len(ch.Passes, 6)
		s.Equal(model.PassLeft, ch.CurrentDirection())
	})

	for i := 0; i < 3; i++ {
		s.runCharlestonPass(code, ids)
	}
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.StageCourtesy, room.Charleston.Stage)
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestSplitVoteSkipsSecondCharleston() {
	code, ids := s.startStandard()
	for i := 0; i < 3; i++ {
		s.runCharlestonPass(code, ids)
	}
	s.voteSecondCharleston(code, ids, []bool{true, false, true, true})

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.StageCourtesy, room.Charleston.Stage)
	})
}

func (s *ControllerSuite) TestSelectToggleAndLimit() {
	code, ids := s.startStandard()

	var hand []model.Tile
	s.inspect(code, func(room *model.Room) {
		hand = append([]model.Tile{}, room.PlayerBySeat(model.SeatEast).Hand...)
	})

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: hand[0].ID}))
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: hand[0].ID}))
	s.inspect(code, func(room *model.Room) {
		s.Empty(room.Charleston.Selected[model.SeatEast])
	})

	for i := 0; i < 3; i++ {
		s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: hand[i].ID}))
	}
	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: hand[3].ID})
	s.ErrorIs(err, model.ErrCharlestonSelection)
}

func (s *ControllerSuite) TestJokersCannotBePassed() {
	code, ids := s.startStandard()
	hand := s.rigHand(code, model.SeatEast, faces(
		repeat(model.SuitJoker, 0, 1),
		repeat(model.SuitWind, 0, 12),
	))

	joker := hand[0]
	s.Require().True(joker.IsJoker)
	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: joker.ID})
	s.ErrorIs(err, model.ErrCharlestonSelection)
}

func (s *ControllerSuite) TestReadyRequiresExactlyThreeTiles() {
	code, ids := s.startStandard()

	var hand []model.Tile
	s.inspect(code, func(room *model.Room) {
		hand = append([]model.Tile{}, room.PlayerBySeat(model.SeatEast).Hand...)
	})
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: hand[0].ID}))

	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonReady})
	s.ErrorIs(err, model.ErrCharlestonSelection)
}

func (s *ControllerSuite) TestReadyLocksSelection() {
	code, ids := s.startStandard()

	var hand []model.Tile
	s.inspect(code, func(room *model.Room) {
		hand = append([]model.Tile{}, room.PlayerBySeat(model.SeatEast).Hand...)
	})
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: hand[i].ID}))
	}
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonReady}))

	s.ErrorIs(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonReady}), model.ErrAlreadyReady)
	s.ErrorIs(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: hand[3].ID}), model.ErrAlreadyReady)
}

func (s *ControllerSuite) TestVoteBeforeVotingStageRejected() {
	code, ids := s.startStandard()
	yes := true
	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonVote, Vote: &yes})
	s.ErrorIs(err, model.ErrVoteClosed)
}

func (s *ControllerSuite) TestDuplicateCharlestonVoteRejected() {
	code, ids := s.startStandard()
	for i := 0; i < 3; i++ {
		s.runCharlestonPass(code, ids)
	}
	yes := true
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonVote, Vote: &yes}))
	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonVote, Vote: &yes})
	s.ErrorIs(err, model.ErrAlreadyVoted)
}

func (s *ControllerSuite) TestCourtesyExchangesMinimumOfProposals() {
	code, ids := s.startStandard()
	s.reachCourtesy(code, ids)

	var eastOffer, westOffer []model.TileID
	s.inspect(code, func(room *model.Room) {
		east := room.PlayerBySeat(model.SeatEast).Hand
		west := room.PlayerBySeat(model.SeatWest).Hand
		eastOffer = []model.TileID{east[0].ID, east[1].ID}
		westOffer = []model.TileID{west[0].ID}
	})

	s.Require().NoError(s.propose(code, ids[0], eastOffer))
	s.Require().NoError(s.propose(code, ids[2], westOffer))
	s.Require().NoError(s.propose(code, ids[1], nil))
	s.Require().NoError(s.propose(code, ids[3], nil))

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDraw, room.Phase)
		s.Equal(model.SeatEast, room.CurrentTurn)
		s.Nil(room.Charleston)

		// min(2, 1) = 1 tile each way between east and west
		east := room.PlayerBySeat(model.SeatEast)
		west := room.PlayerBySeat(model.SeatWest)
		s.GreaterOrEqual(model.FindTile(east.Hand, westOffer[0]), 0)
		s.GreaterOrEqual(model.FindTile(west.Hand, eastOffer[0]), 0)
		s.Equal(-1, model.FindTile(west.Hand, eastOffer[1]))
		for _, p := range room.Players {
			s.Len(p.Hand, 13)
		}
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestCourtesyWindowClosesWithZeroFill() {
	code, ids := s.startStandard()
	s.reachCourtesy(code, ids)

	var eastOffer []model.TileID
	s.inspect(code, func(room *model.Room) {
		eastOffer = []model.TileID{room.PlayerBySeat(model.SeatEast).Hand[0].ID}
	})
	s.Require().NoError(s.propose(code, ids[0], eastOffer))

	s.clock.Advance(s.ctrl.cfg.CourtesyWindow)

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDraw, room.Phase)
		s.Nil(room.Charleston)
		// The silent partner resolves as zero, so nothing moves
		s.GreaterOrEqual(model.FindTile(room.PlayerBySeat(model.SeatEast).Hand, eastOffer[0]), 0)
	})
}

func (s *ControllerSuite) TestCourtesyProposalValidation() {
	code, ids := s.startStandard()
	s.reachCourtesy(code, ids)

	four := 4
	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCourtesyPropose, Count: &four})
	s.ErrorIs(err, model.ErrCourtesyProposal)

	two := 2
	var oneTile []model.TileID
	s.inspect(code, func(room *model.Room) {
		oneTile = []model.TileID{room.PlayerBySeat(model.SeatEast).Hand[0].ID}
	})
	err = s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCourtesyPropose, Count: &two, TileIDs: oneTile})
	s.ErrorIs(err, model.ErrCourtesyProposal)

	s.Require().NoError(s.propose(code, ids[0], nil))
	s.ErrorIs(s.propose(code, ids[0], nil), model.ErrAlreadyVoted)
}

func (s *ControllerSuite) TestCourtesyProposalNamingSameTileTwiceRejected() {
	code, ids := s.startStandard()
	s.reachCourtesy(code, ids)

	var tid model.TileID
	s.inspect(code, func(room *model.Room) {
		tid = room.PlayerBySeat(model.SeatEast).Hand[0].ID
	})

	// One held tile listed twice must not count as a two-tile offer
	two := 2
	err := s.apply(code, model.Intent{
		Requester: ids[0],
		Action:    model.ActionCourtesyPropose,
		Count:     &two,
		TileIDs:   []model.TileID{tid, tid},
	})
	s.ErrorIs(err, model.ErrTileNotInHand)

	s.inspect(code, func(room *model.Room) {
		s.Nil(room.Charleston.CourtesyProposals[model.SeatEast])
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestCharlestonActionsAfterCompletionRejected() {
	code, ids := s.startStandard()
	s.reachCourtesy(code, ids)
	for _, id := range ids {
		s.Require().NoError(s.propose(code, id, nil))
	}

	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionCharlestonSelect, TileID: "t001"})
	s.ErrorIs(err, model.ErrNotCharleston)
}

// The courtesy timer must be gone once the charleston resolves, so a
// later hand is never interrupted by a stale deadline.
func (s *ControllerSuite) TestCourtesyTimerCancelledOnResolve() {
	code, ids := s.startStandard()
	s.reachCourtesy(code, ids)
	for _, id := range ids {
		s.Require().NoError(s.propose(code, id, nil))
	}

	s.clock.Advance(time.Hour)
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDraw, room.Phase)
	})
}
