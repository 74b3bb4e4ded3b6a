package game

import (
	"context"

	"github.com/openmahjong/parlor/internal/model"
)

// forceWin rigs east into a self-drawn Three Kongs and a Pair
func (s *ControllerSuite) forceWin(code model.RoomCode, winner model.PlayerID) {
	s.forceDrawPhase(code)
	s.rigHand(code, model.SeatEast, faces(
		repeat(model.SuitDot, 1, 4),
		repeat(model.SuitDot, 2, 4),
		repeat(model.SuitDot, 3, 4),
		repeat(model.SuitDot, 4, 1),
	))
	s.stackWall(code, model.SuitDot, 4)
	s.Require().NoError(s.apply(code, model.Intent{Requester: winner, Action: model.ActionDraw}))
	s.inspect(code, func(room *model.Room) {
		s.Require().Equal(model.PhaseWon, room.Phase)
	})
}

func (s *ControllerSuite) votePlayAgain(code model.RoomCode, id model.PlayerID, vote bool) error {
	return s.apply(code, model.Intent{Requester: id, Action: model.ActionPlayAgainVote, Vote: &vote})
}

func (s *ControllerSuite) TestUnanimousPlayAgainDealsNextHand() {
	code, ids := s.startStandard()
	s.forceWin(code, ids[0])

	for _, id := range ids {
		s.Require().NoError(s.votePlayAgain(code, id, true))
	}

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseCharleston, room.Phase)
		s.Nil(room.Winner)
		s.Nil(room.PlayAgain)
		s.False(room.WallGame)
		s.Equal(1, room.HandsPlayed)
		s.Equal(model.DeckSize-4*13, room.WallCount())
		for _, p := range room.Players {
			s.Len(p.Hand, 13)
			s.Empty(p.Exposures)
			s.False(p.IsDead)
		}
	})
	s.assertConservation(code)
	s.Len(s.notifier.eventsOfType(model.EventGameStarted), 2)
}

func (s *ControllerSuite) TestBallotOpeningIsAnnounced() {
	code, ids := s.startStandard()
	s.forceWin(code, ids[0])

	events := s.notifier.eventsOfType(model.EventPlayAgain)
	s.Require().Len(events, 1)
	payload := events[0].Payload.(model.PlayAgainPayload)
	s.Equal(s.clock.Now().Add(s.ctrl.cfg.PlayAgainWindow), payload.Deadline)
}

func (s *ControllerSuite) TestPlayAgainDeclineEndsRoom() {
	code, ids := s.startStandard()
	s.forceWin(code, ids[0])

	s.Require().NoError(s.votePlayAgain(code, ids[1], false))

	s.Equal(0, s.registry.RoomCount())
	events := s.notifier.eventsOfType(model.EventGameEnded)
	s.Require().Len(events, 1)
	s.Equal("play_again_declined", events[0].Payload.(model.GameEndedPayload).Reason)
}

func (s *ControllerSuite) TestPlayAgainWindowExpiryEndsRoom() {
	code, ids := s.startStandard()
	s.forceWin(code, ids[0])

	s.Require().NoError(s.votePlayAgain(code, ids[0], true))
	s.clock.Advance(s.ctrl.cfg.PlayAgainWindow)

	s.Equal(0, s.registry.RoomCount())
	events := s.notifier.eventsOfType(model.EventGameEnded)
	s.Require().Len(events, 1)
	s.Equal("play_again_timeout", events[0].Payload.(model.GameEndedPayload).Reason)
}

func (s *ControllerSuite) TestDuplicatePlayAgainVoteRejected() {
	code, ids := s.startStandard()
	s.forceWin(code, ids[0])

	s.Require().NoError(s.votePlayAgain(code, ids[0], true))
	s.ErrorIs(s.votePlayAgain(code, ids[0], true), model.ErrAlreadyVoted)
}

func (s *ControllerSuite) TestPlayAgainVoteWithoutOpenBallotRejected() {
	code, ids := s.startStandard()
	s.ErrorIs(s.votePlayAgain(code, ids[0], true), model.ErrVoteClosed)
}

func (s *ControllerSuite) TestPlayAgainVoteRequiresBallot() {
	code, ids := s.startStandard()
	s.forceWin(code, ids[0])

	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionPlayAgainVote})
	s.ErrorIs(err, model.ErrVoteClosed)
}

// Bots never vote: a room of two humans and two bots resets as soon as
// both humans are in.
func (s *ControllerSuite) TestOnlyHumanControllersVote() {
	code, ids := s.createRoom(model.DefaultRoomConfig(), 2)
	s.Require().NoError(s.ctrl.StartGame(context.Background(), code, ids[0]))
	s.forceWin(code, ids[0])

	s.inspect(code, func(room *model.Room) {
		s.Len(room.PlayAgain.Votes, 2)
	})

	s.Require().NoError(s.votePlayAgain(code, ids[0], true))
	s.inspect(code, func(room *model.Room) {
		s.NotNil(room.PlayAgain)
	})

	s.Require().NoError(s.votePlayAgain(code, ids[1], true))
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseCharleston, room.Phase)
		s.Nil(room.PlayAgain)
	})
}
