package game

import (
	"context"

	"github.com/openmahjong/parlor/internal/model"
)

// takeWallTile pulls one tile with the given face out of the wall
func takeWallTile(room *model.Room, suit model.Suit, value int) model.Tile {
	for i, t := range room.Deck {
		if t.Suit == suit && t.Value == value {
			room.Deck = append(room.Deck[:i], room.Deck[i+1:]...)
			return t
		}
	}
	return model.Tile{}
}

// rigClaimWindow sets up a live 5-dot discard from east with south
// holding two naturals and west one natural plus two jokers, so both
// seats are left pending in the calling window.
func (s *ControllerSuite) rigClaimWindow(code model.RoomCode, ids []model.PlayerID) (southTiles, westTiles []model.Tile) {
	s.forceDrawPhase(code)

	eastHand := s.rigHand(code, model.SeatEast, faces(
		repeat(model.SuitDot, 5, 1),
		repeat(model.SuitWind, 0, 12),
	))
	southTiles = s.rigHand(code, model.SeatSouth, faces(
		repeat(model.SuitDot, 5, 2),
		repeat(model.SuitDragon, 0, 4),
		repeat(model.SuitWind, 0, 4),
		repeat(model.SuitFlower, 0, 3),
	))
	westTiles = s.rigHand(code, model.SeatWest, faces(
		repeat(model.SuitDot, 5, 1),
		repeat(model.SuitJoker, 0, 2),
		repeat(model.SuitDragon, 0, 8),
		repeat(model.SuitFlower, 0, 2),
	))

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))
	discardID := tileWithFace(eastHand, model.SuitDot, 5).ID
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDiscard, TileID: discardID}))

	s.inspect(code, func(room *model.Room) {
		s.Require().Equal(model.PhaseCalling, room.Phase)
		s.Require().NotNil(room.Calling)
	})
	return southTiles, westTiles
}

func (s *ControllerSuite) TestDiscardOpensWindowOnlyForPotentialClaimants() {
	code, ids := s.startStandard()
	s.forceDrawPhase(code)

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))

	// The unshuffled deal leaves east with the lone spare 4-bam; south
	// holds the other three
	var discardID model.TileID
	s.inspect(code, func(room *model.Room) {
		discardID = tileWithFace(room.PlayerBySeat(model.SeatEast).Hand, model.SuitBam, 4).ID
	})
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDiscard, TileID: discardID}))

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseCalling, room.Phase)
		s.Require().NotNil(room.Calling)
		s.Equal(model.SeatEast, room.Calling.Discarder)
		s.Nil(room.Calling.Responses[model.SeatSouth])
		s.Require().NotNil(room.Calling.Responses[model.SeatWest])
		s.True(room.Calling.Responses[model.SeatWest].Passed)
		s.Require().NotNil(room.Calling.Responses[model.SeatNorth])
		s.True(room.Calling.Responses[model.SeatNorth].Passed)
	})
}

func (s *ControllerSuite) TestClaimPungFormsExposure() {
	code, ids := s.startStandard()
	southTiles, _ := s.rigClaimWindow(code, ids)

	s.Require().NoError(s.apply(code, model.Intent{
		Requester: ids[2], Action: model.ActionClaimPass,
	}))
	s.Require().NoError(s.apply(code, model.Intent{
		Requester: ids[1],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimPung,
		TileIDs:   []model.TileID{southTiles[0].ID, southTiles[1].ID},
	}))

	s.inspect(code, func(room *model.Room) {
		south := room.PlayerBySeat(model.SeatSouth)
		s.Require().Len(south.Exposures, 1)
		s.Len(south.Exposures[0].Tiles, 3)
		s.Equal(model.ClaimPung, south.Exposures[0].ClaimType)
		s.Len(south.Hand, 11)

		s.Empty(room.DiscardPile)
		s.Nil(room.LastDiscard)
		s.Equal(model.SeatSouth, room.CurrentTurn)
		s.Equal(model.PhaseDiscard, room.Phase)
	})
	s.assertConservation(code)
	s.Len(s.notifier.eventsOfType(model.EventClaimResolved), 1)
}

func (s *ControllerSuite) TestKongBeatsPung() {
	code, ids := s.startStandard()
	southTiles, westTiles := s.rigClaimWindow(code, ids)

	s.Require().NoError(s.apply(code, model.Intent{
		Requester: ids[1],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimPung,
		TileIDs:   []model.TileID{southTiles[0].ID, southTiles[1].ID},
	}))
	s.Require().NoError(s.apply(code, model.Intent{
		Requester: ids[2],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimKong,
		TileIDs:   []model.TileID{westTiles[0].ID, westTiles[1].ID, westTiles[2].ID},
	}))

	s.inspect(code, func(room *model.Room) {
		west := room.PlayerBySeat(model.SeatWest)
		s.Require().Len(west.Exposures, 1)
		s.Len(west.Exposures[0].Tiles, 4)
		s.Equal(model.ClaimKong, west.Exposures[0].ClaimType)
		s.Equal(model.SeatWest, room.CurrentTurn)

		// The losing claimant keeps its hand intact
		s.Len(room.PlayerBySeat(model.SeatSouth).Hand, 13)
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestEqualClaimsGoToSeatNearestDiscarder() {
	code, ids := s.startStandard()
	southTiles, westTiles := s.rigClaimWindow(code, ids)

	// West responds first, but south sits closer to the discarder
	s.Require().NoError(s.apply(code, model.Intent{
		Requester: ids[2],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimPung,
		TileIDs:   []model.TileID{westTiles[0].ID, westTiles[1].ID},
	}))
	s.Require().NoError(s.apply(code, model.Intent{
		Requester: ids[1],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimPung,
		TileIDs:   []model.TileID{southTiles[0].ID, southTiles[1].ID},
	}))

	s.inspect(code, func(room *model.Room) {
		s.Len(room.PlayerBySeat(model.SeatSouth).Exposures, 1)
		s.Empty(room.PlayerBySeat(model.SeatWest).Exposures)
		s.Equal(model.SeatSouth, room.CurrentTurn)
	})
}

func (s *ControllerSuite) TestMahjongBeatsExposureClaims() {
	code, ids := s.startStandard()
	s.forceDrawPhase(code)

	eastHand := s.rigHand(code, model.SeatEast, faces(
		repeat(model.SuitDot, 4, 1),
		repeat(model.SuitWind, 0, 12),
	))
	s.rigHand(code, model.SeatSouth, faces(
		repeat(model.SuitDot, 4, 2),
		repeat(model.SuitDragon, 0, 4),
		repeat(model.SuitWind, 0, 4),
		repeat(model.SuitFlower, 0, 3),
	))
	s.rigHand(code, model.SeatWest, faces(
		repeat(model.SuitDot, 1, 4),
		repeat(model.SuitDot, 2, 4),
		repeat(model.SuitDot, 3, 4),
		repeat(model.SuitDot, 4, 1),
	))

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))
	discardID := tileWithFace(eastHand, model.SuitDot, 4).ID
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDiscard, TileID: discardID}))

	southTiles := []model.TileID{}
	s.inspect(code, func(room *model.Room) {
		s.Require().Equal(model.PhaseCalling, room.Phase)
		hand := room.PlayerBySeat(model.SeatSouth).Hand
		southTiles = append(southTiles, hand[0].ID, hand[1].ID)
	})

	s.Require().NoError(s.apply(code, model.Intent{
		Requester: ids[1],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimPung,
		TileIDs:   southTiles,
	}))
	s.Require().NoError(s.apply(code, model.Intent{
		Requester: ids[2],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimMahjong,
	}))

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseWon, room.Phase)
		s.Require().NotNil(room.Winner)
		s.Equal(model.SeatWest, room.Winner.Seat)
		s.Equal("Three Kongs and a Pair", room.Winner.Pattern)
		s.Len(room.PlayerBySeat(model.SeatWest).Hand, 14)
		s.Empty(room.PlayerBySeat(model.SeatSouth).Exposures)
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestClaimMahjongWithIncompleteHandRejected() {
	code, ids := s.startStandard()
	s.rigClaimWindow(code, ids)

	err := s.apply(code, model.Intent{
		Requester: ids[1],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimMahjong,
	})
	s.ErrorIs(err, model.ErrNotAWinningHand)

	// A rejected claim leaves the window open for a corrected response
	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseCalling, room.Phase)
		s.Nil(room.Calling.Responses[model.SeatSouth])
	})
}

func (s *ControllerSuite) TestClaimWithMismatchedTilesRejected() {
	code, ids := s.startStandard()
	southTiles, _ := s.rigClaimWindow(code, ids)

	// Offering a dragon alongside a 5-dot discard
	err := s.apply(code, model.Intent{
		Requester: ids[1],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimPung,
		TileIDs:   []model.TileID{southTiles[0].ID, southTiles[2].ID},
	})
	s.ErrorIs(err, model.ErrInvalidClaim)
}

func (s *ControllerSuite) TestClaimNamingSameTileTwiceRejected() {
	code, ids := s.startStandard()
	southTiles, _ := s.rigClaimWindow(code, ids)

	// Two copies of one ID cannot stand in for two physical tiles
	err := s.apply(code, model.Intent{
		Requester: ids[1],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimPung,
		TileIDs:   []model.TileID{southTiles[0].ID, southTiles[0].ID},
	})
	s.ErrorIs(err, model.ErrTileNotInHand)

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseCalling, room.Phase)
		s.Nil(room.Calling.Responses[model.SeatSouth])
		s.Len(room.PlayerBySeat(model.SeatSouth).Hand, 13)
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestClaimWithWrongTileCountRejected() {
	code, ids := s.startStandard()
	southTiles, _ := s.rigClaimWindow(code, ids)

	err := s.apply(code, model.Intent{
		Requester: ids[1],
		Action:    model.ActionClaim,
		ClaimType: model.ClaimKong,
		TileIDs:   []model.TileID{southTiles[0].ID, southTiles[1].ID},
	})
	s.ErrorIs(err, model.ErrClaimTileCount)
}

func (s *ControllerSuite) TestDiscarderCannotClaimOwnTile() {
	code, ids := s.startStandard()
	s.rigClaimWindow(code, ids)

	err := s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionClaimPass})
	s.ErrorIs(err, model.ErrInvalidClaim)
}

func (s *ControllerSuite) TestAllPassesAdvanceTurnPastDiscarder() {
	code, ids := s.startStandard()
	s.rigClaimWindow(code, ids)

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[1], Action: model.ActionClaimPass}))
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[2], Action: model.ActionClaimPass}))

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDraw, room.Phase)
		s.Equal(model.SeatSouth, room.CurrentTurn)
		s.Nil(room.Calling)
		s.Len(room.DiscardPile, 1)
	})
}

func (s *ControllerSuite) TestDoublePassRejected() {
	code, ids := s.startStandard()
	s.rigClaimWindow(code, ids)

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[1], Action: model.ActionClaimPass}))
	err := s.apply(code, model.Intent{Requester: ids[1], Action: model.ActionClaimPass})
	s.ErrorIs(err, model.ErrAlreadyResponded)
}

func (s *ControllerSuite) TestDeadSeatMidWindowCountsAsResponded() {
	code, ids := s.startStandard()
	s.rigClaimWindow(code, ids)

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[2], Action: model.ActionClaimPass}))
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[1], Action: model.ActionDeclareDead}))

	s.inspect(code, func(room *model.Room) {
		s.Equal(model.PhaseDraw, room.Phase)
		s.Nil(room.Calling)
		// South is dead, so the turn passes over it
		s.Equal(model.SeatWest, room.CurrentTurn)
	})
}

func (s *ControllerSuite) TestJokerSwapRetrievesJokerFromExposure() {
	code, ids := s.startStandard()
	s.forceDrawPhase(code)

	eastHand := s.rigHand(code, model.SeatEast, faces(
		repeat(model.SuitDot, 5, 1),
		repeat(model.SuitWind, 0, 12),
	))
	s.inspect(code, func(room *model.Room) {
		west := room.PlayerBySeat(model.SeatWest)
		group := model.ExposureGroup{ClaimType: model.ClaimPung}
		group.Tiles = append(group.Tiles,
			takeWallTile(room, model.SuitDot, 5),
			takeWallTile(room, model.SuitDot, 5),
			takeWallTile(room, model.SuitJoker, 0),
		)
		group.FromDiscardID = group.Tiles[0].ID
		// Move three hand tiles to the wall so the seat's total stays 13
		room.Deck = append(room.Deck, west.Hand[:3]...)
		west.Hand = west.Hand[3:]
		west.Exposures = append(west.Exposures, group)
	})

	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))

	offered := tileWithFace(eastHand, model.SuitDot, 5)
	s.Require().NoError(s.apply(code, model.Intent{
		Requester:  ids[0],
		Action:     model.ActionJokerSwap,
		TileID:     offered.ID,
		TargetSeat: model.SeatWest,
	}))

	s.inspect(code, func(room *model.Room) {
		east := room.PlayerBySeat(model.SeatEast)
		jokers := 0
		for _, t := range east.Hand {
			if t.IsJoker {
				jokers++
			}
		}
		s.Equal(1, jokers)
		s.Len(east.Hand, 14)

		exposure := room.PlayerBySeat(model.SeatWest).Exposures[0]
		for _, t := range exposure.Tiles {
			s.False(t.IsJoker)
		}
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestJokerSwapWithoutMatchingJokerRejected() {
	code, ids := s.startStandard()
	s.forceDrawPhase(code)

	eastHand := s.rigHand(code, model.SeatEast, faces(
		repeat(model.SuitDot, 5, 1),
		repeat(model.SuitWind, 0, 12),
	))
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))

	err := s.apply(code, model.Intent{
		Requester:  ids[0],
		Action:     model.ActionJokerSwap,
		TileID:     tileWithFace(eastHand, model.SuitDot, 5).ID,
		TargetSeat: model.SeatWest,
	})
	s.ErrorIs(err, model.ErrNoMatchingJoker)
}

func (s *ControllerSuite) TestJokerSwapOffTurnRejected() {
	code, ids := s.startStandard()
	s.forceDrawPhase(code)

	var tileID model.TileID
	s.inspect(code, func(room *model.Room) {
		tileID = room.PlayerBySeat(model.SeatSouth).Hand[0].ID
	})
	err := s.apply(code, model.Intent{
		Requester:  ids[1],
		Action:     model.ActionJokerSwap,
		TileID:     tileID,
		TargetSeat: model.SeatWest,
	})
	s.ErrorIs(err, model.ErrWrongPhase)
}

func (s *ControllerSuite) blanksRoom() (model.RoomCode, []model.PlayerID) {
	cfg := model.DefaultRoomConfig()
	cfg.FillWithBots = false
	cfg.EnableBlanks = true
	code, ids := s.createRoom(cfg, 4)
	s.Require().NoError(s.ctrl.StartGame(context.Background(), code, ids[0]))
	return code, ids
}

func (s *ControllerSuite) TestBlankExchangeTakesDiscardAndLeavesBlank() {
	code, ids := s.blanksRoom()
	s.forceDrawPhase(code)

	// East discards an unclaimable 1-bam, then south trades a blank for it
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))
	var discarded model.TileID
	s.inspect(code, func(room *model.Room) {
		discarded = tileWithFace(room.PlayerBySeat(model.SeatEast).Hand, model.SuitBam, 1).ID
	})
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDiscard, TileID: discarded}))

	southHand := s.rigHand(code, model.SeatSouth, faces(
		repeat(model.SuitBlank, 0, 1),
		repeat(model.SuitWind, 0, 12),
	))
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[1], Action: model.ActionDraw}))

	blank := tileWithFace(southHand, model.SuitBlank, 0)
	s.Require().NoError(s.apply(code, model.Intent{
		Requester:     ids[1],
		Action:        model.ActionBlankExchange,
		TileID:        blank.ID,
		DiscardTileID: discarded,
	}))

	s.inspect(code, func(room *model.Room) {
		south := room.PlayerBySeat(model.SeatSouth)
		s.GreaterOrEqual(model.FindTile(south.Hand, discarded), 0)
		s.Equal(-1, model.FindTile(south.Hand, blank.ID))
		s.Equal(blank.ID, room.DiscardPile[0].ID)
		s.Equal(blank.ID, room.LastDiscard.ID)
	})
	s.assertConservation(code)
}

func (s *ControllerSuite) TestBlankExchangeDisabledByConfig() {
	code, ids := s.startStandard()
	s.forceDrawPhase(code)
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))

	err := s.apply(code, model.Intent{
		Requester:     ids[0],
		Action:        model.ActionBlankExchange,
		TileID:        "t001",
		DiscardTileID: "t002",
	})
	s.ErrorIs(err, model.ErrBlanksDisabled)
}

func (s *ControllerSuite) TestBlankExchangeRequiresBlankTile() {
	code, ids := s.blanksRoom()
	s.forceDrawPhase(code)
	s.Require().NoError(s.apply(code, model.Intent{Requester: ids[0], Action: model.ActionDraw}))

	var handTile model.TileID
	s.inspect(code, func(room *model.Room) {
		handTile = room.PlayerBySeat(model.SeatEast).Hand[0].ID
		room.DiscardPile = append(room.DiscardPile, takeWallTile(room, model.SuitDot, 9))
	})
	var pileTile model.TileID
	s.inspect(code, func(room *model.Room) {
		pileTile = room.DiscardPile[0].ID
	})

	err := s.apply(code, model.Intent{
		Requester:     ids[0],
		Action:        model.ActionBlankExchange,
		TileID:        handTile,
		DiscardTileID: pileTile,
	})
	s.ErrorIs(err, model.ErrNotABlank)
}
