package game

import (
	"context"
	"log/slog"

	"github.com/openmahjong/parlor/internal/model"
)

func (c *Controller) handleClaim(ctx context.Context, room *model.Room, seat model.Seat, intent model.Intent) error {
	calling, p, err := c.requireCallingWindow(room, seat)
	if err != nil {
		return err
	}

	discard, err := c.liveDiscard(room, calling)
	if err != nil {
		return err
	}

	offer := model.ClaimOffer{Type: intent.ClaimType, TileIDs: intent.TileIDs}
	switch offer.Type {
	case model.ClaimMahjong:
		if len(offer.TileIDs) != 0 {
			return model.ErrClaimTileCount
		}
		tiles := append(c.evalTiles(p), discard)
		if len(tiles) != 14 || c.evaluator.Evaluate(tiles) == nil {
			return model.ErrNotAWinningHand
		}
		if room.Config.GameMode == model.ModeSiamese {
			// The full win check includes the partner hand; reuse it by
			// provisionally holding the discard
			p.Hand = append(p.Hand, discard)
			win, _ := c.seatWins(room, p)
			p.Hand = p.Hand[:len(p.Hand)-1]
			if !win {
				return model.ErrNotAWinningHand
			}
		}
	case model.ClaimPung, model.ClaimKong, model.ClaimQuint:
		if len(offer.TileIDs) != offer.Type.ConcealedTileCount() {
			return model.ErrClaimTileCount
		}
		if !p.HasDistinctTiles(offer.TileIDs) {
			return model.ErrTileNotInHand
		}
		for _, id := range offer.TileIDs {
			t := p.Hand[model.FindTile(p.Hand, id)]
			if !t.IsJoker && !t.SameFace(discard) {
				return model.ErrInvalidClaim
			}
		}
	default:
		return model.ErrInvalidClaim
	}

	calling.Responses[seat] = &model.ClaimResponse{Offer: &offer}
	if calling.AllResponded(room) {
		c.resolveCalling(ctx, room)
	}
	return nil
}

func (c *Controller) handleClaimPass(ctx context.Context, room *model.Room, seat model.Seat) error {
	calling, _, err := c.requireCallingWindow(room, seat)
	if err != nil {
		return err
	}
	calling.Responses[seat] = &model.ClaimResponse{Passed: true}
	if calling.AllResponded(room) {
		c.resolveCalling(ctx, room)
	}
	return nil
}

func (c *Controller) requireCallingWindow(room *model.Room, seat model.Seat) (*model.CallingState, *model.PlayerState, error) {
	if !room.Started {
		return nil, nil, model.ErrGameNotStarted
	}
	if room.Phase != model.PhaseCalling || room.Calling == nil {
		return nil, nil, model.ErrNoCallingWindow
	}
	calling := room.Calling
	if seat == calling.Discarder {
		return nil, nil, model.ErrInvalidClaim
	}
	p := room.PlayerBySeat(seat)
	if p.IsDead {
		return nil, nil, model.ErrSeatDead
	}
	if calling.Responses[seat] != nil {
		return nil, nil, model.ErrAlreadyResponded
	}
	return calling, p, nil
}

func (c *Controller) liveDiscard(room *model.Room, calling *model.CallingState) (model.Tile, error) {
	if len(room.DiscardPile) == 0 || room.DiscardPile[0].ID != calling.DiscardID {
		return model.Tile{}, model.ErrTileNotInDiscards
	}
	return room.DiscardPile[0], nil
}

// resolveCalling picks the winning claim once every eligible seat has
// responded: mahjong beats any exposure, larger exposures beat smaller,
// and ties go to the seat nearest the discarder in turn order.
func (c *Controller) resolveCalling(ctx context.Context, room *model.Room) {
	calling := room.Calling
	var bestSeat model.Seat
	var bestOffer *model.ClaimOffer

	for _, s := range calling.Eligible(room) {
		resp := calling.Responses[s]
		if resp == nil || resp.Offer == nil {
			continue
		}
		if bestOffer == nil ||
			resp.Offer.Type.Beats(bestOffer.Type) ||
			(!bestOffer.Type.Beats(resp.Offer.Type) &&
				s.DistanceFrom(calling.Discarder) < bestSeat.DistanceFrom(calling.Discarder)) {
			bestSeat = s
			bestOffer = resp.Offer
		}
	}

	if bestOffer == nil {
		c.advanceTurn(room, calling.Discarder)
		return
	}

	p := room.PlayerBySeat(bestSeat)

	// The concealed tiles come out before the pile is touched, so a hand
	// that no longer backs its offer leaves the room untouched
	var claimed []model.Tile
	if bestOffer.Type != model.ClaimMahjong {
		hand, removed, ok := model.RemoveTiles(p.Hand, bestOffer.TileIDs)
		if !ok {
			c.logger.Error("claim offer no longer backed by the hand",
				slog.String("room_code", string(room.Code)),
				slog.String("seat", string(bestSeat)),
			)
			c.advanceTurn(room, calling.Discarder)
			return
		}
		p.Hand = hand
		claimed = removed
	}

	pile, discard, _ := model.RemoveTile(room.DiscardPile, calling.DiscardID)
	room.DiscardPile = pile
	room.LastDiscard = nil

	c.broadcast(room, model.EventClaimResolved, p.ID, model.ClaimResolvedPayload{
		Seat:      bestSeat,
		ClaimType: bestOffer.Type,
		TileID:    discard.ID,
	})

	if bestOffer.Type == model.ClaimMahjong {
		p.Hand = append(p.Hand, discard)
		_, pattern := c.seatWins(room, p)
		c.endHandWon(ctx, room, p, pattern)
		return
	}

	group := model.ExposureGroup{
		Tiles:         append(claimed, discard),
		FromDiscardID: discard.ID,
		ClaimType:     bestOffer.Type,
	}
	p.Exposures = append(p.Exposures, group)

	room.Calling = nil
	room.CurrentTurn = bestSeat
	room.Phase = model.PhaseDiscard

	c.logger.Info("claim resolved",
		slog.String("room_code", string(room.Code)),
		slog.String("seat", string(bestSeat)),
		slog.String("claim_type", string(bestOffer.Type)),
	)
}

// handleJokerSwap exchanges a concealed natural tile for a joker sitting
// in any exposed group with the same face. Legal only while holding the
// turn with 14 tiles.
func (c *Controller) handleJokerSwap(room *model.Room, seat model.Seat, intent model.Intent) error {
	if !room.Started {
		return model.ErrGameNotStarted
	}
	if room.Phase != model.PhaseDiscard || room.CurrentTurn != seat {
		return model.ErrWrongPhase
	}
	p := room.PlayerBySeat(seat)

	idx := model.FindTile(p.Hand, intent.TileID)
	if idx < 0 {
		return model.ErrTileNotInHand
	}
	offered := p.Hand[idx]
	if offered.IsJoker || offered.Suit == model.SuitBlank {
		return model.ErrInvalidClaim
	}

	target := room.PlayerBySeat(intent.TargetSeat)
	if target == nil {
		return model.ErrNoMatchingJoker
	}
	for gi := range target.Exposures {
		group := &target.Exposures[gi]
		face, hasFace := groupFace(group.Tiles)
		if !hasFace || !face.SameFace(offered) {
			continue
		}
		for ti, t := range group.Tiles {
			if !t.IsJoker {
				continue
			}
			joker := group.Tiles[ti]
			group.Tiles[ti] = offered
			hand, _, _ := model.RemoveTile(p.Hand, offered.ID)
			p.Hand = append(hand, joker)
			return nil
		}
	}
	return model.ErrNoMatchingJoker
}

// groupFace returns the natural face an exposure is built on
func groupFace(tiles []model.Tile) (model.Tile, bool) {
	for _, t := range tiles {
		if !t.IsJoker {
			return t, true
		}
	}
	return model.Tile{}, false
}

// handleBlankExchange swaps a held zombie blank for any tile in the
// discard pile, outside the claim system. The pile keeps the blank, so
// tile conservation holds.
func (c *Controller) handleBlankExchange(room *model.Room, seat model.Seat, intent model.Intent) error {
	if !room.Started {
		return model.ErrGameNotStarted
	}
	if !room.Config.EnableBlanks {
		return model.ErrBlanksDisabled
	}
	if room.Phase != model.PhaseDiscard || room.CurrentTurn != seat {
		return model.ErrWrongPhase
	}
	p := room.PlayerBySeat(seat)

	idx := model.FindTile(p.Hand, intent.TileID)
	if idx < 0 {
		return model.ErrTileNotInHand
	}
	blank := p.Hand[idx]
	if blank.Suit != model.SuitBlank {
		return model.ErrNotABlank
	}

	pi := model.FindTile(room.DiscardPile, intent.DiscardTileID)
	if pi < 0 {
		return model.ErrTileNotInDiscards
	}
	taken := room.DiscardPile[pi]

	room.DiscardPile[pi] = blank
	p.Hand[idx] = taken
	if pi == 0 {
		room.LastDiscard = &blank
	}
	return nil
}

// handleDeclareDead marks a seat as unable to win. Dead seats stop
// drawing and claiming; if every seat but one goes dead the hand ends
// with no winner.
func (c *Controller) handleDeclareDead(ctx context.Context, room *model.Room, seat model.Seat) error {
	if !room.Started {
		return model.ErrGameNotStarted
	}
	if room.Phase == model.PhaseWon || room.Phase == model.PhaseCharleston {
		return model.ErrWrongPhase
	}
	p := room.PlayerBySeat(seat)
	if p.IsDead {
		return model.ErrSeatDead
	}
	p.IsDead = true

	c.broadcast(room, model.EventDeadHand, p.ID, model.DeadHandPayload{
		Seat:        seat,
		DisplayName: p.DisplayName,
	})

	alive := 0
	for _, other := range room.Players {
		if !other.IsDead {
			alive++
		}
	}
	if alive <= 1 {
		c.endHandWallGame(ctx, room)
		return nil
	}

	// A dead seat in mid-window counts as responded
	if room.Phase == model.PhaseCalling && room.Calling.AllResponded(room) {
		c.resolveCalling(ctx, room)
		return nil
	}
	if room.CurrentTurn == seat && room.Phase != model.PhaseCalling {
		c.advanceTurn(room, seat)
	}
	return nil
}
