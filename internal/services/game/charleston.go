package game

import (
	"log/slog"

	"github.com/openmahjong/parlor/internal/model"
)

func (c *Controller) requireCharleston(room *model.Room) (*model.CharlestonState, error) {
	if !room.Started {
		return nil, model.ErrGameNotStarted
	}
	if room.Phase != model.PhaseCharleston || room.Charleston == nil {
		return nil, model.ErrNotCharleston
	}
	return room.Charleston, nil
}

// handleCharlestonSelect toggles a tile in or out of the seat's pending
// selection. Jokers may never be passed.
func (c *Controller) handleCharlestonSelect(room *model.Room, seat model.Seat, tileID model.TileID) error {
	ch, err := c.requireCharleston(room)
	if err != nil {
		return err
	}
	if ch.Stage != model.StagePassing {
		return model.ErrNotCharleston
	}
	if ch.Ready[seat] {
		return model.ErrAlreadyReady
	}

	p := room.PlayerBySeat(seat)
	idx := model.FindTile(p.Hand, tileID)
	if idx < 0 {
		return model.ErrTileNotInHand
	}
	if p.Hand[idx].IsJoker {
		return model.ErrCharlestonSelection
	}

	selected := ch.Selected[seat]
	for i, id := range selected {
		if id == tileID {
			ch.Selected[seat] = append(selected[:i], selected[i+1:]...)
			return nil
		}
	}
	if len(selected) >= 3 {
		return model.ErrCharlestonSelection
	}
	ch.Selected[seat] = append(selected, tileID)
	return nil
}

// handleCharlestonReady locks in a seat's 3-tile selection. When all
// four seats are ready the pass executes simultaneously.
func (c *Controller) handleCharlestonReady(room *model.Room, seat model.Seat) error {
	ch, err := c.requireCharleston(room)
	if err != nil {
		return err
	}
	if ch.Stage != model.StagePassing {
		return model.ErrNotCharleston
	}
	if ch.Ready[seat] {
		return model.ErrAlreadyReady
	}
	if len(ch.Selected[seat]) != 3 {
		return model.ErrCharlestonSelection
	}

	ch.Ready[seat] = true
	if ch.AllReady() {
		c.executePass(room, ch)
	}
	return nil
}

// executePass moves every seat's selection to its directional target in
// one simultaneous exchange, then advances the pass index.
func (c *Controller) executePass(room *model.Room, ch *model.CharlestonState) {
	dir := ch.CurrentDirection()

	outgoing := make(map[model.Seat][]model.Tile)
	for _, seat := range model.Seats() {
		p := room.PlayerBySeat(seat)
		for _, id := range ch.Selected[seat] {
			hand, tile, _ := model.RemoveTile(p.Hand, id)
			p.Hand = hand
			outgoing[seat] = append(outgoing[seat], tile)
		}
	}
	for _, seat := range model.Seats() {
		target := room.PlayerBySeat(dir.Target(seat))
		target.Hand = append(target.Hand, outgoing[seat]...)
	}

	c.broadcast(room, model.EventCharlestonPass, "", model.CharlestonPassPayload{
		Direction: dir,
		PassIndex: ch.PassIndex,
	})
	c.logger.Info("charleston pass executed",
		slog.String("room_code", string(room.Code)),
		slog.String("direction", string(dir)),
		slog.Int("pass_index", ch.PassIndex),
	)

	ch.PassIndex++
	ch.Selected = make(map[model.Seat][]model.TileID)
	ch.Ready = make(map[model.Seat]bool)

	if ch.PassIndex < len(ch.Passes) {
		return
	}
	if len(ch.Passes) == 3 {
		// First charleston done; the optional second needs a unanimous vote
		ch.Stage = model.StageVoting
		return
	}
	c.startCourtesy(room, ch)
}

// handleCharlestonVote records a ballot on the optional second
// charleston. All four seats must vote yes for it to run; the second
// round passes in reverse order.
func (c *Controller) handleCharlestonVote(room *model.Room, seat model.Seat, vote *bool) error {
	ch, err := c.requireCharleston(room)
	if err != nil {
		return err
	}
	if ch.Stage != model.StageVoting {
		return model.ErrVoteClosed
	}
	if vote == nil {
		return model.ErrVoteClosed
	}
	if ch.SecondVotes[seat] != nil {
		return model.ErrAlreadyVoted
	}
	ch.SecondVotes[seat] = vote

	for _, s := range model.Seats() {
		if ch.SecondVotes[s] == nil {
			return nil
		}
	}

	unanimous := true
	for _, s := range model.Seats() {
		if !*ch.SecondVotes[s] {
			unanimous = false
			break
		}
	}
	if unanimous {
		ch.Passes = append(ch.Passes, model.PassLeft, model.PassAcross, model.PassRight)
		ch.Stage = model.StagePassing
		return nil
	}
	c.startCourtesy(room, ch)
	return nil
}

// startCourtesy opens the final across-pair exchange with a deadline:
// outstanding proposals resolve as zero when the window closes.
func (c *Controller) startCourtesy(room *model.Room, ch *model.CharlestonState) {
	ch.Stage = model.StageCourtesy
	code := room.Code
	c.registry.SetTimer(code, timerCourtesy, c.cfg.CourtesyWindow, func(r *model.Room) {
		cc := r.Charleston
		if r.Phase != model.PhaseCharleston || cc == nil || cc.Stage != model.StageCourtesy {
			return
		}
		zero := 0
		for _, s := range model.Seats() {
			if cc.CourtesyProposals[s] == nil {
				cc.CourtesyProposals[s] = &zero
			}
		}
		c.resolveCourtesy(r, cc)
		c.notifier.RoomState(r)
		c.scheduleBots(r)
	})
}

// handleCourtesyPropose records a seat's courtesy offer: a count of 0-3
// and the tiles backing it. The pair exchanges the minimum of the two
// proposals.
func (c *Controller) handleCourtesyPropose(room *model.Room, seat model.Seat, intent model.Intent) error {
	ch, err := c.requireCharleston(room)
	if err != nil {
		return err
	}
	if ch.Stage != model.StageCourtesy {
		return model.ErrNotCharleston
	}
	if ch.CourtesyProposals[seat] != nil {
		return model.ErrAlreadyVoted
	}
	if intent.Count == nil || *intent.Count < 0 || *intent.Count > 3 {
		return model.ErrCourtesyProposal
	}
	if len(intent.TileIDs) != *intent.Count {
		return model.ErrCourtesyProposal
	}

	p := room.PlayerBySeat(seat)
	if !p.HasDistinctTiles(intent.TileIDs) {
		return model.ErrTileNotInHand
	}
	for _, id := range intent.TileIDs {
		if p.Hand[model.FindTile(p.Hand, id)].IsJoker {
			return model.ErrCourtesyProposal
		}
	}

	count := *intent.Count
	ch.CourtesyProposals[seat] = &count
	ch.CourtesySelected[seat] = intent.TileIDs

	for _, s := range model.Seats() {
		if ch.CourtesyProposals[s] == nil {
			return nil
		}
	}
	c.resolveCourtesy(room, ch)
	return nil
}

// resolveCourtesy exchanges min(proposals) tiles within each across
// pair, then closes the charleston and opens normal play.
func (c *Controller) resolveCourtesy(room *model.Room, ch *model.CharlestonState) {
	for _, pair := range [][2]model.Seat{
		{model.SeatEast, model.SeatWest},
		{model.SeatSouth, model.SeatNorth},
	} {
		a, b := pair[0], pair[1]
		n := *ch.CourtesyProposals[a]
		if other := *ch.CourtesyProposals[b]; other < n {
			n = other
		}
		if n == 0 {
			continue
		}

		pa := room.PlayerBySeat(a)
		pb := room.PlayerBySeat(b)
		handA, fromA, okA := model.RemoveTiles(pa.Hand, ch.CourtesySelected[a][:n])
		handB, fromB, okB := model.RemoveTiles(pb.Hand, ch.CourtesySelected[b][:n])
		if !okA || !okB {
			// Both hands must back their proposals or neither side moves
			c.logger.Error("courtesy proposal no longer backed by the hand",
				slog.String("room_code", string(room.Code)),
				slog.String("seat", string(a)+"/"+string(b)),
			)
			continue
		}
		pa.Hand = append(handA, fromB...)
		pb.Hand = append(handB, fromA...)
	}

	c.registry.CancelTimer(room.Code, timerCourtesy)
	room.Charleston = nil
	room.Phase = model.PhaseDraw
	room.CurrentTurn = model.SeatEast

	c.logger.Info("charleston complete", slog.String("room_code", string(room.Code)))
}
