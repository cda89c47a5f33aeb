package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"holdemtable-server/pkg/deck"
	"holdemtable-server/pkg/game"
)

// StartHand locks the table and begins the stage/step progression. Called by
// the countdown timer, or directly for tables that start on demand.
func (e *Engine) StartHand(ctx context.Context, gameID string) error {
	err := e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		if rec.Locked {
			return newValidationError("a hand is already in progress")
		}
		if e.fundedSeats(rec) < e.opts.MinPlayers {
			return newValidationError(fmt.Sprintf("need at least %d funded players", e.opts.MinPlayers))
		}

		rec.Locked = true
		rec.LockTime = nil
		rec.Winner = nil
		rec.Pot = 0
		rec.Pots = nil
		rec.Contributions = make(map[string]int)
		rec.CommunityCards = nil
		rec.ActionHistory = nil
		rec.CurrentPlayerIndex = -1
		rec.PlayerBets = make([]int, len(rec.Players))

		d := deck.New()
		d.Shuffle(0)
		rec.Deck = d

		// busted or away seats sit this hand out
		for _, p := range rec.Players {
			p.Hand = nil
			p.IsAllIn = false
			p.AllInAmount = 0
			p.Folded = p.ChipCount <= 0 || p.IsAway
		}

		rec.Stage = game.StagePreflop
		rec.CurrentStep = game.CurrentStep{
			Stage:     game.StagePreflop,
			StartedAt: e.clock.Now(),
			Completed: make(map[game.RequirementType]bool),
		}

		gameID := rec.ID
		post.add(func() {
			e.seq.FinishStarting(gameID)
			e.timers.Cancel(startHandKey(gameID))
			e.requestAdvance(gameID)
		})
		return nil
	})

	if err == nil {
		e.log.WithField("game", gameID).Info("hand started")
	}
	return err
}

// requestAdvance kicks the orchestrator loop on its own goroutine. Safe to
// call redundantly; each pass re-reads persisted state under the record lock
// and does nothing if there is nothing to do.
func (e *Engine) requestAdvance(gameID string) {
	go e.advanceLoop(context.Background(), gameID)
}

// advanceLoop executes steps and advances past them until the hand is
// waiting on something external: a player's action, a notification display
// window, or the end of the hand
func (e *Engine) advanceLoop(ctx context.Context, gameID string) {
	for {
		progressed, err := e.stepOnce(ctx, gameID)
		if err != nil {
			if IsInternal(err) {
				e.logInternal(gameID, err)
			} else {
				e.log.WithError(err).WithField("game", gameID).Error("hand progression failed")
			}
			return
		}
		if !progressed {
			return
		}
	}
}

// stepOnce is one full lock-read-mutate-save cycle of the orchestrator:
// execute the current step if it hasn't run, then advance if its
// requirements are met. Returns whether any progress was made.
func (e *Engine) stepOnce(ctx context.Context, gameID string) (bool, error) {
	progressed := false
	err := e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		if !rec.Locked {
			return nil
		}

		def, ok := stepDefinition(rec.CurrentStep.Stage, rec.CurrentStep.Step)
		if !ok {
			return fmt.Errorf("%w: %s/%d", ErrNoStepDefinition, rec.CurrentStep.Stage, rec.CurrentStep.Step)
		}

		if !rec.CurrentStep.Executed {
			rec.CurrentStep.Executed = true
			if err := e.executeStepLocked(rec, def, post); err != nil {
				return err
			}
			progressed = true
		}

		// anything unmet here is waiting on a player, a timer, or a
		// display window
		if requirementsSatisfied(def, &rec.CurrentStep) {
			progressed = e.tryAdvanceLocked(rec, post)
		}

		return nil
	})

	return progressed, err
}

// executeStepLocked runs the current step's action and marks the
// requirements it satisfies
func (e *Engine) executeStepLocked(rec *game.Record, def StepDef, post *postCommit) error {
	switch def.Type {
	case StepPostSmallBlind:
		return e.postBlindLocked(rec, smallBlindSeat(rec), e.opts.SmallBlind, game.ActionSmallBlind, post)

	case StepPostBigBlind:
		return e.postBlindLocked(rec, bigBlindSeat(rec), e.opts.BigBlind, game.ActionBigBlind, post)

	case StepDealHoleCards:
		return e.dealHoleCardsLocked(rec, def, post)

	case StepDealFlop:
		return e.dealCommunityLocked(rec, def, 3, post)

	case StepDealTurn:
		return e.dealCommunityLocked(rec, def, 1, post)

	case StepDealRiver:
		return e.dealCommunityLocked(rec, def, 1, post)

	case StepBettingRound:
		e.beginBettingLocked(rec, post)
		return nil

	case StepDetermineWinner:
		return e.determineWinnerLocked(rec, def, post)

	case StepReset:
		e.resetLocked(rec, post)
		return nil
	}

	return fmt.Errorf("%w: unknown step type %s", ErrNoStepDefinition, def.Type)
}

func (e *Engine) postBlindLocked(rec *game.Record, seat, amount int, blind game.ActionType, post *postCommit) error {
	if seat < 0 {
		rec.CurrentStep.MarkComplete(game.RequirementBlindsPosted)
		return nil
	}

	ensureBets(rec)
	result, err := ApplyBet(rec, seat, amount)
	if err != nil {
		return err
	}

	p := rec.Players[seat]
	rec.AppendAction(game.Action{
		ID:       uuid.New().String(),
		PlayerID: p.ID,
		Type:     blind,
		Amount:   result.Actual,
		Stage:    rec.Stage,
		At:       e.clock.Now(),
	})
	rec.CurrentStep.MarkComplete(game.RequirementBlindsPosted)

	gameID := rec.ID
	payload := game.BetEvent{
		PlayerID:   p.ID,
		Amount:     result.Actual,
		PotTotal:   rec.Pot,
		PlayerBets: append([]int(nil), rec.PlayerBets...),
		IsAllIn:    result.AllIn,
	}
	post.add(func() {
		e.seq.Enqueue(gameID, Announcement{Event: game.EventBlindPosted, Payload: payload})
	})

	return nil
}

func (e *Engine) dealHoleCardsLocked(rec *game.Record, def StepDef, post *postCommit) error {
	if rec.Deck == nil {
		d := deck.New()
		d.Shuffle(0)
		rec.Deck = d
	}

	for round := 0; round < 2; round++ {
		for _, p := range rec.Players {
			if p.Folded {
				continue
			}
			card, err := rec.Deck.Draw()
			if err != nil {
				return fmt.Errorf("deal hole cards: %w", err)
			}
			p.Hand.AddCard(card)
		}
	}

	rec.CurrentStep.MarkComplete(game.RequirementCardsDealt)
	e.announceDealLocked(rec, def, post)
	return nil
}

func (e *Engine) dealCommunityLocked(rec *game.Record, def StepDef, count int, post *postCommit) error {
	if rec.Deck == nil {
		return fmt.Errorf("%w: no deck to deal from", ErrNoStepDefinition)
	}

	// fresh street: per-street wagers reset, cumulative contributions stay
	rec.PlayerBets = make([]int, len(rec.Players))

	for i := 0; i < count; i++ {
		card, err := rec.Deck.Draw()
		if err != nil {
			return fmt.Errorf("deal community cards: %w", err)
		}
		rec.CommunityCards.AddCard(card)
	}

	rec.CurrentStep.MarkComplete(game.RequirementCardsDealt)
	e.announceDealLocked(rec, def, post)
	return nil
}

// announceDealLocked queues the deal announcement and schedules the display
// window that gates advancement past the step
func (e *Engine) announceDealLocked(rec *game.Record, def StepDef, post *postCommit) {
	gameID := rec.ID
	payload := game.StageEvent{
		Stage:          rec.Stage,
		CommunityCards: rec.CommunityCards.String(),
		PotTotal:       rec.Pot,
	}

	if !def.Display {
		rec.CurrentStep.MarkComplete(game.RequirementNotificationComplete)
		post.add(func() {
			e.seq.Enqueue(gameID, Announcement{Event: game.EventCardsDealt, Payload: payload})
		})
		return
	}

	display := e.opts.DealDisplay
	post.add(func() {
		e.seq.Enqueue(gameID, Announcement{
			Event:    game.EventCardsDealt,
			Payload:  payload,
			Duration: display,
		})
		e.timers.Schedule(stepTimerKey(gameID), display, func() {
			e.completeNotification(gameID)
		})
	})
}

// beginBettingLocked opens a betting round, or marks it complete immediately
// when no betting is possible (all-in run-out, everyone folded to one)
func (e *Engine) beginBettingLocked(rec *game.Record, post *postCommit) {
	state := BettingRoundState(rec)
	skip := state.BettingComplete
	if !skip && rec.CanActCount() <= 1 {
		seat := firstEligibleFrom(rec, 0)
		if seat < 0 || owedBySeat(rec, seat) == 0 {
			// nobody left to call a bet; run the board out
			skip = true
		}
	}

	if skip {
		rec.CurrentStep.MarkComplete(game.RequirementAllPlayersActed)
		rec.CurrentPlayerIndex = -1
		return
	}

	rec.CurrentPlayerIndex = FirstToActIndex(rec)
	if rec.CurrentPlayerIndex < 0 {
		rec.CurrentStep.MarkComplete(game.RequirementAllPlayersActed)
		return
	}

	e.startTurnLocked(rec, post)
}

func (e *Engine) determineWinnerLocked(rec *game.Record, def StepDef, post *postCommit) error {
	BuildPots(rec)
	info, err := AwardPots(rec)
	if err != nil {
		return err
	}

	rec.CurrentStep.MarkComplete(game.RequirementWinnerDetermined)

	gameID := rec.ID
	event := game.EventWinnerDetermined
	if info.IsTie {
		event = game.EventGameTied
	}

	// stacks changed hands; persist every seat's balance
	type balanceUpdate struct {
		id    string
		chips int
	}
	updates := make([]balanceUpdate, 0, len(rec.Players))
	for _, p := range rec.Players {
		updates = append(updates, balanceUpdate{id: p.ID, chips: p.ChipCount})
	}

	display := e.opts.EndDisplay
	winner := *info
	post.add(func() {
		ctx := context.Background()
		for _, u := range updates {
			if err := e.balances.Set(ctx, u.id, u.chips); err != nil {
				e.log.WithError(err).WithFields(map[string]interface{}{
					"game":   gameID,
					"player": u.id,
				}).Error("could not persist balance")
			}
		}

		e.seq.Enqueue(gameID, Announcement{
			Event:    event,
			Payload:  winner,
			Duration: display,
		})
		e.timers.Schedule(stepTimerKey(gameID), display, func() {
			e.completeNotification(gameID)
		})
	})

	return nil
}

func (e *Engine) resetLocked(rec *game.Record, post *postCommit) {
	rec.ResetForNextHand()
	rec.CurrentStep.Executed = true
	rec.CurrentStep.MarkComplete(game.RequirementGameReset)

	// the table keeps dealing as long as the roster stays viable
	viable := e.armCountdownLocked(rec)

	gameID := rec.ID
	seats := len(rec.Players)
	post.add(func() {
		e.seq.Enqueue(gameID, Announcement{Event: game.EventGameReset, Payload: game.RosterEvent{Seats: seats}})
		if viable {
			e.enqueueCountdown(gameID, seats)
		}
	})
}

// completeNotification marks the display window done and resumes the loop
func (e *Engine) completeNotification(gameID string) {
	ctx := context.Background()
	err := e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		if !rec.Locked {
			return nil
		}
		rec.CurrentStep.MarkComplete(game.RequirementNotificationComplete)
		post.add(func() { e.requestAdvance(gameID) })
		return nil
	})
	if err != nil {
		e.log.WithError(err).WithField("game", gameID).Error("could not complete notification window")
	}
}

// tryAdvanceLocked moves to the next step once the current one's
// requirements are all met. A hand that folds down to one player jumps
// straight to the showdown stage. Returns false at the end of the
// progression or when the hand has unlocked.
func (e *Engine) tryAdvanceLocked(rec *game.Record, post *postCommit) bool {
	if !rec.Locked {
		return false
	}

	stage := rec.CurrentStep.Stage
	step := rec.CurrentStep.Step

	var nextStage game.Stage
	var next int
	if len(rec.NonFoldedPlayers()) <= 1 && stage != game.StageShowdown && stage != game.StageEnd {
		nextStage, next = game.StageShowdown, 0
	} else {
		var ok bool
		nextStage, next, ok = nextStep(stage, step)
		if !ok {
			return false
		}
	}

	stageChanged := nextStage != rec.Stage
	rec.Stage = nextStage
	rec.CurrentStep = game.CurrentStep{
		Stage:     nextStage,
		Step:      next,
		StartedAt: e.clock.Now(),
		Completed: make(map[game.RequirementType]bool),
	}

	if stageChanged {
		gameID := rec.ID
		payload := game.StageEvent{
			Stage:    nextStage,
			PotTotal: rec.Pot,
		}
		post.add(func() {
			e.seq.Enqueue(gameID, Announcement{Event: game.EventStageAdvanced, Payload: payload})
		})
	}

	return true
}
