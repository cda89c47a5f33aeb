package engine

import (
	"context"
	"errors"

	"holdemtable-server/pkg/game"
)

// startTurnLocked arms the action timer for the current player. The timer
// state is persisted with the record so a restarted process can rebuild its
// in-memory timers; the registry callback is only scheduled after commit.
func (e *Engine) startTurnLocked(rec *game.Record, post *postCommit) {
	p := rec.CurrentPlayer()
	if p == nil {
		return
	}

	duration := e.opts.ActionTimeout
	if p.IsAI {
		duration = e.opts.AIActDelay
	}

	rec.ActionTimer = &game.TimerState{
		StartTime:      e.clock.Now(),
		Duration:       duration,
		ActionType:     "player_action",
		TargetPlayerID: p.ID,
	}

	gameID := rec.ID
	payload := game.TimerEvent{
		TargetPlayerID: p.ID,
		DurationMS:     duration.Milliseconds(),
	}
	post.add(func() {
		e.timers.Schedule(actionTimerKey(gameID), duration, func() {
			e.fireActionTimer(gameID)
		})
		e.seq.Enqueue(gameID, Announcement{Event: game.EventTimerStart, Payload: payload})
	})
}

// clearActionTimerLocked clears persisted timer state, and after commit
// cancels the in-memory timer and announces the clear before any action
// notification queued later in the same transaction
func (e *Engine) clearActionTimerLocked(rec *game.Record, post *postCommit) {
	if rec.ActionTimer == nil {
		return
	}

	payload := game.TimerEvent{TargetPlayerID: rec.ActionTimer.TargetPlayerID}
	rec.ActionTimer = nil

	gameID := rec.ID
	post.add(func() {
		e.timers.Cancel(actionTimerKey(gameID))
		e.seq.Enqueue(gameID, Announcement{Event: game.EventTimerClear, Payload: payload})
	})
}

// fireActionTimer runs when the scheduled countdown elapses. The persisted
// record is the source of truth: if the timer was cleared, paused, or
// replaced since scheduling, or hasn't genuinely elapsed, firing is a no-op.
func (e *Engine) fireActionTimer(gameID string) {
	ctx := context.Background()
	err := e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		t := rec.ActionTimer
		if t == nil || t.IsPaused {
			return errTimerStale
		}
		if e.clock.Now().Before(t.Deadline()) {
			return errTimerStale
		}

		p := rec.CurrentPlayer()
		if p == nil || p.ID != t.TargetPlayerID {
			return errTimerStale
		}

		action, amount := e.defaultAction(rec, t)
		return e.applyActionLocked(rec, p.ID, action, amount, post)
	})

	if err != nil && !errors.Is(err, errTimerStale) {
		e.log.WithError(err).WithField("game", gameID).Error("action timer could not act for player")
	}
}

// defaultAction picks what the timer does for an unresponsive player: the
// action they pre-selected if still legal, otherwise check when nothing is
// owed and call when something is
func (e *Engine) defaultAction(rec *game.Record, t *game.TimerState) (game.ActionType, int) {
	_, seat := rec.PlayerByID(t.TargetPlayerID)
	owed := owedBySeat(rec, seat)

	if t.SelectedAction != "" {
		switch t.SelectedAction {
		case game.ActionCheck:
			if owed == 0 {
				return game.ActionCheck, 0
			}
		case game.ActionCall:
			if owed > 0 {
				return game.ActionCall, 0
			}
			return game.ActionCheck, 0
		case game.ActionFold:
			return game.ActionFold, 0
		case game.ActionBet, game.ActionRaise:
			if t.SelectedBetAmount > 0 {
				return t.SelectedAction, t.SelectedBetAmount
			}
		case game.ActionAllIn:
			return game.ActionAllIn, 0
		}
	}

	if owed > 0 {
		return game.ActionCall, 0
	}
	return game.ActionCheck, 0
}

// SelectTimerAction records the action the timer should take for the player
// when it elapses
func (e *Engine) SelectTimerAction(ctx context.Context, gameID, playerID string, action game.ActionType, amount int) error {
	return e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		t := rec.ActionTimer
		if t == nil || t.TargetPlayerID != playerID {
			return newValidationError("no action timer is running for this player")
		}

		t.SelectedAction = action
		t.SelectedBetAmount = amount
		return nil
	})
}

// PauseActionTimer freezes the countdown for the target player, preserving
// the remaining time. Used when the player disconnects.
func (e *Engine) PauseActionTimer(ctx context.Context, gameID, playerID string) error {
	return e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		t := rec.ActionTimer
		if t == nil || t.TargetPlayerID != playerID || t.IsPaused {
			return nil
		}

		remaining := t.Deadline().Sub(e.clock.Now())
		if remaining < 0 {
			remaining = 0
		}
		t.IsPaused = true
		t.Remaining = remaining

		payload := game.TimerEvent{
			TargetPlayerID: playerID,
			RemainingMS:    remaining.Milliseconds(),
		}
		post.add(func() {
			e.timers.Cancel(actionTimerKey(gameID))
			e.seq.Enqueue(gameID, Announcement{Event: game.EventTimerPause, Payload: payload})
		})

		return nil
	})
}

// ResumeActionTimer restarts a paused countdown with the time that was left
func (e *Engine) ResumeActionTimer(ctx context.Context, gameID, playerID string) error {
	return e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		t := rec.ActionTimer
		if t == nil || t.TargetPlayerID != playerID || !t.IsPaused {
			return nil
		}

		remaining := t.Remaining
		t.IsPaused = false
		t.StartTime = e.clock.Now()
		t.Duration = remaining
		t.Remaining = 0

		payload := game.TimerEvent{
			TargetPlayerID: playerID,
			DurationMS:     remaining.Milliseconds(),
		}
		post.add(func() {
			e.timers.Schedule(actionTimerKey(gameID), remaining, func() {
				e.fireActionTimer(gameID)
			})
			e.seq.Enqueue(gameID, Announcement{Event: game.EventTimerResume, Payload: payload})
		})

		return nil
	})
}
