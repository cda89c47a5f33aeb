package game

import (
	"fmt"
	"time"
)

// ActionType identifies a player or system action recorded in the history
type ActionType string

// action constants
const (
	ActionJoin       ActionType = "join"
	ActionLeave      ActionType = "leave"
	ActionSmallBlind ActionType = "small_blind"
	ActionBigBlind   ActionType = "big_blind"
	ActionCheck      ActionType = "check"
	ActionCall       ActionType = "call"
	ActionBet        ActionType = "bet"
	ActionRaise      ActionType = "raise"
	ActionFold       ActionType = "fold"
	ActionAllIn      ActionType = "all_in"
)

var allowedActions = map[ActionType]bool{
	ActionJoin:       true,
	ActionLeave:      true,
	ActionSmallBlind: true,
	ActionBigBlind:   true,
	ActionCheck:      true,
	ActionCall:       true,
	ActionBet:        true,
	ActionRaise:      true,
	ActionFold:       true,
	ActionAllIn:      true,
}

// ActionTypeFromString returns an action type for the given string
func ActionTypeFromString(s string) (ActionType, error) {
	if allowedActions[ActionType(s)] {
		return ActionType(s), nil
	}

	return "", fmt.Errorf("unknown action for identifier: %s", s)
}

// IsVoluntary returns true for actions a player chose to make this betting
// round. Blinds are forced and join/leave are lobby actions; none of them
// count toward round completion.
func (a ActionType) IsVoluntary() bool {
	switch a {
	case ActionCheck, ActionCall, ActionBet, ActionRaise, ActionFold, ActionAllIn:
		return true
	}

	return false
}

// Action is a single entry in the record's append-only history
type Action struct {
	ID       string     `json:"id"`
	PlayerID string     `json:"playerId"`
	Type     ActionType `json:"type"`
	Amount   int        `json:"amount,omitempty"`
	Stage    Stage      `json:"stage"`
	At       time.Time  `json:"at"`
}

// IsDuplicateAction reports whether an equivalent action by the same player
// was already recorded this stage within the window. This is the idempotence
// guard against the retry path re-applying a mutation that already
// committed. Bets and raises must match the recorded amount. For a call the
// caller passes what the player still owes: zero means the recorded call
// already levelled them and the submission is a retry, while a positive
// amount means a raise re-opened the betting and the call is fresh. A
// clamped wager is recorded as all-in and absorbs any retried form of the
// same submission.
func (r *Record) IsDuplicateAction(playerID string, t ActionType, amount int, window time.Duration, now time.Time) bool {
	for i := len(r.ActionHistory) - 1; i >= 0; i-- {
		a := r.ActionHistory[i]
		if now.Sub(a.At) > window {
			return false
		}

		if a.PlayerID != playerID || a.Stage != r.Stage {
			continue
		}

		match := a.Type == t
		if !match && a.Type == ActionAllIn {
			switch t {
			case ActionCall, ActionBet, ActionRaise:
				match = true
			}
		}
		if !match {
			continue
		}

		if a.Type != ActionAllIn {
			switch t {
			case ActionBet, ActionRaise:
				if a.Amount != amount {
					continue
				}
			case ActionCall:
				if amount != 0 {
					continue
				}
			}
		}

		return true
	}

	return false
}
