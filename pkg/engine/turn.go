package engine

import (
	"fmt"

	"holdemtable-server/pkg/game"
)

// RoundState summarizes the betting round in progress
type RoundState struct {
	// Acted contains the IDs of players who made a voluntary action this
	// stage. Blinds and joins do not count.
	Acted map[string]bool

	// BettingComplete is true when every player who can act has acted and
	// all of them have matched the highest wager, or when nobody can act
	// at all.
	BettingComplete bool
}

// ValidatePlayerCanAct checks every condition required for the player to act
// right now and reports all violations together.
func ValidatePlayerCanAct(rec *game.Record, playerID string) error {
	var reasons []string

	if !rec.Locked {
		reasons = append(reasons, "no hand is in progress")
	}

	p, seat := rec.PlayerByID(playerID)
	if p == nil {
		reasons = append(reasons, "player is not seated at this game")
		return newValidationError(reasons...)
	}

	if seat != rec.CurrentPlayerIndex {
		reasons = append(reasons, "it is not your turn")
	}

	if p.Folded {
		reasons = append(reasons, "you have folded")
	}

	if p.IsAllIn {
		reasons = append(reasons, "you are all-in")
	}

	if !p.IsAllIn && p.ChipCount <= 0 {
		reasons = append(reasons, "you have no chips")
	}

	if len(reasons) > 0 {
		return newValidationError(reasons...)
	}

	return nil
}

// BettingRoundState derives the round state from the action history and the
// per-street wagers. It never mutates the record so it can be recomputed
// safely after every action.
func BettingRoundState(rec *game.Record) RoundState {
	state := RoundState{
		Acted: make(map[string]bool),
	}

	for _, a := range rec.ActionHistory {
		if a.Stage == rec.Stage && a.Type.IsVoluntary() {
			state.Acted[a.PlayerID] = true
		}
	}

	high := highestBet(rec)
	canAct := 0
	complete := true
	for seat, p := range rec.Players {
		if !p.CanAct() {
			continue
		}
		canAct++
		if !state.Acted[p.ID] {
			complete = false
		}
		if betForSeat(rec, seat) != high {
			complete = false
		}
	}

	if canAct == 0 {
		complete = true
	}

	state.BettingComplete = complete
	return state
}

// NextEligibleIndex returns the first seat after from that can still act,
// wrapping around at most once. Returns -1 when nobody is eligible.
func NextEligibleIndex(rec *game.Record, from int) int {
	n := len(rec.Players)
	if n == 0 {
		return -1
	}

	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		if rec.Players[seat].CanAct() {
			return seat
		}
	}

	return -1
}

// FirstToActIndex returns the seat that opens the betting for the current
// stage. Pre-flop action starts after the big blind (on the button when
// heads-up); post-flop action starts after the button.
func FirstToActIndex(rec *game.Record) int {
	n := len(rec.Players)
	if n == 0 {
		return -1
	}

	button := rec.DealerButtonPosition % n
	if rec.Stage == game.StagePreflop {
		if dealtPlayerCount(rec) == 2 {
			return firstEligibleFrom(rec, button)
		}
		bb := bigBlindSeat(rec)
		if bb < 0 {
			return -1
		}
		return NextEligibleIndex(rec, bb)
	}

	return firstEligibleFrom(rec, button+1)
}

// smallBlindSeat returns the seat that owes the small blind. Heads-up the
// button posts it.
func smallBlindSeat(rec *game.Record) int {
	button := rec.DealerButtonPosition % len(rec.Players)
	if dealtPlayerCount(rec) == 2 {
		return firstEligibleFrom(rec, button)
	}
	return firstEligibleFrom(rec, button+1)
}

// bigBlindSeat returns the seat that owes the big blind
func bigBlindSeat(rec *game.Record) int {
	sb := smallBlindSeat(rec)
	if sb < 0 {
		return -1
	}
	return NextEligibleIndex(rec, sb)
}

// firstEligibleFrom returns the first seat at or after start that can act,
// wrapping at most once
func firstEligibleFrom(rec *game.Record, start int) int {
	n := len(rec.Players)
	if n == 0 {
		return -1
	}

	for i := 0; i < n; i++ {
		seat := (start + i) % n
		if rec.Players[seat].CanAct() {
			return seat
		}
	}

	return -1
}

// dealtPlayerCount counts players participating in the current hand. Players
// who busted before the deal are folded at hand start and do not change the
// blind structure.
func dealtPlayerCount(rec *game.Record) int {
	count := 0
	for _, p := range rec.Players {
		if !p.Folded || len(p.Hand) > 0 {
			count++
		}
	}
	return count
}

// highestBet returns the largest per-street wager among non-folded players
func highestBet(rec *game.Record) int {
	high := 0
	for seat, p := range rec.Players {
		if p.Folded {
			continue
		}
		if b := betForSeat(rec, seat); b > high {
			high = b
		}
	}
	return high
}

// owedBySeat returns how many chips the seat must add to match the highest
// wager this street
func owedBySeat(rec *game.Record, seat int) int {
	owed := highestBet(rec) - betForSeat(rec, seat)
	if owed < 0 {
		return 0
	}
	return owed
}

func betForSeat(rec *game.Record, seat int) int {
	if seat < 0 || seat >= len(rec.PlayerBets) {
		return 0
	}
	return rec.PlayerBets[seat]
}

// ensureBets sizes the per-street wager slice to the current roster
func ensureBets(rec *game.Record) {
	if len(rec.PlayerBets) != len(rec.Players) {
		bets := make([]int, len(rec.Players))
		copy(bets, rec.PlayerBets)
		rec.PlayerBets = bets
	}
}

func seatOutOfRange(rec *game.Record, seat int) error {
	if seat < 0 || seat >= len(rec.Players) {
		return fmt.Errorf("seat %d out of range", seat)
	}
	return nil
}
