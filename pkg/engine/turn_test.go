package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"holdemtable-server/pkg/game"
)

func newBettingRecord(stacks ...int) *game.Record {
	rec := game.NewRecord("g1")
	rec.Locked = true
	rec.Stage = game.StagePreflop
	for i, chips := range stacks {
		rec.Players = append(rec.Players, &game.Player{
			ID:        string(rune('a' + i)),
			Username:  string(rune('a' + i)),
			ChipCount: chips,
		})
	}
	rec.PlayerBets = make([]int, len(stacks))
	return rec
}

func voluntaryAction(rec *game.Record, playerID string, t game.ActionType) {
	rec.AppendAction(game.Action{
		PlayerID: playerID,
		Type:     t,
		Stage:    rec.Stage,
		At:       time.Now(),
	})
}

func TestValidatePlayerCanAct(t *testing.T) {
	a := assert.New(t)

	rec := newBettingRecord(1000, 1000, 1000)
	rec.CurrentPlayerIndex = 0

	a.NoError(ValidatePlayerCanAct(rec, "a"))

	err := ValidatePlayerCanAct(rec, "b")
	a.True(IsValidation(err))
	a.Contains(err.Error(), "not your turn")

	a.Error(ValidatePlayerCanAct(rec, "zz"))

	// every violation is reported, not just the first
	rec.Players[1].Folded = true
	verr := ValidatePlayerCanAct(rec, "b").(*ValidationError)
	a.Len(verr.Reasons, 2)

	rec.Locked = false
	verr = ValidatePlayerCanAct(rec, "b").(*ValidationError)
	a.Len(verr.Reasons, 3)
}

func TestBettingRoundState(t *testing.T) {
	a := assert.New(t)

	rec := newBettingRecord(1000, 1000, 1000)

	// nobody has acted
	state := BettingRoundState(rec)
	a.False(state.BettingComplete)

	// everyone checked around
	for _, p := range rec.Players {
		voluntaryAction(rec, p.ID, game.ActionCheck)
	}
	state = BettingRoundState(rec)
	a.True(state.BettingComplete)
	a.Len(state.Acted, 3)

	// a raise reopens the round through the wager mismatch
	rec.PlayerBets[0] = 100
	voluntaryAction(rec, "a", game.ActionRaise)
	state = BettingRoundState(rec)
	a.False(state.BettingComplete)

	// matching the raise closes it again
	rec.PlayerBets[1] = 100
	rec.PlayerBets[2] = 100
	state = BettingRoundState(rec)
	a.True(state.BettingComplete)
}

func TestBettingRoundState_StageScoped(t *testing.T) {
	a := assert.New(t)

	rec := newBettingRecord(1000, 1000)
	for _, p := range rec.Players {
		voluntaryAction(rec, p.ID, game.ActionCheck)
	}
	a.True(BettingRoundState(rec).BettingComplete)

	// a new street starts fresh
	rec.Stage = game.StageFlop
	a.False(BettingRoundState(rec).BettingComplete)
}

func TestBettingRoundState_AllInShortfall(t *testing.T) {
	a := assert.New(t)

	// b shoved for more than a has matched; a has acted but still owes
	rec := newBettingRecord(1000, 0)
	rec.Players[1].IsAllIn = true
	rec.PlayerBets = []int{100, 300}
	voluntaryAction(rec, "a", game.ActionBet)
	voluntaryAction(rec, "b", game.ActionAllIn)

	a.False(BettingRoundState(rec).BettingComplete)

	// calling the shove completes the round
	rec.PlayerBets[0] = 300
	a.True(BettingRoundState(rec).BettingComplete)
}

func TestBettingRoundState_NobodyCanAct(t *testing.T) {
	a := assert.New(t)

	rec := newBettingRecord(0, 0)
	rec.Players[0].IsAllIn = true
	rec.Players[1].IsAllIn = true

	a.True(BettingRoundState(rec).BettingComplete)
}

func TestNextEligibleIndex(t *testing.T) {
	a := assert.New(t)

	rec := newBettingRecord(1000, 1000, 1000, 1000)
	a.Equal(1, NextEligibleIndex(rec, 0))
	a.Equal(0, NextEligibleIndex(rec, 3))

	rec.Players[1].Folded = true
	rec.Players[2].IsAllIn = true
	a.Equal(3, NextEligibleIndex(rec, 0))

	rec.Players[3].Folded = true
	rec.Players[0].Folded = true
	a.Equal(-1, NextEligibleIndex(rec, 0))
}

func TestFirstToActIndex(t *testing.T) {
	a := assert.New(t)

	t.Run("heads-up preflop is the button", func(t *testing.T) {
		rec := newBettingRecord(1000, 1000)
		rec.DealerButtonPosition = 1
		a.Equal(1, FirstToActIndex(rec))
	})

	t.Run("three-handed preflop is after the big blind", func(t *testing.T) {
		rec := newBettingRecord(1000, 1000, 1000)
		rec.DealerButtonPosition = 0
		a.Equal(0, FirstToActIndex(rec))
	})

	t.Run("busted seat between button and blinds", func(t *testing.T) {
		// seat 1 busted before the deal: blinds shift to 2 and 3, and the
		// button opens the action rather than the big blind
		rec := newBettingRecord(1000, 0, 1000, 1000)
		rec.Players[1].Folded = true
		rec.DealerButtonPosition = 0

		a.Equal(2, smallBlindSeat(rec))
		a.Equal(3, bigBlindSeat(rec))
		a.Equal(0, FirstToActIndex(rec))
	})

	t.Run("postflop is after the button", func(t *testing.T) {
		rec := newBettingRecord(1000, 1000, 1000)
		rec.DealerButtonPosition = 0
		rec.Stage = game.StageFlop
		a.Equal(1, FirstToActIndex(rec))

		rec.Players[1].Folded = true
		a.Equal(2, FirstToActIndex(rec))
	})
}

func TestBlindSeats(t *testing.T) {
	a := assert.New(t)

	t.Run("heads-up button posts the small blind", func(t *testing.T) {
		rec := newBettingRecord(1000, 1000)
		rec.DealerButtonPosition = 0
		a.Equal(0, smallBlindSeat(rec))
		a.Equal(1, bigBlindSeat(rec))
	})

	t.Run("three-handed blinds follow the button", func(t *testing.T) {
		rec := newBettingRecord(1000, 1000, 1000)
		rec.DealerButtonPosition = 2
		a.Equal(0, smallBlindSeat(rec))
		a.Equal(1, bigBlindSeat(rec))
	})
}

func TestOwedBySeat(t *testing.T) {
	a := assert.New(t)

	rec := newBettingRecord(1000, 1000, 1000)
	rec.PlayerBets = []int{25, 50, 0}

	a.Equal(25, owedBySeat(rec, 0))
	a.Equal(0, owedBySeat(rec, 1))
	a.Equal(50, owedBySeat(rec, 2))
}
