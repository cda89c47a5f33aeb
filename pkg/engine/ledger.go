package engine

import (
	"fmt"
	"sort"

	"holdemtable-server/pkg/deck"
	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/poker"
)

// BetResult reports what a bet transaction actually did
type BetResult struct {
	// Actual is the number of chips moved, after clamping to the stack
	Actual int

	// AllIn is true when the wager consumed the player's entire stack
	AllIn bool
}

// ApplyBet moves chips from the seat's stack into the pot. The wager is
// clamped to the stack; a wager that consumes the stack marks the player
// all-in. Stack, running pot, per-street wager, and the hand's cumulative
// contribution ledger all update in the same transaction so chip totals
// stay balanced.
func ApplyBet(rec *game.Record, seat, requested int) (BetResult, error) {
	if err := seatOutOfRange(rec, seat); err != nil {
		return BetResult{}, err
	}
	if requested < 0 {
		return BetResult{}, fmt.Errorf("negative wager: %d", requested)
	}

	ensureBets(rec)
	p := rec.Players[seat]

	actual := requested
	if actual > p.ChipCount {
		actual = p.ChipCount
	}

	p.ChipCount -= actual
	rec.Pot += actual
	rec.PlayerBets[seat] += actual
	if rec.Contributions == nil {
		rec.Contributions = make(map[string]int)
	}
	rec.Contributions[p.ID] += actual

	res := BetResult{Actual: actual}
	if p.ChipCount == 0 && actual > 0 {
		p.IsAllIn = true
		p.AllInAmount = rec.Contributions[p.ID]
		res.AllIn = true
	}

	return res, nil
}

// BuildPots splits the hand's cumulative contributions into a main pot and
// side pots. Each all-in contribution level caps a pot; chips above the
// highest cap form a final pot. Folded players contribute to pot amounts but
// are never eligible to win them. The flat pot is zeroed as its chips move
// into the structured pots.
func BuildPots(rec *game.Record) []game.PotInfo {
	levels := allInLevels(rec)
	maxContrib := 0
	for _, c := range rec.Contributions {
		if c > maxContrib {
			maxContrib = c
		}
	}
	if maxContrib == 0 {
		rec.Pots = nil
		return nil
	}
	if len(levels) == 0 || levels[len(levels)-1] < maxContrib {
		levels = append(levels, maxContrib)
	}

	var pots []game.PotInfo
	prev := 0
	for _, level := range levels {
		pot := game.PotInfo{
			Contributions: make(map[string]int),
		}
		for _, p := range rec.Players {
			contrib := rec.Contributions[p.ID]
			if contrib <= prev {
				continue
			}

			capped := contrib
			if capped > level {
				capped = level
			}
			slice := capped - prev
			pot.Amount += slice
			pot.Contributions[p.ID] = slice

			if !p.Folded && contrib >= level {
				pot.EligiblePlayers = append(pot.EligiblePlayers, p.ID)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}

	rec.Pots = pots
	rec.Pot = 0
	return pots
}

// AwardPots determines the winners of every pot and transfers the chips to
// their stacks. When only one player remains unfolded they take everything
// without showdown. Ties split a pot evenly with the remainder going to the
// earliest tied seat. Returns ErrChipConservation if chip totals change.
func AwardPots(rec *game.Record) (*game.WinnerInfo, error) {
	before := rec.TotalChips()

	remaining := rec.NonFoldedPlayers()
	if len(remaining) == 0 {
		return nil, fmt.Errorf("no players remain to award")
	}

	if len(rec.Pots) == 0 {
		BuildPots(rec)
	}

	var info *game.WinnerInfo
	if len(remaining) == 1 {
		winner := remaining[0]
		for i := range rec.Pots {
			winner.ChipCount += rec.Pots[i].Amount
			rec.Pots[i].Amount = 0
		}
		info = &game.WinnerInfo{
			WinnerID:   winner.ID,
			WinnerName: winner.Username,
		}
	} else {
		values, err := evaluateShowdown(rec)
		if err != nil {
			return nil, err
		}

		for i := range rec.Pots {
			winners := potWinners(rec, &rec.Pots[i], values)
			if len(winners) == 0 {
				continue
			}

			share := rec.Pots[i].Amount / len(winners)
			remainder := rec.Pots[i].Amount % len(winners)
			for j, seat := range winners {
				rec.Players[seat].ChipCount += share
				if j == 0 {
					rec.Players[seat].ChipCount += remainder
				}
			}
			rec.Pots[i].Amount = 0

			if i == 0 {
				info = mainPotWinnerInfo(rec, winners, values)
			}
		}
	}

	after := rec.TotalChips()
	if after != before {
		return nil, fmt.Errorf("%w: had %d, have %d", ErrChipConservation, before, after)
	}

	rec.Winner = info
	return info, nil
}

// evaluateShowdown evaluates every non-folded player's best hand from hole
// cards plus community cards
func evaluateShowdown(rec *game.Record) (map[string]*poker.HandValue, error) {
	values := make(map[string]*poker.HandValue)
	for _, p := range rec.Players {
		if p.Folded {
			continue
		}

		cards := make(deck.Hand, 0, len(p.Hand)+len(rec.CommunityCards))
		cards = append(cards, p.Hand...)
		cards = append(cards, rec.CommunityCards...)
		hv, err := poker.Evaluate(cards)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", p.ID, err)
		}
		values[p.ID] = hv
	}
	return values, nil
}

// potWinners returns the seats of the best eligible hands for one pot,
// ordered by seat
func potWinners(rec *game.Record, pot *game.PotInfo, values map[string]*poker.HandValue) []int {
	var best *poker.HandValue
	var winners []int
	for _, id := range pot.EligiblePlayers {
		hv, ok := values[id]
		if !ok {
			continue
		}
		_, seat := rec.PlayerByID(id)
		if seat < 0 {
			continue
		}

		if best == nil || hv.Compare(best) > 0 {
			best = hv
			winners = []int{seat}
		} else if hv.Compare(best) == 0 {
			winners = append(winners, seat)
		}
	}

	sort.Ints(winners)
	return winners
}

func mainPotWinnerInfo(rec *game.Record, winners []int, values map[string]*poker.HandValue) *game.WinnerInfo {
	first := rec.Players[winners[0]]
	info := &game.WinnerInfo{
		WinnerID:   first.ID,
		WinnerName: first.Username,
	}
	if hv, ok := values[first.ID]; ok {
		info.HandRank = hv.Rank.String()
	}
	if len(winners) > 1 {
		info.IsTie = true
		for _, seat := range winners {
			info.TiedPlayers = append(info.TiedPlayers, rec.Players[seat].ID)
		}
	}
	return info
}

// allInLevels returns the distinct cumulative contributions of all-in
// players, ascending
func allInLevels(rec *game.Record) []int {
	seen := make(map[int]bool)
	var levels []int
	for _, p := range rec.Players {
		if !p.IsAllIn {
			continue
		}
		c := rec.Contributions[p.ID]
		if c > 0 && !seen[c] {
			seen[c] = true
			levels = append(levels, c)
		}
	}
	sort.Ints(levels)
	return levels
}
