package poker

import (
	"errors"
	"sort"

	"holdemtable-server/pkg/deck"
)

// ErrNotEnoughCards is returned when fewer than five cards are provided
var ErrNotEnoughCards = errors.New("need at least five cards to evaluate")

// HandValue is the evaluated value of a best five-card hand
type HandValue struct {
	Rank HandRank
	// Tiebreak is an ordered list of ranks used to break ties within the same
	// hand rank. Comparison is lexicographic.
	Tiebreak []int
	// Cards are the five cards that make up the hand
	Cards deck.Hand
}

// Evaluate returns the best five-card hand from the provided five to seven cards
func Evaluate(cards deck.Hand) (*HandValue, error) {
	if len(cards) < 5 {
		return nil, ErrNotEnoughCards
	}

	var best *HandValue
	forEachFiveCardCombo(cards, func(combo deck.Hand) {
		hv := evaluateFive(combo)
		if best == nil || hv.Compare(best) > 0 {
			best = hv
		}
	})

	return best, nil
}

// Compare returns >0 if v beats o, <0 if o beats v, and 0 on an exact tie
func (v *HandValue) Compare(o *HandValue) int {
	if v.Rank != o.Rank {
		return int(v.Rank) - int(o.Rank)
	}

	for i := range v.Tiebreak {
		if i >= len(o.Tiebreak) {
			break
		}

		if v.Tiebreak[i] != o.Tiebreak[i] {
			return v.Tiebreak[i] - o.Tiebreak[i]
		}
	}

	return 0
}

func (v *HandValue) String() string {
	return v.Rank.String()
}

func forEachFiveCardCombo(cards deck.Hand, fn func(deck.Hand)) {
	n := len(cards)
	if n == 5 {
		fn(cards)
		return
	}

	combo := make(deck.Hand, 5)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == 5 {
			fn(combo)
			return
		}

		for i := start; i <= n-(5-depth); i++ {
			combo[depth] = cards[i]
			walk(i+1, depth+1)
		}
	}

	walk(0, 0)
}

func evaluateFive(combo deck.Hand) *HandValue {
	cards := combo.Clone()
	sort.Slice(cards, func(i, j int) bool {
		return cards[i].Rank > cards[j].Rank
	})

	flush := isFlush(cards)
	straightHigh := straightHighCard(cards)

	if flush && straightHigh > 0 {
		if straightHigh == deck.Ace {
			return &HandValue{Rank: RoyalFlush, Cards: cards}
		}

		return &HandValue{Rank: StraightFlush, Tiebreak: []int{straightHigh}, Cards: cards}
	}

	groups := groupByRank(cards)

	switch {
	case groups[0].count == 4:
		return &HandValue{
			Rank:     FourOfAKind,
			Tiebreak: []int{groups[0].rank, groups[1].rank},
			Cards:    cards,
		}
	case groups[0].count == 3 && groups[1].count == 2:
		return &HandValue{
			Rank:     FullHouse,
			Tiebreak: []int{groups[0].rank, groups[1].rank},
			Cards:    cards,
		}
	case flush:
		return &HandValue{Rank: Flush, Tiebreak: ranksOf(cards), Cards: cards}
	case straightHigh > 0:
		return &HandValue{Rank: Straight, Tiebreak: []int{straightHigh}, Cards: cards}
	case groups[0].count == 3:
		return &HandValue{
			Rank:     ThreeOfAKind,
			Tiebreak: []int{groups[0].rank, groups[1].rank, groups[2].rank},
			Cards:    cards,
		}
	case groups[0].count == 2 && groups[1].count == 2:
		return &HandValue{
			Rank:     TwoPair,
			Tiebreak: []int{groups[0].rank, groups[1].rank, groups[2].rank},
			Cards:    cards,
		}
	case groups[0].count == 2:
		return &HandValue{
			Rank:     OnePair,
			Tiebreak: []int{groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank},
			Cards:    cards,
		}
	}

	return &HandValue{Rank: HighCard, Tiebreak: ranksOf(cards), Cards: cards}
}

func isFlush(cards deck.Hand) bool {
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			return false
		}
	}

	return true
}

// straightHighCard returns the high card of the straight, or 0 if the five
// cards (sorted by rank, descending) are not a straight. A wheel (A-2-3-4-5)
// returns 5.
func straightHighCard(cards deck.Hand) int {
	run := true
	for i := 1; i < len(cards); i++ {
		if cards[i-1].Rank != cards[i].Rank+1 {
			run = false
			break
		}
	}

	if run {
		return cards[0].Rank
	}

	// check for the wheel: with aces high the sort yields A,5,4,3,2
	if cards[0].Rank == deck.Ace &&
		cards[1].Rank == 5 && cards[2].Rank == 4 && cards[3].Rank == 3 && cards[4].Rank == 2 {
		return 5
	}

	return 0
}

type rankGroup struct {
	rank  int
	count int
}

// groupByRank buckets the cards by rank, ordered by count then rank, descending
func groupByRank(cards deck.Hand) []rankGroup {
	counts := make(map[int]int)
	for _, c := range cards {
		counts[c.Rank]++
	}

	groups := make([]rankGroup, 0, len(counts))
	for rank, count := range counts {
		groups = append(groups, rankGroup{rank: rank, count: count})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}

		return groups[i].rank > groups[j].rank
	})

	return groups
}

func ranksOf(cards deck.Hand) []int {
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = c.Rank
	}

	return ranks
}
