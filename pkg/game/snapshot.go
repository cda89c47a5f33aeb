package game

import (
	"time"

	"holdemtable-server/pkg/deck"
)

// PlayerSnapshot is a player as seen by a specific viewer
type PlayerSnapshot struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	ChipCount int       `json:"chipCount"`
	Folded    bool      `json:"folded"`
	IsAllIn   bool      `json:"isAllIn"`
	IsAway    bool      `json:"isAway,omitempty"`
	Cards     deck.Hand `json:"cards,omitempty"`
	HasCards  bool      `json:"hasCards"`
}

// Snapshot is a read-only projection of the record for the presentation
// layer. Snapshots may be built outside the record lock and can be stale.
type Snapshot struct {
	ID                   string           `json:"id"`
	Players              []PlayerSnapshot `json:"players"`
	CommunityCards       deck.Hand        `json:"communalCards"`
	Pot                  int              `json:"pot"`
	Pots                 []PotInfo        `json:"pots,omitempty"`
	Stage                Stage            `json:"stage"`
	CurrentPlayerIndex   int              `json:"currentPlayerIndex"`
	DealerButtonPosition int              `json:"dealerButtonPosition"`
	PlayerBets           []int            `json:"playerBets"`
	Locked               bool             `json:"locked"`
	ActionTimer          *TimerState      `json:"actionTimer,omitempty"`
	ActionHistory        []Action         `json:"actionHistory"`
	Winner               *WinnerInfo      `json:"winner,omitempty"`
	AsOf                 time.Time        `json:"asOf"`
}

// BuildSnapshot projects the record for the given viewer. Hole cards other
// than the viewer's own stay hidden until showdown, and folded hands are
// never revealed.
func (r *Record) BuildSnapshot(viewerID string, now time.Time) *Snapshot {
	players := make([]PlayerSnapshot, len(r.Players))
	for i, p := range r.Players {
		ps := PlayerSnapshot{
			ID:        p.ID,
			Username:  p.Username,
			ChipCount: p.ChipCount,
			Folded:    p.Folded,
			IsAllIn:   p.IsAllIn,
			IsAway:    p.IsAway,
			HasCards:  len(p.Hand) > 0,
		}

		showdown := (r.Stage == StageShowdown || r.Stage == StageEnd) && r.Winner != nil
		if p.ID == viewerID || (showdown && !p.Folded) {
			ps.Cards = p.Hand.Clone()
		}

		players[i] = ps
	}

	return &Snapshot{
		ID:                   r.ID,
		Players:              players,
		CommunityCards:       r.CommunityCards.Clone(),
		Pot:                  r.Pot,
		Pots:                 r.Pots,
		Stage:                r.Stage,
		CurrentPlayerIndex:   r.CurrentPlayerIndex,
		DealerButtonPosition: r.DealerButtonPosition,
		PlayerBets:           r.PlayerBets,
		Locked:               r.Locked,
		ActionTimer:          r.ActionTimer,
		ActionHistory:        r.ActionHistory,
		Winner:               r.Winner,
		AsOf:                 now,
	}
}
