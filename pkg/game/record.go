package game

import (
	"time"

	"holdemtable-server/pkg/deck"
)

// Stage is a phase of a hand's lifecycle
type Stage string

// stage constants
const (
	StagePreflop  Stage = "preflop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
	StageEnd      Stage = "end"
)

// RequirementType is a named precondition a step must satisfy before the
// orchestrator may advance past it
type RequirementType string

// requirement constants
const (
	RequirementBlindsPosted         RequirementType = "blinds_posted"
	RequirementCardsDealt           RequirementType = "cards_dealt"
	RequirementNotificationComplete RequirementType = "notification_complete"
	RequirementAllPlayersActed      RequirementType = "all_players_acted"
	RequirementWinnerDetermined     RequirementType = "winner_determined"
	RequirementGameReset            RequirementType = "game_reset"
)

// CurrentStep tracks where in the stage/step graph the hand currently is
type CurrentStep struct {
	Stage     Stage                    `json:"stage"`
	Step      int                      `json:"step"`
	StartedAt time.Time                `json:"startedAt"`
	Completed map[RequirementType]bool `json:"completedRequirements"`

	// Executed is set once the step's action has run, so a crashed or
	// retried orchestrator pass never re-runs a side effect
	Executed bool `json:"executed"`
}

// MarkComplete records that a requirement has been satisfied
func (c *CurrentStep) MarkComplete(r RequirementType) {
	if c.Completed == nil {
		c.Completed = make(map[RequirementType]bool)
	}

	c.Completed[r] = true
}

// IsComplete returns true if the requirement has been satisfied
func (c *CurrentStep) IsComplete(r RequirementType) bool {
	return c.Completed[r]
}

// Player is a seated player. The seat number is the player's index in
// Record.Players and is stable for the lifetime of the record.
type Player struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Hand        deck.Hand `json:"hand"`
	ChipCount   int       `json:"chipCount"`
	Folded      bool      `json:"folded"`
	IsAllIn     bool      `json:"isAllIn"`
	AllInAmount int       `json:"allInAmount,omitempty"`
	IsAI        bool      `json:"isAI,omitempty"`
	IsAway      bool      `json:"isAway,omitempty"`
}

// CanAct returns true if the player may take a betting action this hand
func (p *Player) CanAct() bool {
	return !p.Folded && !p.IsAllIn && p.ChipCount > 0
}

// PotInfo is a single pot after the side-pot split
type PotInfo struct {
	Amount          int            `json:"amount"`
	EligiblePlayers []string       `json:"eligiblePlayers"`
	Contributions   map[string]int `json:"contributions"`
}

// TimerState is the persisted state of the per-seat action countdown
type TimerState struct {
	StartTime         time.Time     `json:"startTime"`
	Duration          time.Duration `json:"duration"`
	ActionType        string        `json:"actionType"`
	TargetPlayerID    string        `json:"targetPlayerId"`
	IsPaused          bool          `json:"isPaused"`
	Remaining         time.Duration `json:"remaining,omitempty"`
	SelectedAction    ActionType    `json:"selectedAction,omitempty"`
	SelectedBetAmount int           `json:"selectedBetAmount,omitempty"`
}

// Deadline returns when the timer elapses
func (t *TimerState) Deadline() time.Time {
	return t.StartTime.Add(t.Duration)
}

// WinnerInfo describes the outcome of a hand
type WinnerInfo struct {
	WinnerID    string   `json:"winnerId"`
	WinnerName  string   `json:"winnerName"`
	HandRank    string   `json:"handRank,omitempty"`
	IsTie       bool     `json:"isTie"`
	TiedPlayers []string `json:"tiedPlayers,omitempty"`
}

// Record is the single shared, mutable, persisted aggregate for one table.
// All hand-mutating code paths must hold the record lock (Processing flag)
// between reading and writing its fields.
type Record struct {
	ID             string     `json:"id"`
	Players        []*Player  `json:"players"`
	Deck           *deck.Deck `json:"deck,omitempty"`
	CommunityCards deck.Hand  `json:"communalCards"`

	// Pot is the flat total of all chips wagered this hand. Pots is only
	// populated at the end of the hand, after the side-pot split.
	Pot  int       `json:"pot"`
	Pots []PotInfo `json:"pots,omitempty"`

	// Contributions is the running cumulative per-player contribution ledger
	// for the whole hand. It feeds the side-pot calculation directly.
	Contributions map[string]int `json:"contributions,omitempty"`

	Stage       Stage       `json:"stage"`
	CurrentStep CurrentStep `json:"currentStep"`

	// CurrentPlayerIndex is the seat whose turn it is, or -1 if no one can act
	CurrentPlayerIndex   int   `json:"currentPlayerIndex"`
	DealerButtonPosition int   `json:"dealerButtonPosition"`
	PlayerBets           []int `json:"playerBets"`

	// Locked is true while a hand is in progress; false means open lobby
	Locked   bool       `json:"locked"`
	LockTime *time.Time `json:"lockTime,omitempty"`

	// Processing is the cooperative record lock flag
	Processing          bool      `json:"processing"`
	ProcessingStartedAt time.Time `json:"processingStartedAt,omitempty"`

	ActionTimer *TimerState `json:"actionTimer,omitempty"`

	ActionHistory []Action `json:"actionHistory"`

	Winner *WinnerInfo `json:"winner,omitempty"`

	// Version is the monotonic counter used for compare-and-swap writes
	Version int64 `json:"version"`
}

// NewRecord returns a fresh record in the open-lobby state
func NewRecord(id string) *Record {
	return &Record{
		ID:                 id,
		Players:            make([]*Player, 0),
		Contributions:      make(map[string]int),
		CurrentPlayerIndex: -1,
		Stage:              StageEnd,
	}
}

// PlayerByID returns the player and their seat index, or nil and -1
func (r *Record) PlayerByID(id string) (*Player, int) {
	for i, p := range r.Players {
		if p.ID == id {
			return p, i
		}
	}

	return nil, -1
}

// CurrentPlayer returns the player whose turn it is, or nil
func (r *Record) CurrentPlayer() *Player {
	if r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(r.Players) {
		return nil
	}

	return r.Players[r.CurrentPlayerIndex]
}

// NonFoldedPlayers returns players still in the hand
func (r *Record) NonFoldedPlayers() []*Player {
	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Folded {
			players = append(players, p)
		}
	}

	return players
}

// CanActCount returns the number of seated players who may still take a
// betting action
func (r *Record) CanActCount() int {
	count := 0
	for _, p := range r.Players {
		if p.CanAct() {
			count++
		}
	}

	return count
}

// TotalChips returns all chips in the record: player stacks, the flat pot,
// and any split pots. Chip conservation means this value only changes when
// players join or leave.
func (r *Record) TotalChips() int {
	total := r.Pot
	for _, p := range r.Players {
		total += p.ChipCount
	}

	for _, pot := range r.Pots {
		total += pot.Amount
	}

	return total
}

// AppendAction appends to the audit history. The append order is the source
// of truth for action ordering.
func (r *Record) AppendAction(a Action) {
	r.ActionHistory = append(r.ActionHistory, a)
}

// ResetForNextHand clears hand-scoped state, keeps chip counts, and advances
// the dealer button by one seat
func (r *Record) ResetForNextHand() {
	for _, p := range r.Players {
		p.Hand = nil
		p.Folded = false
		p.IsAllIn = false
		p.AllInAmount = 0
	}

	r.Deck = nil
	r.CommunityCards = nil
	r.Pot = 0
	r.Pots = nil
	r.Contributions = make(map[string]int)
	r.PlayerBets = nil
	r.CurrentPlayerIndex = -1
	r.ActionTimer = nil
	r.ActionHistory = nil
	r.Winner = nil
	r.Locked = false
	r.LockTime = nil
	r.Stage = StageEnd
	r.CurrentStep = CurrentStep{Stage: StageEnd}

	if n := len(r.Players); n > 0 {
		r.DealerButtonPosition = (r.DealerButtonPosition + 1) % n
	}
}
