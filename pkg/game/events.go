package game

// Event names broadcast to all viewers of a game. Payloads carry the minimal
// fields a client needs to update optimistically without a full snapshot.
const (
	EventPlayerJoined         = "player_joined"
	EventPlayerLeft           = "player_left"
	EventGameStarting         = "game_starting"
	EventGameStartingCanceled = "game_starting_cancelled"
	EventBlindPosted          = "blind_posted"
	EventCardsDealt           = "cards_dealt"
	EventPlayerBet            = "player_bet"
	EventPlayerRaise          = "player_raise"
	EventPlayerCall           = "player_call"
	EventPlayerCheck          = "player_check"
	EventPlayerFold           = "player_fold"
	EventPlayerAllIn          = "player_all_in"
	EventStageAdvanced        = "stage_advanced"
	EventWinnerDetermined     = "winner_determined"
	EventGameTied             = "game_tied"
	EventTimerStart           = "timer_start"
	EventTimerPause           = "timer_pause"
	EventTimerResume          = "timer_resume"
	EventTimerClear           = "timer_clear"
	EventGameReset            = "game_reset"
)

// BetEvent is the payload for the player action events
type BetEvent struct {
	PlayerID           string `json:"playerId"`
	Amount             int    `json:"amount,omitempty"`
	PotTotal           int    `json:"potTotal"`
	PlayerBets         []int  `json:"playerBets"`
	CurrentPlayerIndex int    `json:"currentPlayerIndex"`
	IsAllIn            bool   `json:"isAllIn,omitempty"`
}

// StageEvent is the payload for stage_advanced and cards_dealt
type StageEvent struct {
	Stage          Stage  `json:"stage"`
	CommunityCards string `json:"communityCards,omitempty"`
	PotTotal       int    `json:"potTotal"`
}

// TimerEvent is the payload for the timer lifecycle events
type TimerEvent struct {
	TargetPlayerID string `json:"targetPlayerId"`
	DurationMS     int64  `json:"durationMs,omitempty"`
	RemainingMS    int64  `json:"remainingMs,omitempty"`
}

// RosterEvent is the payload for player_joined and player_left
type RosterEvent struct {
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	ChipCount int    `json:"chipCount"`
	Seats     int    `json:"seats"`
}

// StartingEvent is the payload for game_starting
type StartingEvent struct {
	StartsInMS int64 `json:"startsInMs"`
	Seats      int   `json:"seats"`
}
