package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/game/balance"
	"holdemtable-server/pkg/game/store"
)

// Notifier delivers events to everyone watching a game. Implementations must
// not block; slow consumers are the transport's problem, not the engine's.
type Notifier interface {
	Emit(gameID, event string, payload interface{})
}

// Options tunes the engine. Zero values fall back to DefaultOptions.
type Options struct {
	SmallBlind int
	BigBlind   int
	BuyIn      int
	MinPlayers int

	// ActionTimeout is how long a player has to act before the timer acts
	// for them
	ActionTimeout time.Duration

	// AIActDelay replaces ActionTimeout when the current player is an AI
	// seat, so AI turns resolve quickly but still go through the timer path
	AIActDelay time.Duration

	// StartDelay is the countdown between the roster becoming viable and
	// the hand locking
	StartDelay time.Duration

	// StaleLockAfter is how old a processing flag must be before another
	// caller may take the record lock over
	StaleLockAfter time.Duration

	RetryAttempts int
	RetryDelay    time.Duration

	// DuplicateWindow is how far back the idempotence guard looks for an
	// identical action
	DuplicateWindow time.Duration

	// DealDisplay paces card-deal announcements, EndDisplay paces the
	// winner announcement before the table resets
	DealDisplay time.Duration
	EndDisplay  time.Duration
}

// DefaultOptions returns the production tuning
func DefaultOptions() Options {
	return Options{
		SmallBlind:      25,
		BigBlind:        50,
		BuyIn:           1000,
		MinPlayers:      2,
		ActionTimeout:   30 * time.Second,
		AIActDelay:      time.Second,
		StartDelay:      10 * time.Second,
		StaleLockAfter:  10 * time.Second,
		RetryAttempts:   5,
		RetryDelay:      150 * time.Millisecond,
		DuplicateWindow: 2 * time.Second,
		DealDisplay:     time.Second,
		EndDisplay:      5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SmallBlind <= 0 {
		o.SmallBlind = d.SmallBlind
	}
	if o.BigBlind <= 0 {
		o.BigBlind = d.BigBlind
	}
	if o.BuyIn <= 0 {
		o.BuyIn = d.BuyIn
	}
	if o.MinPlayers <= 0 {
		o.MinPlayers = d.MinPlayers
	}
	if o.ActionTimeout <= 0 {
		o.ActionTimeout = d.ActionTimeout
	}
	if o.AIActDelay <= 0 {
		o.AIActDelay = d.AIActDelay
	}
	if o.StartDelay <= 0 {
		o.StartDelay = d.StartDelay
	}
	if o.StaleLockAfter <= 0 {
		o.StaleLockAfter = d.StaleLockAfter
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = d.RetryAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.DuplicateWindow <= 0 {
		o.DuplicateWindow = d.DuplicateWindow
	}
	if o.DealDisplay <= 0 {
		o.DealDisplay = d.DealDisplay
	}
	if o.EndDisplay <= 0 {
		o.EndDisplay = d.EndDisplay
	}
	return o
}

// Engine owns every mutation of game records. All hand-mutating entry points
// funnel through withRecord, which serializes them behind the record lock
// and the version check.
type Engine struct {
	store    store.Store
	balances balance.Store
	notifier Notifier
	timers   *TimerRegistry
	seq      *Sequencer
	locker   *Locker
	clock    Clock
	opts     Options
	log      logrus.FieldLogger
}

// New returns an engine ready to serve games
func New(s store.Store, balances balance.Store, notifier Notifier, opts Options, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts = opts.withDefaults()

	clock := Clock(realClock{})
	return &Engine{
		store:    s,
		balances: balances,
		notifier: notifier,
		timers:   NewTimerRegistry(),
		seq:      NewSequencer(notifier),
		locker:   NewLocker(s, opts.StaleLockAfter, clock),
		clock:    clock,
		opts:     opts,
		log:      log,
	}
}

// SetClock swaps the clock. Intended for tests; must be called before the
// engine serves traffic.
func (e *Engine) SetClock(c Clock) {
	e.clock = c
	e.locker.clock = c
}

// Stop cancels all pending timers and queued announcements
func (e *Engine) Stop() {
	e.timers.Stop()
	e.seq.Stop()
}

// postCommit collects side effects that must only run after the mutation has
// committed: notifications, timer scheduling, orchestrator kicks
type postCommit struct {
	fns []func()
}

func (p *postCommit) add(fn func()) {
	p.fns = append(p.fns, fn)
}

func (p *postCommit) run() {
	for _, fn := range p.fns {
		fn()
	}
}

// withRecord is the engine's critical section: acquire the record lock, run
// fn against fresh state, save with the lock released in the same write, and
// only then run the committed side effects. Contention errors retry the
// whole cycle against fresh state.
func (e *Engine) withRecord(ctx context.Context, id string, fn func(rec *game.Record, post *postCommit) error) error {
	return WithRetry(ctx, e.opts.RetryAttempts, e.opts.RetryDelay, func(ctx context.Context) error {
		rec, err := e.locker.Acquire(ctx, id)
		if err != nil {
			return err
		}

		post := &postCommit{}
		if err := fn(rec, post); err != nil {
			if relErr := e.locker.Release(ctx, id); relErr != nil {
				e.log.WithError(relErr).WithField("game", id).Error("could not release record lock")
			}
			return err
		}

		rec.Processing = false
		rec.ProcessingStartedAt = time.Time{}
		if err := e.store.Save(ctx, rec); err != nil {
			// a version conflict means another caller took the lock over; it
			// is no longer ours to release
			if !errors.Is(err, store.ErrVersionConflict) {
				if relErr := e.locker.Release(ctx, id); relErr != nil {
					e.log.WithError(relErr).WithField("game", id).Error("could not release record lock")
				}
			}
			return err
		}

		post.run()
		return nil
	})
}

// CreateGame persists a fresh record in the open-lobby state
func (e *Engine) CreateGame(ctx context.Context, id string) (*game.Record, error) {
	rec := game.NewRecord(id)
	if err := e.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	e.log.WithField("game", id).Info("game created")
	return rec, nil
}

// Game returns the current record
func (e *Engine) Game(ctx context.Context, id string) (*game.Record, error) {
	return e.store.FindByID(ctx, id)
}

// Join seats a player, funding the seat from their persisted balance. A
// viable roster (re)starts the countdown; any countdown already running is
// withdrawn first with a single cancellation.
func (e *Engine) Join(ctx context.Context, gameID, playerID, username string, isAI bool) error {
	chips, err := e.balances.GetOrCreate(ctx, playerID, e.opts.BuyIn)
	if err != nil {
		return fmt.Errorf("load balance: %w", err)
	}

	return e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		if rec.Locked {
			return newValidationError("a hand is in progress; try again between hands")
		}
		if p, _ := rec.PlayerByID(playerID); p != nil {
			p.IsAway = false
			return nil
		}
		if chips <= 0 {
			return newValidationError("no chips remaining; balance must be refilled")
		}

		rec.Players = append(rec.Players, &game.Player{
			ID:        playerID,
			Username:  username,
			ChipCount: chips,
			IsAI:      isAI,
		})
		rec.AppendAction(game.Action{
			ID:       uuid.New().String(),
			PlayerID: playerID,
			Type:     game.ActionJoin,
			Stage:    rec.Stage,
			At:       e.clock.Now(),
		})

		e.scheduleCountdownLocked(rec, post, game.RosterEvent{
			PlayerID:  playerID,
			Username:  username,
			ChipCount: chips,
			Seats:     len(rec.Players),
		}, game.EventPlayerJoined)

		return nil
	})
}

// Leave removes a player between hands, or marks them away and folds them
// mid-hand. Either way any running countdown is withdrawn and restarted if
// the roster is still viable.
func (e *Engine) Leave(ctx context.Context, gameID, playerID string) error {
	return e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		p, seat := rec.PlayerByID(playerID)
		if p == nil {
			return newValidationError("player is not seated at this game")
		}

		if rec.Locked {
			p.IsAway = true
			if !p.Folded {
				e.foldLocked(rec, p, seat, post)
			}
			return nil
		}

		rec.Players = append(rec.Players[:seat], rec.Players[seat+1:]...)
		rec.AppendAction(game.Action{
			ID:       uuid.New().String(),
			PlayerID: playerID,
			Type:     game.ActionLeave,
			Stage:    rec.Stage,
			At:       e.clock.Now(),
		})

		e.scheduleCountdownLocked(rec, post, game.RosterEvent{
			PlayerID: playerID,
			Username: p.Username,
			Seats:    len(rec.Players),
		}, game.EventPlayerLeft)

		return nil
	})
}

// scheduleCountdownLocked handles a roster change: announce it, withdraw any
// running countdown, and start a fresh one if enough players remain
func (e *Engine) scheduleCountdownLocked(rec *game.Record, post *postCommit, payload game.RosterEvent, event string) {
	gameID := rec.ID
	viable := e.armCountdownLocked(rec)

	post.add(func() {
		e.seq.CancelStarting(gameID)
		e.timers.Cancel(startHandKey(gameID))

		e.seq.Enqueue(gameID, Announcement{Event: event, Payload: payload})

		if viable {
			e.enqueueCountdown(gameID, payload.Seats)
		}
	})
}

// armCountdownLocked sets or clears the lock time based on roster viability,
// returning whether a countdown should run
func (e *Engine) armCountdownLocked(rec *game.Record) bool {
	if e.fundedSeats(rec) < e.opts.MinPlayers {
		rec.LockTime = nil
		return false
	}

	lockAt := e.clock.Now().Add(e.opts.StartDelay)
	rec.LockTime = &lockAt
	return true
}

// enqueueCountdown announces a cancellable countdown and schedules the hand
// start behind it. Post-commit only.
func (e *Engine) enqueueCountdown(gameID string, seats int) {
	e.seq.Enqueue(gameID, Announcement{
		Event: game.EventGameStarting,
		Payload: game.StartingEvent{
			StartsInMS: e.opts.StartDelay.Milliseconds(),
			Seats:      seats,
		},
		Duration:    e.opts.StartDelay,
		Cancellable: true,
	})
	e.timers.Schedule(startHandKey(gameID), e.opts.StartDelay, func() {
		if err := e.StartHand(context.Background(), gameID); err != nil && !IsValidation(err) {
			e.log.WithError(err).WithField("game", gameID).Error("could not start hand")
		}
	})
}

func (e *Engine) fundedSeats(rec *game.Record) int {
	count := 0
	for _, p := range rec.Players {
		if p.ChipCount > 0 && !p.IsAway {
			count++
		}
	}
	return count
}

// PlayerAction applies one player action. Duplicate submissions inside the
// idempotence window succeed without re-applying; validation failures reject
// before any mutation.
func (e *Engine) PlayerAction(ctx context.Context, gameID, playerID string, action game.ActionType, amount int) error {
	return e.withRecord(ctx, gameID, func(rec *game.Record, post *postCommit) error {
		guardAmount := amount
		if action == game.ActionCall {
			if _, seat := rec.PlayerByID(playerID); seat >= 0 {
				guardAmount = owedBySeat(rec, seat)
			}
		}
		if rec.IsDuplicateAction(playerID, action, guardAmount, e.opts.DuplicateWindow, e.clock.Now()) {
			return nil
		}

		if err := ValidatePlayerCanAct(rec, playerID); err != nil {
			return err
		}

		return e.applyActionLocked(rec, playerID, action, amount, post)
	})
}

// applyActionLocked mutates the record for one action. Caller holds the
// record lock and has validated turn order.
func (e *Engine) applyActionLocked(rec *game.Record, playerID string, action game.ActionType, amount int, post *postCommit) error {
	p, seat := rec.PlayerByID(playerID)
	if p == nil {
		return newValidationError("player is not seated at this game")
	}

	e.clearActionTimerLocked(rec, post)

	owed := owedBySeat(rec, seat)
	var result BetResult
	var err error

	switch action {
	case game.ActionCheck:
		if owed > 0 {
			return newValidationError(fmt.Sprintf("cannot check; %d owed to call", owed))
		}
	case game.ActionCall:
		if owed == 0 {
			return newValidationError("nothing to call; check instead")
		}
		result, err = ApplyBet(rec, seat, owed)
	case game.ActionBet, game.ActionRaise:
		if amount <= 0 {
			return newValidationError("wager must be positive")
		}
		if betForSeat(rec, seat)+minInt(amount, p.ChipCount) <= highestBet(rec) {
			return newValidationError("wager must exceed the current bet")
		}
		result, err = ApplyBet(rec, seat, amount)
	case game.ActionAllIn:
		result, err = ApplyBet(rec, seat, p.ChipCount)
	case game.ActionFold:
		p.Folded = true
	default:
		return newValidationError(fmt.Sprintf("action %s is not allowed during a hand", action))
	}
	if err != nil {
		return err
	}

	recorded := action
	if result.AllIn {
		recorded = game.ActionAllIn
	}
	rec.AppendAction(game.Action{
		ID:       uuid.New().String(),
		PlayerID: playerID,
		Type:     recorded,
		Amount:   result.Actual,
		Stage:    rec.Stage,
		At:       e.clock.Now(),
	})

	e.resolveAfterActionLocked(rec, post)

	gameID := rec.ID
	payload := game.BetEvent{
		PlayerID:           playerID,
		Amount:             result.Actual,
		PotTotal:           rec.Pot,
		PlayerBets:         append([]int(nil), rec.PlayerBets...),
		CurrentPlayerIndex: rec.CurrentPlayerIndex,
		IsAllIn:            result.AllIn,
	}
	event := actionEvent(recorded)
	post.add(func() {
		e.seq.Enqueue(gameID, Announcement{Event: event, Payload: payload})
	})

	return nil
}

// foldLocked folds a player outside the normal action path (disconnect,
// leave mid-hand). Only an on-turn fold passes the turn along; an out-of-turn
// fold leaves the current player alone and just re-checks round completion.
func (e *Engine) foldLocked(rec *game.Record, p *game.Player, seat int, post *postCommit) {
	wasTurn := rec.CurrentPlayerIndex == seat

	p.Folded = true
	rec.AppendAction(game.Action{
		ID:       uuid.New().String(),
		PlayerID: p.ID,
		Type:     game.ActionFold,
		Stage:    rec.Stage,
		At:       e.clock.Now(),
	})

	if wasTurn {
		e.clearActionTimerLocked(rec, post)
	}

	gameID := rec.ID
	payload := game.BetEvent{
		PlayerID:           p.ID,
		PotTotal:           rec.Pot,
		PlayerBets:         append([]int(nil), rec.PlayerBets...),
		CurrentPlayerIndex: rec.CurrentPlayerIndex,
	}
	post.add(func() {
		e.seq.Enqueue(gameID, Announcement{Event: game.EventPlayerFold, Payload: payload})
	})

	if wasTurn {
		e.resolveAfterActionLocked(rec, post)
	} else {
		e.maybeCompleteRoundLocked(rec, post)
	}
}

// resolveAfterActionLocked decides what happens after the current player
// acts: finish the betting step, or pass the turn and arm a fresh timer
func (e *Engine) resolveAfterActionLocked(rec *game.Record, post *postCommit) {
	if e.maybeCompleteRoundLocked(rec, post) {
		return
	}

	next := NextEligibleIndex(rec, rec.CurrentPlayerIndex)
	if next < 0 {
		e.completeRoundLocked(rec, post)
		return
	}

	rec.CurrentPlayerIndex = next
	e.startTurnLocked(rec, post)
}

// maybeCompleteRoundLocked finishes the betting step if the round resolved,
// returning whether it did
func (e *Engine) maybeCompleteRoundLocked(rec *game.Record, post *postCommit) bool {
	state := BettingRoundState(rec)
	if !state.BettingComplete && len(rec.NonFoldedPlayers()) > 1 {
		return false
	}

	e.completeRoundLocked(rec, post)
	return true
}

func (e *Engine) completeRoundLocked(rec *game.Record, post *postCommit) {
	e.clearActionTimerLocked(rec, post)
	rec.CurrentStep.MarkComplete(game.RequirementAllPlayersActed)
	rec.CurrentPlayerIndex = -1

	gameID := rec.ID
	post.add(func() { e.requestAdvance(gameID) })
}

func actionEvent(t game.ActionType) string {
	switch t {
	case game.ActionCheck:
		return game.EventPlayerCheck
	case game.ActionCall:
		return game.EventPlayerCall
	case game.ActionBet:
		return game.EventPlayerBet
	case game.ActionRaise:
		return game.EventPlayerRaise
	case game.ActionFold:
		return game.EventPlayerFold
	case game.ActionAllIn:
		return game.EventPlayerAllIn
	case game.ActionSmallBlind, game.ActionBigBlind:
		return game.EventBlindPosted
	}
	return game.EventPlayerCheck
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func startHandKey(gameID string) string {
	return "start:" + gameID
}

func actionTimerKey(gameID string) string {
	return "action:" + gameID
}

func stepTimerKey(gameID string) string {
	return "step:" + gameID
}

// logInternal reports an internal-consistency failure. The hand's automatic
// progression halts; chips are never invented to paper over it.
func (e *Engine) logInternal(gameID string, err error) {
	e.log.WithError(err).WithFields(logrus.Fields{
		"game":     gameID,
		"internal": true,
	}).Error("internal consistency failure; halting hand progression")
}

var errTimerStale = errors.New("timer no longer applies")
