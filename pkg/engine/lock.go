package engine

import (
	"context"
	"errors"
	"time"

	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/game/store"
)

// Locker implements the cooperative record lock. Acquisition is a single
// conditional update so two callers can never both see the flag clear and
// both set it. A lock whose holder died is considered stale after staleAfter
// and may be taken over.
type Locker struct {
	store      store.Store
	staleAfter time.Duration
	clock      Clock
}

// NewLocker returns a Locker. staleAfter must exceed the longest legitimate
// critical section or healthy locks will be stolen.
func NewLocker(s store.Store, staleAfter time.Duration, clock Clock) *Locker {
	return &Locker{
		store:      s,
		staleAfter: staleAfter,
		clock:      clock,
	}
}

// Acquire marks the record as processing and returns its fresh state. If the
// record is held and not stale, ErrRecordBusy is returned.
func (l *Locker) Acquire(ctx context.Context, id string) (*game.Record, error) {
	now := l.clock.Now()
	rec, err := l.store.ConditionalUpdate(ctx, id,
		func(r *game.Record) bool {
			return !r.Processing || now.Sub(r.ProcessingStartedAt) > l.staleAfter
		},
		func(r *game.Record) {
			r.Processing = true
			r.ProcessingStartedAt = now
		},
	)
	if err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return nil, ErrRecordBusy
		}
		return nil, err
	}

	return rec, nil
}

// Release clears the processing flag regardless of staleness. Safe to call
// after a failed mutation; the caller abandons its in-memory record.
func (l *Locker) Release(ctx context.Context, id string) error {
	_, err := l.store.ConditionalUpdate(ctx, id,
		func(r *game.Record) bool { return true },
		func(r *game.Record) {
			r.Processing = false
			r.ProcessingStartedAt = time.Time{}
		},
	)
	return err
}
