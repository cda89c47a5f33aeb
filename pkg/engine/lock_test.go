package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/game/balance"
	"holdemtable-server/pkg/game/store"
	"holdemtable-server/pkg/game/store/memory"
)

func TestLocker_Acquire(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	st := memory.New()
	clock := newFakeClock()
	require.NoError(t, st.Save(ctx, game.NewRecord("g1")))

	locker := NewLocker(st, 10*time.Second, clock)

	rec, err := locker.Acquire(ctx, "g1")
	a.NoError(err)
	a.True(rec.Processing)

	_, err = locker.Acquire(ctx, "g1")
	a.Equal(ErrRecordBusy, err)

	a.NoError(locker.Release(ctx, "g1"))

	rec, err = locker.Acquire(ctx, "g1")
	a.NoError(err)
	a.True(rec.Processing)
}

func TestLocker_StaleTakeover(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	st := memory.New()
	clock := newFakeClock()
	require.NoError(t, st.Save(ctx, game.NewRecord("g1")))

	locker := NewLocker(st, 10*time.Second, clock)

	_, err := locker.Acquire(ctx, "g1")
	require.NoError(t, err)

	// a healthy lock holds
	clock.Advance(10 * time.Second)
	_, err = locker.Acquire(ctx, "g1")
	a.Equal(ErrRecordBusy, err)

	// past the staleness threshold another caller may take over
	clock.Advance(time.Second)
	rec, err := locker.Acquire(ctx, "g1")
	a.NoError(err)
	a.True(rec.Processing)
	a.Equal(clock.Now(), rec.ProcessingStartedAt)
}

func TestLocker_AcquireMissingRecord(t *testing.T) {
	a := assert.New(t)

	locker := NewLocker(memory.New(), 10*time.Second, newFakeClock())
	_, err := locker.Acquire(context.Background(), "nope")
	a.Error(err)
	a.NotEqual(ErrRecordBusy, err)
}

// failingSaveStore fails a set number of Save calls. Lock acquisition and
// release go through ConditionalUpdate and are unaffected.
type failingSaveStore struct {
	store.Store

	mu       sync.Mutex
	failures int
}

func (s *failingSaveStore) Save(ctx context.Context, rec *game.Record) error {
	s.mu.Lock()
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()

	if fail {
		return errors.New("storage unavailable")
	}
	return s.Store.Save(ctx, rec)
}

func TestEngine_LockReleasedWhenSaveFails(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	st := &failingSaveStore{Store: memory.New()}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	eng := New(st, balance.NewMemoryStore(), &recordingNotifier{}, Options{}, log)
	defer eng.Stop()

	_, err := eng.CreateGame(ctx, "g1")
	require.NoError(t, err)

	st.mu.Lock()
	st.failures = 1
	st.mu.Unlock()

	a.Error(eng.Join(ctx, "g1", "alice", "alice", false))

	// the failed commit must not leave the record held until the staleness
	// takeover
	rec, err := st.FindByID(ctx, "g1")
	require.NoError(t, err)
	a.False(rec.Processing)
	a.True(rec.ProcessingStartedAt.IsZero())

	// and the next caller gets in immediately
	a.NoError(eng.Join(ctx, "g1", "alice", "alice", false))
}
