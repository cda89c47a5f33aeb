package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/game/balance"
	"holdemtable-server/pkg/game/store/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type emitted struct {
	GameID  string
	Event   string
	Payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []emitted
}

func (n *recordingNotifier) Emit(gameID, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, emitted{GameID: gameID, Event: event, Payload: payload})
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	names := make([]string, len(n.events))
	for i, e := range n.events {
		names[i] = e.Event
	}
	return names
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, e := range n.events {
		if e.Event == event {
			count++
		}
	}
	return count
}

type testEnv struct {
	engine   *Engine
	store    *memory.Storage
	notifier *recordingNotifier
	balances *balance.MemoryStore
}

// newTestEnv wires an engine against in-memory storage with display windows
// shrunk so hands progress quickly, and player timeouts stretched so the
// timer never acts unless a test wants it to
func newTestEnv(opts Options) *testEnv {
	st := memory.New()
	notifier := &recordingNotifier{}
	balances := balance.NewMemoryStore()

	if opts.ActionTimeout == 0 {
		opts.ActionTimeout = time.Hour
	}
	if opts.AIActDelay == 0 {
		opts.AIActDelay = time.Hour
	}
	if opts.StartDelay == 0 {
		opts.StartDelay = time.Hour
	}
	if opts.DealDisplay == 0 {
		opts.DealDisplay = 5 * time.Millisecond
	}
	if opts.EndDisplay == 0 {
		opts.EndDisplay = 5 * time.Millisecond
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 5 * time.Millisecond
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	eng := New(st, balances, notifier, opts, log)
	return &testEnv{
		engine:   eng,
		store:    st,
		notifier: notifier,
		balances: balances,
	}
}

func (env *testEnv) record(id string) *game.Record {
	rec, err := env.store.FindByID(context.Background(), id)
	if err != nil {
		return nil
	}
	return rec
}

func (env *testEnv) stackTotal(id string) int {
	rec := env.record(id)
	if rec == nil {
		return -1
	}
	return rec.TotalChips()
}
