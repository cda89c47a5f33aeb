package engine

import (
	"sync"
	"time"
)

// TimerRegistry tracks in-flight timers by key so they can be cancelled when
// the thing they guard resolves early. Scheduling a key that already has a
// timer replaces it. The registry never fires a callback for a cancelled
// key, but a fired callback must still re-verify persisted state since the
// record may have changed between scheduling and firing.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{
		timers: make(map[string]*time.Timer),
	}
}

// Schedule runs fn after delay, replacing any timer already registered under
// key
func (r *TimerRegistry) Schedule(key string, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[key]; ok {
		t.Stop()
	}

	r.timers[key] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, key)
		r.mu.Unlock()
		fn()
	})
}

// Cancel stops the timer registered under key. Returns true if a timer was
// pending.
func (r *TimerRegistry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[key]
	if !ok {
		return false
	}

	delete(r.timers, key)
	return t.Stop()
}

// Stop cancels every pending timer. Used at shutdown.
func (r *TimerRegistry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, t := range r.timers {
		t.Stop()
		delete(r.timers, key)
	}
}
