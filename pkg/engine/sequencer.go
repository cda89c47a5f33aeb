package engine

import (
	"sync"
	"time"

	"holdemtable-server/pkg/game"
)

// Announcement is one queued notification. Duration is how long clients
// display it; the next announcement for the game is held back until the
// duration elapses. Cancellable marks countdown announcements that a roster
// change may withdraw.
type Announcement struct {
	Event       string
	Payload     interface{}
	Duration    time.Duration
	Cancellable bool
}

// Sequencer delivers announcements per game strictly in order, pacing them
// by their display durations. Games do not block each other.
type Sequencer struct {
	mu       sync.Mutex
	notifier Notifier
	queues   map[string]*announcementQueue
}

type announcementQueue struct {
	items  []Announcement
	active *Announcement
	timer  *time.Timer
}

func NewSequencer(notifier Notifier) *Sequencer {
	return &Sequencer{
		notifier: notifier,
		queues:   make(map[string]*announcementQueue),
	}
}

// Enqueue appends an announcement to the game's queue, emitting it
// immediately if nothing is displaying
func (s *Sequencer) Enqueue(gameID string, a Announcement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[gameID]
	if q == nil {
		q = &announcementQueue{}
		s.queues[gameID] = q
	}

	q.items = append(q.items, a)
	if q.active == nil {
		s.emitNext(gameID, q)
	}
}

// CancelStarting withdraws any pending or displaying countdown announcement
// for the game. If anything was withdrawn, exactly one cancellation event is
// emitted, regardless of how many roster changes piled up.
func (s *Sequencer) CancelStarting(gameID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[gameID]
	if q == nil {
		return false
	}

	cancelled := false
	if q.active != nil && q.active.Cancellable {
		if q.timer != nil {
			q.timer.Stop()
			q.timer = nil
		}
		q.active = nil
		cancelled = true
	}

	kept := q.items[:0]
	for _, a := range q.items {
		if a.Cancellable {
			cancelled = true
			continue
		}
		kept = append(kept, a)
	}
	q.items = kept

	if cancelled {
		s.notifier.Emit(gameID, game.EventGameStartingCanceled, nil)
		if q.active == nil && len(q.items) > 0 {
			s.emitNext(gameID, q)
		}
	}

	return cancelled
}

// FinishStarting ends the countdown announcement's display window without
// emitting a cancellation. Called when the countdown reaches zero and the
// hand actually starts.
func (s *Sequencer) FinishStarting(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[gameID]
	if q == nil {
		return
	}

	if q.active != nil && q.active.Cancellable {
		if q.timer != nil {
			q.timer.Stop()
			q.timer = nil
		}
		q.active = nil
		s.emitNext(gameID, q)
	}
}

// Stop drops all queues and cancels their pacing timers
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, q := range s.queues {
		if q.timer != nil {
			q.timer.Stop()
		}
		delete(s.queues, id)
	}
}

// emitNext pops the head of the queue and emits it. Caller must hold mu.
// Notifier implementations must not block; delivery happens inline.
func (s *Sequencer) emitNext(gameID string, q *announcementQueue) {
	for len(q.items) > 0 {
		a := q.items[0]
		q.items = q.items[1:]
		s.notifier.Emit(gameID, a.Event, a.Payload)

		if a.Duration > 0 {
			q.active = &a
			q.timer = time.AfterFunc(a.Duration, func() {
				s.finish(gameID, &a)
			})
			return
		}
	}
}

// finish ends the display window for the active announcement and emits the
// next queued one
func (s *Sequencer) finish(gameID string, a *Announcement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queues[gameID]
	if q == nil || q.active != a {
		return
	}

	q.active = nil
	q.timer = nil
	s.emitNext(gameID, q)
}
