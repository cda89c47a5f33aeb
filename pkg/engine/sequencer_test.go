package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdemtable-server/pkg/game"
)

func TestSequencer_FIFO(t *testing.T) {
	a := assert.New(t)

	notifier := &recordingNotifier{}
	seq := NewSequencer(notifier)
	defer seq.Stop()

	for i := 0; i < 5; i++ {
		seq.Enqueue("g1", Announcement{Event: fmt.Sprintf("event_%d", i)})
	}

	a.Equal([]string{"event_0", "event_1", "event_2", "event_3", "event_4"}, notifier.names())
}

func TestSequencer_DisplayDurationPacesQueue(t *testing.T) {
	a := assert.New(t)

	notifier := &recordingNotifier{}
	seq := NewSequencer(notifier)
	defer seq.Stop()

	seq.Enqueue("g1", Announcement{Event: "first", Duration: 20 * time.Millisecond})
	seq.Enqueue("g1", Announcement{Event: "second"})

	// second is held back while first displays
	a.Equal([]string{"first"}, notifier.names())

	require.Eventually(t, func() bool {
		return notifier.count("second") == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSequencer_GamesDoNotBlockEachOther(t *testing.T) {
	a := assert.New(t)

	notifier := &recordingNotifier{}
	seq := NewSequencer(notifier)
	defer seq.Stop()

	seq.Enqueue("g1", Announcement{Event: "slow", Duration: time.Hour})
	seq.Enqueue("g2", Announcement{Event: "fast"})

	a.Equal(1, notifier.count("slow"))
	a.Equal(1, notifier.count("fast"))
}

func TestSequencer_CancelStarting(t *testing.T) {
	a := assert.New(t)

	notifier := &recordingNotifier{}
	seq := NewSequencer(notifier)
	defer seq.Stop()

	seq.Enqueue("g1", Announcement{Event: game.EventGameStarting, Duration: time.Hour, Cancellable: true})
	seq.Enqueue("g1", Announcement{Event: "queued_behind"})

	a.True(seq.CancelStarting("g1"))

	// exactly one cancellation, and the queue keeps flowing
	a.Equal(1, notifier.count(game.EventGameStartingCanceled))
	a.Equal(1, notifier.count("queued_behind"))

	// nothing left to cancel
	a.False(seq.CancelStarting("g1"))
	a.Equal(1, notifier.count(game.EventGameStartingCanceled))
}

func TestSequencer_CancelStartingCollapsesQueuedCountdowns(t *testing.T) {
	a := assert.New(t)

	notifier := &recordingNotifier{}
	seq := NewSequencer(notifier)
	defer seq.Stop()

	// a countdown displaying plus another queued behind a roster event
	seq.Enqueue("g1", Announcement{Event: game.EventGameStarting, Duration: time.Hour, Cancellable: true})
	seq.Enqueue("g1", Announcement{Event: game.EventPlayerJoined})
	seq.Enqueue("g1", Announcement{Event: game.EventGameStarting, Duration: time.Hour, Cancellable: true})

	a.True(seq.CancelStarting("g1"))

	// one cancellation no matter how many countdowns were pending
	a.Equal(1, notifier.count(game.EventGameStartingCanceled))
	a.Equal(1, notifier.count(game.EventPlayerJoined))
}

func TestSequencer_FinishStarting(t *testing.T) {
	a := assert.New(t)

	notifier := &recordingNotifier{}
	seq := NewSequencer(notifier)
	defer seq.Stop()

	seq.Enqueue("g1", Announcement{Event: game.EventGameStarting, Duration: time.Hour, Cancellable: true})
	seq.Enqueue("g1", Announcement{Event: "next"})

	seq.FinishStarting("g1")

	// the countdown ends without a cancellation and the queue resumes
	a.Equal(0, notifier.count(game.EventGameStartingCanceled))
	a.Equal(1, notifier.count("next"))
}
