package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerRegistry_ScheduleAndFire(t *testing.T) {
	r := NewTimerRegistry()
	defer r.Stop()

	var fired int32
	r.Schedule("k1", 5*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, time.Millisecond)

	// the key is released once fired
	assert.False(t, r.Cancel("k1"))
}

func TestTimerRegistry_Cancel(t *testing.T) {
	a := assert.New(t)

	r := NewTimerRegistry()
	defer r.Stop()

	var fired int32
	r.Schedule("k1", 20*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	a.True(r.Cancel("k1"))
	a.False(r.Cancel("k1"))

	time.Sleep(40 * time.Millisecond)
	a.Equal(int32(0), atomic.LoadInt32(&fired))
}

func TestTimerRegistry_ScheduleReplaces(t *testing.T) {
	a := assert.New(t)

	r := NewTimerRegistry()
	defer r.Stop()

	var first, second int32
	r.Schedule("k1", 10*time.Millisecond, func() {
		atomic.AddInt32(&first, 1)
	})
	r.Schedule("k1", 10*time.Millisecond, func() {
		atomic.AddInt32(&second, 1)
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&second) == 1
	}, time.Second, time.Millisecond)
	a.Equal(int32(0), atomic.LoadInt32(&first))
}

func TestTimerRegistry_Stop(t *testing.T) {
	a := assert.New(t)

	r := NewTimerRegistry()

	var fired int32
	r.Schedule("k1", 20*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	r.Schedule("k2", 20*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	r.Stop()
	time.Sleep(40 * time.Millisecond)
	a.Equal(int32(0), atomic.LoadInt32(&fired))
}
