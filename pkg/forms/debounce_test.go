package forms

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebounceTrailingEdge(t *testing.T) {
	var calls atomic.Int32
	d := Debounce(func() { calls.Add(1) }, 20*time.Millisecond, false)

	for i := 0; i < 5; i++ {
		d.Call()
		time.Sleep(2 * time.Millisecond)
	}

	assert.Equal(t, int32(0), calls.Load(), "nothing runs during the burst")
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// No second run for the same burst.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, d.Pending())
}

func TestDebounceImmediate(t *testing.T) {
	var calls atomic.Int32
	d := Debounce(func() { calls.Add(1) }, 20*time.Millisecond, true)

	d.Call()
	assert.Equal(t, int32(1), calls.Load(), "leading edge runs at once")

	d.Call()
	d.Call()
	assert.Equal(t, int32(1), calls.Load())

	require.Eventually(t, func() bool { return !d.Pending() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "no trailing run in immediate mode")

	d.Call()
	assert.Equal(t, int32(2), calls.Load(), "a new burst runs again")
}

func TestDebounceCancel(t *testing.T) {
	var calls atomic.Int32
	d := Debounce(func() { calls.Add(1) }, 10*time.Millisecond, false)

	d.Call()
	d.Cancel()

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Pending())
}

func TestDebounceCancelWaitsForRunningCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	d := Debounce(func() {
		calls.Add(1)
		close(started)
		<-release
	}, time.Millisecond, false)

	d.Call()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}

	cancelled := make(chan struct{})
	go func() {
		d.Cancel()
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("Cancel returned while fn was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("Cancel did not return after fn finished")
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebounceNoRunAfterCancelReturns(t *testing.T) {
	for i := 0; i < 100; i++ {
		var calls atomic.Int32
		d := Debounce(func() { calls.Add(1) }, time.Microsecond, false)

		d.Call()
		time.Sleep(time.Duration(i%3) * time.Microsecond)
		d.Cancel()
		seen := calls.Load()

		time.Sleep(time.Millisecond)
		require.Equal(t, seen, calls.Load(), "iteration %d", i)
		assert.False(t, d.Pending())
	}
}

func TestDebounceDefaultWait(t *testing.T) {
	d := Debounce(func() {}, 0, false)
	assert.Equal(t, DefaultDebounceWait, d.Wait())
}
