package forms

import (
	"sync"
	"time"
)

// DefaultDebounceWait is the quiet period used for live field checks.
const DefaultDebounceWait = 500 * time.Millisecond

// Debouncer delays fn until wait has passed without a new Call.
// Every Call cancels the pending run and schedules a new one.
// With immediate set, fn runs on the first Call of a burst instead and
// further calls are swallowed until the burst goes quiet.
type Debouncer struct {
	fn        func()
	wait      time.Duration
	immediate bool

	timer *time.Timer
	gen   uint64
	mu    sync.Mutex

	// running is held for the whole of a trailing run of fn.
	running sync.Mutex
}

// Debounce wraps fn in a Debouncer.
func Debounce(fn func(), wait time.Duration, immediate bool) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounceWait
	}
	return &Debouncer{
		fn:        fn,
		wait:      wait,
		immediate: immediate,
	}
}

// Call records an invocation.
func (d *Debouncer) Call() {
	d.mu.Lock()
	callNow := d.immediate && d.timer == nil
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
	d.mu.Unlock()

	if callNow {
		d.fn()
	}
}

// fire runs when a timer expires. A timer that was superseded after it
// already fired is ignored by comparing generations.
func (d *Debouncer) fire(gen uint64) {
	d.running.Lock()
	defer d.running.Unlock()

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	if !d.immediate {
		d.fn()
	}
}

// Cancel drops a pending call, if any. If fn is already running, Cancel
// waits for it to return; once Cancel returns no earlier Call can run fn.
// fn must not call Cancel.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.mu.Unlock()

	d.running.Lock()
	d.running.Unlock()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Wait returns the configured quiet period.
func (d *Debouncer) Wait() time.Duration {
	return d.wait
}
