package widget

import "time"

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks and reports the current time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// debouncer runs the most recently scheduled task once delay has passed
// without a newer Schedule or a Cancel. Expiry is delivered through post so
// the task runs on the controller loop; a task that lost a race with Cancel
// is recognised by its generation and dropped there.
type debouncer struct {
	clock Clock
	delay time.Duration
	post  func(func())

	timer Timer
	gen   uint64
}

func newDebouncer(clock Clock, delay time.Duration, post func(func())) *debouncer {
	return &debouncer{clock: clock, delay: delay, post: post}
}

// Schedule cancels any pending task and schedules fn.
func (d *debouncer) Schedule(fn func()) {
	d.Cancel()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.post(func() {
			if d.timer == nil || gen != d.gen {
				return
			}
			d.timer = nil
			fn()
		})
	})
}

// Cancel drops the pending task, if any.
func (d *debouncer) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a task is waiting for its quiet period to end.
func (d *debouncer) Pending() bool {
	return d.timer != nil
}
