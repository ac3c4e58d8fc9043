package visibility

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet window after the last change event before an
// evaluation is sent.
const DefaultDebounce = 1000 * time.Millisecond

// Timer is a pending delayed task.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d. time.AfterFunc satisfies it once
// wrapped; tests substitute a manual scheduler.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Debouncer is a trailing debounce: every Schedule cancels the pending task
// and restarts the window, so only the last scheduled task runs.
type Debouncer struct {
	mu        sync.Mutex
	delay     time.Duration
	afterFunc AfterFunc
	timer     Timer
	task      func()
	gen       uint64
}

// NewDebouncer returns a debouncer with the given window. A nil afterFunc
// uses the real clock.
func NewDebouncer(delay time.Duration, afterFunc AfterFunc) *Debouncer {
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}
	return &Debouncer{delay: delay, afterFunc: afterFunc}
}

// Schedule replaces any pending task with task and restarts the window.
func (d *Debouncer) Schedule(task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.task = task
	d.timer = d.afterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending task. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.task == nil {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = nil
	d.task = nil
	d.gen++
	return true
}

// Flush runs the pending task now instead of waiting for the window to
// elapse. It reports whether a task ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	task := d.task
	if task == nil {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = nil
	d.task = nil
	d.gen++
	d.mu.Unlock()

	task()
	return true
}

// Pending reports whether a task is waiting for its window to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.task != nil
}

// fire runs the task scheduled under gen, unless it was replaced or
// cancelled after the timer started.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.task == nil {
		d.mu.Unlock()
		return
	}
	task := d.task
	d.task = nil
	d.timer = nil
	d.mu.Unlock()

	task()
}
