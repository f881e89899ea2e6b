package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer holds back a burst of file changes until the directory has been
// quiet for the configured interval, then fires once with the last path.
type Debouncer struct {
	interval time.Duration
	fire     func(path string)

	mu      sync.Mutex
	timer   *time.Timer
	last    string
	stopped bool
}

// NewDebouncer returns a Debouncer that calls fire after interval of quiet.
func NewDebouncer(interval time.Duration, fire func(path string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		fire:     fire,
	}
}

// Trigger records a change to path and restarts the quiet period. Calls
// after Stop are ignored.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.last = path

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, d.flush)
}

func (d *Debouncer) flush() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("debounced trigger panicked", slog.Any("error", r))
		}
	}()

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	p := d.last
	d.timer = nil
	d.mu.Unlock()

	d.fire(p)
}

// Stop drops any pending change.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
