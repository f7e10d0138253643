package watch

import (
	"sync"
	"time"
)

// defaultSettle is the quiet window used when none is configured.
const defaultSettle = 250 * time.Millisecond

// debouncer coalesces a burst of triggers into a single callback that runs
// once the burst has settled. Only the most recently scheduled callback runs.
type debouncer struct {
	window time.Duration
	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
}

func newDebouncer(window time.Duration) *debouncer {
	if window <= 0 {
		window = defaultSettle
	}
	return &debouncer{window: window}
}

// trigger schedules fn after the quiet window, replacing any callback
// scheduled earlier.
func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// Stop can miss a timer that already fired; the sequence check keeps
		// a stale callback from running alongside a newer one.
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()

		if current {
			fn()
		}
	})
}

// cancel drops any pending callback.
func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
