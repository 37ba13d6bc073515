package icm

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers into a single call of fn, run
// once no trigger has arrived for delay. Triggers reset the pending timer.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64 // bumped on every trigger and cancel; stale timers see a mismatch
	fn    func()
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// cancel drops a pending call and reports whether one was pending.
func (d *debouncer) cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

// eventBatcher collects items and hands the whole batch to fn once the
// stream goes quiet.
type eventBatcher[T any] struct {
	mu      sync.Mutex
	pending []T
	d       *debouncer
}

func newEventBatcher[T any](delay time.Duration, fn func([]T)) *eventBatcher[T] {
	b := &eventBatcher[T]{}
	b.d = newDebouncer(delay, func() {
		b.mu.Lock()
		batch := b.pending
		b.pending = nil
		b.mu.Unlock()
		if len(batch) > 0 {
			fn(batch)
		}
	})
	return b
}

func (b *eventBatcher[T]) add(item T) {
	b.mu.Lock()
	b.pending = append(b.pending, item)
	b.mu.Unlock()
	b.d.trigger()
}
