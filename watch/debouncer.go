package watch

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType represents the type of filesystem event
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventDelete
)

// Default debounce delay for coalescing rapid filesystem events
const DefaultDebounceDelay = 150 * time.Millisecond

// String returns the string representation of an EventType
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// debouncer coalesces bursts of filesystem events per path. A fresh
// event restarts the path's timer; emit runs once the path has been
// quiet for the full delay. Deletes bypass the delay entirely.
type debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	emit     func(path string, eventType EventType)
	waiting  map[string]*waiter
	stopping atomic.Bool
}

// waiter tracks one path's armed timer and the strongest event seen
type waiter struct {
	eventType EventType
	timer     *time.Timer
}

func newDebouncer(delay time.Duration, emit func(path string, eventType EventType)) *debouncer {
	return &debouncer{
		delay:   delay,
		emit:    emit,
		waiting: make(map[string]*waiter),
	}
}

// Queue records an event for a path. Returns false once the debouncer
// is stopping.
func (d *debouncer) Queue(path string, eventType EventType) bool {
	if d.stopping.Load() {
		return false
	}
	if eventType == EventDelete {
		d.cancel(path)
		go d.emit(path, EventDelete)
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopping.Load() {
		return false
	}

	w := d.waiting[path]
	if w != nil && w.timer.Reset(d.delay) {
		// a create for a path we saw a write on means the file was
		// replaced, so the stronger event wins
		if eventType == EventCreate {
			w.eventType = EventCreate
		}
		return true
	}

	// first event for the path, or its old timer already fired and
	// cleaned up after itself
	d.waiting[path] = &waiter{
		eventType: eventType,
		timer:     time.AfterFunc(d.delay, func() { d.expire(path) }),
	}
	return true
}

func (d *debouncer) cancel(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if w := d.waiting[path]; w != nil {
		w.timer.Stop()
		delete(d.waiting, path)
	}
}

// expire runs on the timer goroutine once a path has gone quiet
func (d *debouncer) expire(path string) {
	d.mu.Lock()
	w := d.waiting[path]
	delete(d.waiting, path)
	d.mu.Unlock()

	if w != nil && !d.stopping.Load() {
		d.emit(path, w.eventType)
	}
}

// Stop cancels all pending events and rejects new ones
func (d *debouncer) Stop() {
	d.stopping.Store(true)

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range d.waiting {
		w.timer.Stop()
	}
	d.waiting = make(map[string]*waiter)
}

// PendingCount returns the number of paths waiting on a timer
func (d *debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.waiting)
}
