package notify

import (
	"sync"
	"time"
)

// DefaultWindow is the debounce interval used when none is configured.
const DefaultWindow = 500 * time.Millisecond

// Debouncer coalesces events per (scope, scopeID) key. The first event in a
// quiet period arms a timer; later events within the window replace the
// pending one, so the sink sees only the latest. Safe for concurrent use.
type Debouncer struct {
	sink   Sink
	window time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEvent
	closed  bool
}

type pendingEvent struct {
	timer *time.Timer
	event Event
}

// NewDebouncer wraps sink with a debounce window. A non-positive window
// falls back to DefaultWindow.
func NewDebouncer(sink Sink, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		sink:    sink,
		window:  window,
		pending: make(map[string]*pendingEvent),
	}
}

// Notify schedules event for delivery. If an event with the same key is
// already pending, the new one replaces it and the timer keeps running.
func (d *Debouncer) Notify(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	key := string(event.Scope) + ":" + event.ScopeID

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if p, ok := d.pending[key]; ok {
		p.event = event
		return
	}

	p := &pendingEvent{event: event}
	p.timer = time.AfterFunc(d.window, func() { d.fire(key) })
	d.pending[key] = p
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if ok {
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		d.sink.Notify(p.event)
	}
}

// Flush delivers every pending event immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	flushed := make([]*pendingEvent, 0, len(d.pending))
	for key, p := range d.pending {
		p.timer.Stop()
		flushed = append(flushed, p)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, p := range flushed {
		d.sink.Notify(p.event)
	}
}

// Close flushes pending events and rejects further notifications.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.Flush()
}

var _ Sink = (*Debouncer)(nil)
