package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Notify(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureSink) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func statsEvent(projectID string, count int) Event {
	return Event{
		Type:    EventStatsChanged,
		Scope:   ScopeProject,
		ScopeID: projectID,
		Payload: map[string]any{"requestCount": count},
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	sink := &captureSink{}
	d := NewDebouncer(sink, 50*time.Millisecond)

	for i := 1; i <= 5; i++ {
		d.Notify(statsEvent("proj-1", i))
	}

	assert.Empty(t, sink.all(), "nothing delivered inside the window")

	require.Eventually(t, func() bool {
		return len(sink.all()) == 1
	}, time.Second, 5*time.Millisecond)

	got := sink.all()[0]
	assert.Equal(t, "proj-1", got.ScopeID)
	assert.Equal(t, 5, got.Payload["requestCount"], "last write wins")
	assert.False(t, got.Timestamp.IsZero())
}

func TestDebouncerSeparateKeys(t *testing.T) {
	sink := &captureSink{}
	d := NewDebouncer(sink, 30*time.Millisecond)

	d.Notify(statsEvent("proj-1", 1))
	d.Notify(statsEvent("proj-2", 1))
	d.Notify(Event{Type: EventStatsChanged, Scope: ScopeOrg, ScopeID: "proj-1"})

	require.Eventually(t, func() bool {
		return len(sink.all()) == 3
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncerFlush(t *testing.T) {
	sink := &captureSink{}
	d := NewDebouncer(sink, time.Hour)

	d.Notify(statsEvent("proj-1", 7))
	d.Flush()

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, 7, events[0].Payload["requestCount"])

	d.Flush()
	assert.Len(t, sink.all(), 1, "flush is idempotent")
}

func TestDebouncerClose(t *testing.T) {
	sink := &captureSink{}
	d := NewDebouncer(sink, time.Hour)

	d.Notify(statsEvent("proj-1", 1))
	d.Close()
	require.Len(t, sink.all(), 1)

	d.Notify(statsEvent("proj-1", 2))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, sink.all(), 1, "closed debouncer drops events")
}

func TestDebouncerConcurrent(t *testing.T) {
	sink := &captureSink{}
	d := NewDebouncer(sink, 20*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.Notify(statsEvent("proj-1", n))
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return len(sink.all()) == 1
	}, time.Second, 5*time.Millisecond)
}
