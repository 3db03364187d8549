package events

import (
	"context"
	"sync"
)

// MemoryLog is an in-process event store bounded to the most recent entries.
// Nothing outlives the process; the log exists for admin inspection and tests.
type MemoryLog struct {
	mu       sync.Mutex
	capacity int
	entries  []Event
}

// NewMemoryLog constructs a log holding at most capacity events.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryLog{capacity: capacity}
}

// Append records an event, evicting the oldest entry once at capacity.
func (l *MemoryLog) Append(_ context.Context, event Event) (Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) >= l.capacity {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, event)
	return event, nil
}

// Recent returns up to n most recent events, newest last.
func (l *MemoryLog) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Event, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}
