package memory

import (
	"context"
	"sync"

	"github.com/Pottifar/calendar/internal/application/port"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// DateLocker is an in-process keyed mutex: one slot per calendar day.
// Entries are reference counted and dropped once no goroutine holds or awaits them.
type DateLocker struct {
	mu      sync.Mutex
	entries map[valueobject.CalendarDay]*lockEntry
}

type lockEntry struct {
	slot chan struct{}
	refs int
}

// NewDateLocker creates an empty in-memory locker.
func NewDateLocker() *DateLocker {
	return &DateLocker{
		entries: make(map[valueobject.CalendarDay]*lockEntry),
	}
}

// Lock blocks until the day is free or ctx is done.
func (l *DateLocker) Lock(ctx context.Context, day valueobject.CalendarDay) (port.ReleaseFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry := l.acquireEntry(day)

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		l.releaseEntry(day, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.slot
			l.releaseEntry(day, entry)
		})
	}, nil
}

// Len returns the number of days currently held or awaited.
func (l *DateLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *DateLocker) acquireEntry(day valueobject.CalendarDay) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[day]
	if !ok {
		entry = &lockEntry{slot: make(chan struct{}, 1)}
		l.entries[day] = entry
	}
	entry.refs++
	return entry
}

func (l *DateLocker) releaseEntry(day valueobject.CalendarDay, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, day)
	}
}
