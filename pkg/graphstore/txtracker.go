package graphstore

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type trackedTx[T any] struct {
	value    T
	lastUsed time.Time
}

// TxTracker maps transaction handles to backend state and remembers when each
// handle was last used.
type TxTracker[T any] struct {
	mu      sync.Mutex
	entries map[string]*trackedTx[T]
	now     func() time.Time
}

// NewTxTracker creates an empty tracker.
func NewTxTracker[T any]() *TxTracker[T] {
	return &TxTracker[T]{
		entries: make(map[string]*trackedTx[T]),
		now:     time.Now,
	}
}

// Add registers value under a fresh handle and returns it.
func (t *TxTracker[T]) Add(value T) string {
	id := uuid.NewString()
	t.mu.Lock()
	t.entries[id] = &trackedTx[T]{value: value, lastUsed: t.now()}
	t.mu.Unlock()
	return id
}

// Get returns the value for id and marks it as used.
func (t *TxTracker[T]) Get(id string) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.lastUsed = t.now()
	return e.value, true
}

// Remove drops id and returns its value.
func (t *TxTracker[T]) Remove(id string) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	delete(t.entries, id)
	return e.value, true
}

// Exists reports whether id is registered without touching it.
func (t *TxTracker[T]) Exists(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

// Idle returns handles unused for longer than d.
func (t *TxTracker[T]) Idle(d time.Duration) []string {
	cutoff := t.now().Add(-d)
	t.mu.Lock()
	defer t.mu.Unlock()
	var ids []string
	for id, e := range t.entries {
		if e.lastUsed.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of open handles.
func (t *TxTracker[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Drain removes and returns every registered value.
func (t *TxTracker[T]) Drain() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]T, 0, len(t.entries))
	for id, e := range t.entries {
		out = append(out, e.value)
		delete(t.entries, id)
	}
	return out
}

// SetClock overrides the time source. Intended for tests.
func (t *TxTracker[T]) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}
