// Package bounded provides a fixed-capacity, newest-first window of recent
// items, optionally persisted through a Store.
package bounded

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Store persists a window's encoded contents under its name.
// LoadWindow returns nil data and a nil error when nothing was saved yet.
type Store interface {
	SaveWindow(name string, data []byte) error
	LoadWindow(name string) ([]byte, error)
}

// Window holds at most Cap items, newest first. Inserting into a full window
// evicts the oldest item. It is safe for concurrent use.
type Window[T any] struct {
	mu    sync.Mutex
	name  string
	cap   int
	items []T
	newer func(a, b T) bool
	store Store
}

// New creates an empty window. newer reports whether a is strictly newer
// than b; with a nil newer every insert goes to the front. store may be nil.
func New[T any](name string, capacity int, newer func(a, b T) bool, store Store) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{
		name:  name,
		cap:   capacity,
		newer: newer,
		store: store,
	}
}

func (w *Window[T]) Name() string { return w.name }

func (w *Window[T]) Cap() int { return w.cap }

func (w *Window[T]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.items)
}

// Items returns a copy of the window contents, newest first.
func (w *Window[T]) Items() []T {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]T, len(w.items))
	copy(out, w.items)
	return out
}

// Push inserts item ahead of every entry that is not newer than it, then
// truncates to capacity. An event that arrives late lands behind the newer
// entries already present. The returned error only concerns persistence;
// the in-memory window is updated regardless.
func (w *Window[T]) Push(item T) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := 0
	if w.newer != nil {
		for i < len(w.items) && w.newer(w.items[i], item) {
			i++
		}
	}
	if i >= w.cap {
		// Older than everything in a full window.
		return nil
	}

	items := make([]T, 0, min(len(w.items)+1, w.cap))
	items = append(items, w.items[:i]...)
	items = append(items, item)
	items = append(items, w.items[i:]...)
	if len(items) > w.cap {
		items = items[:w.cap]
	}
	w.items = items
	return w.saveLocked()
}

// Reset replaces the contents with the first Cap entries of items, which
// are expected newest first.
func (w *Window[T]) Reset(items []T) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := min(len(items), w.cap)
	w.items = make([]T, n)
	copy(w.items, items[:n])
	return w.saveLocked()
}

// Load restores the window from its store.
func (w *Window[T]) Load() error {
	if w.store == nil {
		return nil
	}
	data, err := w.store.LoadWindow(w.name)
	if err != nil {
		return fmt.Errorf("loading window %s: %w", w.name, err)
	}
	if len(data) == 0 {
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decoding window %s: %w", w.name, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(items) > w.cap {
		items = items[:w.cap]
	}
	w.items = items
	return nil
}

func (w *Window[T]) saveLocked() error {
	if w.store == nil {
		return nil
	}
	data, err := json.Marshal(w.items)
	if err != nil {
		return fmt.Errorf("encoding window %s: %w", w.name, err)
	}
	if err := w.store.SaveWindow(w.name, data); err != nil {
		return fmt.Errorf("saving window %s: %w", w.name, err)
	}
	return nil
}
