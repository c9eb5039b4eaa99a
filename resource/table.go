package resource

import (
	"sync"
)

// Table maps handles to values of type T, with lifecycle observers.
type Table[T any] struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

// NewTable creates a new table with a LocalBackend.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle, or 0 if the table is closed
// or full.
func (t *Table[T]) Insert(value T) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(handle Handle) (T, bool) {
	var zero T
	v, ok := t.backend.Get(handle)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Remove drops a value and returns (value, true) if the handle was live.
// The value's Drop method, if any, runs before observers are notified.
func (t *Table[T]) Remove(handle Handle) (T, bool) {
	var zero T
	value, ok := t.backend.Drop(handle)
	if !ok {
		return zero, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		Value:  value,
	})

	typed, _ := value.(T)
	return typed, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table[T]) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	return t.backend.Len()
}

// Each iterates over all live handles.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.backend.Each(func(h Handle, v any) bool {
		typed, _ := v.(T)
		return fn(h, typed)
	})
}

// Clear drops all values.
func (t *Table[T]) Clear() {
	// Collect handles first to avoid holding the backend lock during Remove
	var handles []Handle
	t.backend.Each(func(h Handle, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close releases all values and stops accepting inserts.
func (t *Table[T]) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
