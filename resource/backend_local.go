package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed = errors.New("resource backend closed")
	ErrFull   = errors.New("resource backend full")
)

// LocalBackend is an in-memory handle backend with slot reuse.
type LocalBackend struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value any
	gen   uint8
	valid bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 16),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	if len(b.freeList) > 0 {
		slot := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		e := &b.entries[slot]
		e.value = value
		e.valid = true
		return makeHandle(slot, e.gen), nil
	}

	if len(b.entries) >= MaxSlots {
		return 0, ErrFull
	}
	b.entries = append(b.entries, entry{value: value, valid: true})
	return makeHandle(uint32(len(b.entries)-1), 0), nil
}

// lookup returns the live entry for handle. Callers hold b.mu.
func (b *LocalBackend) lookup(handle Handle) (*entry, uint32, bool) {
	slot, ok := handle.slot()
	if !ok || int(slot) >= len(b.entries) {
		return nil, 0, false
	}
	e := &b.entries[slot]
	if !e.valid || e.gen != handle.generation() {
		return nil, 0, false
	}
	return e, slot, true
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, _, ok := b.lookup(handle)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Drop removes a value and returns (value, true) if the handle was live.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, slot, ok := b.lookup(handle)
	if !ok {
		return nil, false
	}

	value := e.value
	e.valid = false
	e.value = nil
	e.gen++
	b.freeList = append(b.freeList, slot)

	return value, true
}

// Close releases all values.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			b.entries[i].valid = false
			b.entries[i].value = nil
		}
	}

	b.entries = nil
	b.freeList = nil
	return nil
}

// Len returns the number of live handles.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.entries) - len(b.freeList)
}

// Each iterates over all live handles.
func (b *LocalBackend) Each(fn func(Handle, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(makeHandle(uint32(i), e.gen), e.value) {
				break
			}
		}
	}
}
