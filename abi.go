package tokenizers

import "unsafe"

// Allocator hands out memory that outlives the call that produced it.
//
// Every pointer returned by Alloc is owned by whoever receives it until it is
// passed back to Free exactly once, with the same size it was allocated with.
type Allocator interface {
	Alloc(size uintptr) (unsafe.Pointer, error)
	Free(ptr unsafe.Pointer, size uintptr)
}

// LiveCounter is optionally implemented by allocators that track outstanding
// allocations.
type LiveCounter interface {
	Live() int
}
