// Package cmem allocates boundary results with the C allocator, so foreign
// callers may keep them beyond any Go collection cycle.
package cmem

/*
#include <stdlib.h>
*/
import "C"

import (
	"sync/atomic"
	"unsafe"

	"github.com/gomlx/tokenizers/errors"
)

// Allocator serves zeroed memory from calloc and returns it with free.
type Allocator struct {
	live atomic.Int64
}

func New() *Allocator {
	return &Allocator{}
}

// Alloc returns zeroed memory of at least size bytes; never nil on success.
func (a *Allocator) Alloc(size uintptr) (unsafe.Pointer, error) {
	p := C.calloc(1, C.size_t(max(size, 1)))
	if p == nil {
		return nil, errors.AllocationFailed(errors.PhaseMarshal, size)
	}
	a.live.Add(1)
	return p, nil
}

// Free releases ptr. Nil is a no-op.
func (a *Allocator) Free(ptr unsafe.Pointer, _ uintptr) {
	if ptr == nil {
		return
	}
	C.free(ptr)
	a.live.Add(-1)
}

// Live returns the number of allocations not yet freed.
func (a *Allocator) Live() int {
	return int(a.live.Load())
}
