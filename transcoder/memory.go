package transcoder

import (
	"sync"
	"unsafe"

	"github.com/gomlx/tokenizers"
)

type Allocator = tokenizers.Allocator

type Allocation struct {
	Ptr  unsafe.Pointer
	Size uintptr
}

// AllocationList records everything allocated while building one result so
// it can be freed as a unit if a later step fails.
type AllocationList struct {
	allocations []Allocation
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &AllocationList{allocations: make([]Allocation, 0, 16)}
	},
}

func NewAllocationList() *AllocationList {
	return allocationListPool.Get().(*AllocationList)
}

const maxPooledAllocationCapacity = 256

// Release returns to pool. Call after ownership of every recorded
// allocation moved to the caller, or after Free(); list invalid after Release.
func (al *AllocationList) Release() {
	// Only pool small lists to prevent memory bloat
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.Reset()
	allocationListPool.Put(al)
}

func (al *AllocationList) FreeAndRelease(allocator Allocator) {
	al.Free(allocator)
	al.Release()
}

func (al *AllocationList) Add(ptr unsafe.Pointer, size uintptr) {
	if al == nil {
		return
	}
	al.allocations = append(al.allocations, Allocation{
		Ptr:  ptr,
		Size: size,
	})
}

// Free frees every recorded allocation, newest first, and empties the list.
func (al *AllocationList) Free(allocator Allocator) {
	if allocator == nil {
		return
	}
	for i := len(al.allocations) - 1; i >= 0; i-- {
		if a := al.allocations[i]; a.Ptr != nil {
			allocator.Free(a.Ptr, a.Size)
		}
	}
	al.Reset()
}

func (al *AllocationList) Reset() {
	clear(al.allocations)
	al.allocations = al.allocations[:0]
}

func (al *AllocationList) Count() int {
	return len(al.allocations)
}
