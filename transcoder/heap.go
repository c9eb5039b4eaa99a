package transcoder

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gomlx/tokenizers/errors"
)

// maxHeapAllocation bounds a single HeapAllocator request.
const maxHeapAllocation = 1 << 40

// HeapAllocator serves allocations from the Go heap and keeps them reachable
// until they are freed. It checks every Free against its records, so a
// double or foreign free panics instead of corrupting memory.
//
// Blocks are []uint64 so the collector never scans them and every block is
// 8-byte aligned.
type HeapAllocator struct {
	// Budget caps the number of live allocations; 0 means no cap.
	Budget int

	mu     sync.Mutex
	blocks map[uintptr]heapBlock
	total  int
}

type heapBlock struct {
	data []uint64
	size uintptr
}

func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{blocks: make(map[uintptr]heapBlock)}
}

// Alloc returns zeroed memory of at least size bytes. A zero size still
// yields a distinct non-nil pointer.
func (h *HeapAllocator) Alloc(size uintptr) (unsafe.Pointer, error) {
	if size > maxHeapAllocation {
		return nil, errors.AllocationFailed(errors.PhaseMarshal, size)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.blocks == nil {
		h.blocks = make(map[uintptr]heapBlock)
	}
	if h.Budget > 0 && len(h.blocks) >= h.Budget {
		return nil, errors.New(errors.PhaseMarshal, errors.KindAllocation).
			Value(size).
			Detail("allocation budget of %d exhausted", h.Budget).
			Build()
	}
	words := (max(size, 1) + 7) / 8
	data := make([]uint64, words)
	ptr := unsafe.Pointer(&data[0])
	h.blocks[uintptr(ptr)] = heapBlock{data: data, size: size}
	h.total++
	return ptr, nil
}

// Free releases ptr. Freeing nil is a no-op.
func (h *HeapAllocator) Free(ptr unsafe.Pointer, size uintptr) {
	if ptr == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	block, ok := h.blocks[uintptr(ptr)]
	if !ok {
		panic(fmt.Sprintf("transcoder: free of %p not allocated by this allocator or already freed", ptr))
	}
	if block.size != size {
		panic(fmt.Sprintf("transcoder: free of %p with size %d, allocated with %d", ptr, size, block.size))
	}
	delete(h.blocks, uintptr(ptr))
}

// Live returns the number of allocations not yet freed.
func (h *HeapAllocator) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}

// Total returns the number of allocations ever made.
func (h *HeapAllocator) Total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}
