package transcoder

import (
	"testing"
	"unsafe"
)

func TestHeapAllocator_AllocFree(t *testing.T) {
	h := NewHeapAllocator()

	p, err := h.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if p == nil {
		t.Fatal("Alloc returned nil")
	}
	if uintptr(p)%8 != 0 {
		t.Errorf("pointer %p not 8-byte aligned", p)
	}
	for i, b := range unsafe.Slice((*byte)(p), 10) {
		if b != 0 {
			t.Fatalf("byte %d = %d, want zeroed memory", i, b)
		}
	}
	if h.Live() != 1 {
		t.Errorf("Live = %d, want 1", h.Live())
	}

	h.Free(p, 10)
	if h.Live() != 0 {
		t.Errorf("Live after Free = %d, want 0", h.Live())
	}
	if h.Total() != 1 {
		t.Errorf("Total = %d, want 1", h.Total())
	}
}

func TestHeapAllocator_ZeroSize(t *testing.T) {
	h := NewHeapAllocator()
	a, err := h.Alloc(0)
	if err != nil {
		t.Fatalf("Alloc(0): %v", err)
	}
	b, err := h.Alloc(0)
	if err != nil {
		t.Fatalf("Alloc(0): %v", err)
	}
	if a == nil || b == nil || a == b {
		t.Fatalf("zero-size allocations must be distinct and non-nil: %p %p", a, b)
	}
	h.Free(a, 0)
	h.Free(b, 0)
	if h.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.Live())
	}
}

func TestHeapAllocator_FreeNil(t *testing.T) {
	h := NewHeapAllocator()
	h.Free(nil, 0)
	h.Free(nil, 8)
}

func TestHeapAllocator_Violations(t *testing.T) {
	tests := []struct {
		name string
		run  func(h *HeapAllocator)
	}{
		{"double free", func(h *HeapAllocator) {
			p, _ := h.Alloc(4)
			h.Free(p, 4)
			h.Free(p, 4)
		}},
		{"size mismatch", func(h *HeapAllocator) {
			p, _ := h.Alloc(4)
			h.Free(p, 5)
		}},
		{"foreign pointer", func(h *HeapAllocator) {
			var x uint64
			h.Free(unsafe.Pointer(&x), 8)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.run(NewHeapAllocator())
		})
	}
}

func TestHeapAllocator_Budget(t *testing.T) {
	h := NewHeapAllocator()
	h.Budget = 2

	a, err := h.Alloc(1)
	if err != nil {
		t.Fatalf("Alloc 1: %v", err)
	}
	if _, err := h.Alloc(1); err != nil {
		t.Fatalf("Alloc 2: %v", err)
	}
	if _, err := h.Alloc(1); err == nil {
		t.Fatal("expected budget error")
	}
	h.Free(a, 1)
	if _, err := h.Alloc(1); err != nil {
		t.Fatalf("Alloc after Free: %v", err)
	}
}

func TestHeapAllocator_TooLarge(t *testing.T) {
	h := NewHeapAllocator()
	if _, err := h.Alloc(maxHeapAllocation + 1); err == nil {
		t.Fatal("expected allocation error")
	}
	if h.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.Live())
	}
}

func TestHeapAllocator_ZeroValue(t *testing.T) {
	var h HeapAllocator
	p, err := h.Alloc(3)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	h.Free(p, 3)
}
