package transcoder

import (
	"unsafe"
)

// Owned is a flat array handed across the boundary: a (pointer, length,
// capacity) triple built only by Lower and destroyed only by Release.
// Capacity always equals length.
type Owned[T any] struct {
	ptr *T
	len int
	cap int
}

// Lower copies src into a freshly allocated array of exactly len(src)
// elements. The allocation is recorded on list when list is not nil. An
// empty src still produces a non-nil pointer, so empty and absent stay
// distinguishable.
func Lower[T any](a Allocator, list *AllocationList, src []T) (Owned[T], error) {
	var zero T
	size := unsafe.Sizeof(zero) * uintptr(len(src))
	p, err := a.Alloc(size)
	if err != nil {
		return Owned[T]{}, err
	}
	list.Add(p, size)
	if len(src) > 0 {
		copy(unsafe.Slice((*T)(p), len(src)), src)
	}
	return Owned[T]{ptr: (*T)(p), len: len(src), cap: len(src)}, nil
}

// Reclaim rebuilds the triple of an array previously produced by Lower from
// its pointer and the length recorded next to it.
func Reclaim[T any](ptr *T, n int) Owned[T] {
	return Owned[T]{ptr: ptr, len: n, cap: n}
}

func (o Owned[T]) Ptr() *T {
	return o.ptr
}

func (o Owned[T]) Len() int {
	return o.len
}

// Slice views the array without copying. Nil when absent.
func (o Owned[T]) Slice() []T {
	if o.ptr == nil {
		return nil
	}
	return unsafe.Slice(o.ptr, o.len)
}

// Release frees the array. Releasing an absent array is a no-op.
func (o Owned[T]) Release(a Allocator) {
	if o.ptr == nil {
		return
	}
	var zero T
	a.Free(unsafe.Pointer(o.ptr), unsafe.Sizeof(zero)*uintptr(o.cap))
}
