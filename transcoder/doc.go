// Package transcoder lowers engine output into flat, C-compatible records and
// releases them again.
//
// Everything returned across the boundary is built here, with one allocator,
// and freed here, with the same allocator:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│ engine.Encoding ──Lower──▶ Buffer ──(host reads)──▶ Release │
//	└──────────────────────────────────────────────────────────────┘
//
// # Layouts
//
// The records in layout.go match tokenizers.h field for field:
//
//	Record            Fields
//	─────────────────────────────────────────────────────────────
//	TruncationParams  u8 direction, u8 strategy, u32 max_length, u32 stride
//	PaddingParams     u32 strategy, u8 direction, u32 multiple, u32 id,
//	                  u32 type id, char* token
//	EncodeParams      7 x bool
//	Offset            u32 start, u32 end
//	Buffer            u32* x4, char**, Offset*, u32 len
//	Results           u32 len, Buffer*, char* error
//	PointerOrError    void* value, char* error
//
// # Ownership
//
// Every array is an Owned triple (pointer, length, capacity). Lower is its
// only constructor and Release its only destructor; Reclaim rebuilds the
// triple from a pointer and the length stored next to it. Strings are
// NUL-terminated and released with FreeCString.
//
// Optional Buffer fields that were not requested are nil and are never
// allocated. IDs is always allocated, even for zero tokens, so "empty"
// and "absent" never look alike.
//
// # Rollback
//
// Building one aggregate records every allocation on an AllocationList.
// If any step fails the list is freed in full, so a failed call never
// leaves a partial aggregate behind:
//
//	list := NewAllocationList()
//	buf, err := LowerEncoding(alloc, list, enc, params)
//	if err != nil {
//	    list.FreeAndRelease(alloc)
//	    return err
//	}
//	list.Release() // ownership moved to the caller
//
// # Allocators
//
// HeapAllocator serves Go memory and verifies every Free. It backs the
// pure-Go API and the tests. The shared library uses cmem.Allocator
// (malloc/free) so C callers can hold the memory indefinitely.
package transcoder
