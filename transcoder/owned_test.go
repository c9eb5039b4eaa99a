package transcoder

import (
	"strings"
	"testing"
)

func TestLower_Roundtrip(t *testing.T) {
	h := NewHeapAllocator()
	src := []uint32{7, 8, 9}

	o, err := Lower(h, nil, src)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	src[0] = 100 // the copy must not alias src

	got := Reclaim(o.Ptr(), o.Len()).Slice()
	want := []uint32{7, 8, 9}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	Reclaim(o.Ptr(), 3).Release(h)
	if h.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.Live())
	}
}

func TestLower_EmptyIsPresent(t *testing.T) {
	h := NewHeapAllocator()
	o, err := Lower[uint32](h, nil, nil)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if o.Ptr() == nil {
		t.Fatal("empty array must still be allocated")
	}
	if o.Len() != 0 || len(o.Slice()) != 0 {
		t.Errorf("len = %d, want 0", o.Len())
	}
	o.Release(h)
	if h.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.Live())
	}
}

func TestOwned_AbsentRelease(t *testing.T) {
	h := NewHeapAllocator()
	var o Owned[uint32]
	if o.Slice() != nil {
		t.Error("absent array must slice to nil")
	}
	o.Release(h)
	Reclaim[Offset](nil, 5).Release(h)
}

func TestLower_RecordsOnList(t *testing.T) {
	h := NewHeapAllocator()
	list := NewAllocationList()

	if _, err := Lower(h, list, []Offset{{1, 2}}); err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if _, err := NewCString(h, list, "abc"); err != nil {
		t.Fatalf("NewCString: %v", err)
	}
	if list.Count() != 2 {
		t.Fatalf("Count = %d, want 2", list.Count())
	}
	list.FreeAndRelease(h)
	if h.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.Live())
	}
}

func TestCString(t *testing.T) {
	h := NewHeapAllocator()

	tests := []string{"", "hello", "café", strings.Repeat("x", 1000)}
	for _, s := range tests {
		p, err := NewCString(h, nil, s)
		if err != nil {
			t.Fatalf("NewCString(%q): %v", s, err)
		}
		if got := GoString(p); got != s {
			t.Errorf("GoString = %q, want %q", got, s)
		}
		if n := CStringLen(p); n != len(s) {
			t.Errorf("CStringLen = %d, want %d", n, len(s))
		}
		FreeCString(h, p)
	}
	if h.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.Live())
	}
}

func TestCString_NUL(t *testing.T) {
	h := NewHeapAllocator()
	if _, err := NewCString(h, nil, "a\x00b"); err == nil {
		t.Fatal("expected error for embedded NUL")
	}
	if h.Live() != 0 {
		t.Errorf("Live = %d, want 0", h.Live())
	}
}

func TestCString_Nil(t *testing.T) {
	if GoString(nil) != "" {
		t.Error("GoString(nil) must be empty")
	}
	FreeCString(NewHeapAllocator(), nil)
}

func TestErrorString_EscapesNUL(t *testing.T) {
	h := NewHeapAllocator()
	p, err := ErrorString(h, errString("bad\x00input"))
	if err != nil {
		t.Fatalf("ErrorString: %v", err)
	}
	if got := GoString(p); got != `bad\x00input` {
		t.Errorf("message = %q", got)
	}
	FreeCString(h, p)
}

type errString string

func (e errString) Error() string { return string(e) }
