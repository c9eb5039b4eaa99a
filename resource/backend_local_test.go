package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	handle, err := b.Create("test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := b.Get(handle)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	val, ok = b.Drop(handle)
	if !ok {
		t.Fatal("Drop failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	if _, ok = b.Get(handle); ok {
		t.Fatal("Expected Get to fail after Drop")
	}
	if _, ok = b.Drop(handle); ok {
		t.Fatal("Expected second Drop to fail")
	}
}

func TestLocalBackend_HandleReuse(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create("a")
	b.Drop(h1)

	h2, _ := b.Create("b")
	s1, _ := h1.slot()
	s2, _ := h2.slot()
	if s1 != s2 {
		t.Fatalf("Expected slot reuse, got slots %d and %d", s1, s2)
	}
	if h1 == h2 {
		t.Fatal("Reused slot must carry a new generation")
	}

	// The stale handle must not alias the new value
	if _, ok := b.Get(h1); ok {
		t.Fatal("Stale handle resolved after slot reuse")
	}
	val, ok := b.Get(h2)
	if !ok || val != "b" {
		t.Fatalf("Expected 'b', got %v (ok=%v)", val, ok)
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()
	d := &dropCounter{}
	b.Create(d)

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatalf("Expected Drop() on Close, called %d times", d.count)
	}

	_, err := b.Create("after close")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}

	// Close is idempotent
	if err := b.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h, _ := b.Create(id)
			if v, ok := b.Get(h); !ok || v != id {
				t.Errorf("Get(%d) = %v, %v", h, v, ok)
			}
			b.Drop(h)
		}(i)
	}

	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Expected Len() == 0, got %d", b.Len())
	}
}

func TestLocalBackend_Len(t *testing.T) {
	b := NewLocalBackend()

	h1, _ := b.Create("a")
	b.Create("b")
	b.Create("c")

	if b.Len() != 3 {
		t.Fatalf("Expected Len() == 3, got %d", b.Len())
	}

	b.Drop(h1)
	if b.Len() != 2 {
		t.Fatalf("Expected Len() == 2, got %d", b.Len())
	}
}

func TestLocalBackend_Each(t *testing.T) {
	b := NewLocalBackend()

	b.Create("a")
	h, _ := b.Create("b")
	b.Create("c")
	b.Drop(h)

	var seen []any
	b.Each(func(h Handle, v any) bool {
		got, ok := b.Get(h)
		if !ok || got != v {
			t.Errorf("Each yielded handle %d that does not resolve to %v", h, v)
		}
		seen = append(seen, v)
		return true
	})

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "c" {
		t.Fatalf("Expected [a c], got %v", seen)
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()
	b.Create("a")

	for _, h := range []Handle{0, 42, makeHandle(0, 7)} {
		if _, ok := b.Get(h); ok {
			t.Errorf("Get(%#x) should fail", uint32(h))
		}
		if _, ok := b.Drop(h); ok {
			t.Errorf("Drop(%#x) should fail", uint32(h))
		}
	}
}
