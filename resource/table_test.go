package resource

import (
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable[string]()

	h := table.Insert("test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}

	if _, ok := table.Remove(h); ok {
		t.Fatal("Second Remove should fail")
	}
}

func TestTable_NullHandle(t *testing.T) {
	table := NewTable[string]()

	if _, ok := table.Get(0); ok {
		t.Fatal("Get(0) should fail")
	}
	if _, ok := table.Remove(0); ok {
		t.Fatal("Remove(0) should fail")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable[string]()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert("test")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated {
		t.Fatal("Expected EventCreated")
	}
	if obs.events[0].Handle != h {
		t.Fatal("Wrong handle in event")
	}

	table.Remove(h)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[1].Type != EventDropped {
		t.Fatal("Expected EventDropped")
	}

	table.Unsubscribe(obs)
	table.Insert("test2")
	if len(obs.events) != 2 {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_ObserverFunc(t *testing.T) {
	table := NewTable[int]()
	var types []EventType
	table.Subscribe(ObserverFunc(func(e Event) {
		types = append(types, e.Type)
	}))

	table.Remove(table.Insert(1))

	if len(types) != 2 || types[0] != EventCreated || types[1] != EventDropped {
		t.Fatalf("Expected [created dropped], got %v", types)
	}
	if EventDropped.String() != "dropped" {
		t.Fatalf("EventDropped.String() = %q", EventDropped.String())
	}
}

func TestTable_Clear(t *testing.T) {
	table := NewTable[string]()

	table.Insert("a")
	table.Insert("b")
	table.Insert("c")

	if table.Len() != 3 {
		t.Fatal("Expected Len() == 3")
	}

	table.Clear()

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Clear")
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable[string]()

	table.Insert("a")
	table.Insert("b")

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	h := table.Insert("c")
	if h != 0 {
		t.Fatal("Expected Insert to fail after Close")
	}
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestTable_DropperInterface(t *testing.T) {
	table := NewTable[*dropCounter]()
	d := &dropCounter{}

	h := table.Insert(d)
	table.Remove(h)

	if d.count != 1 {
		t.Fatalf("Expected Drop() to be called once, called %d times", d.count)
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable[string]()
	table.Insert("a")
	table.Insert("b")

	count := 0
	table.Each(func(h Handle, v string) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("Each should stop when fn returns false, visited %d", count)
	}
}
