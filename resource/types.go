package resource

// Handle is an opaque reference to a value in a table.
// Handle 0 is reserved and always invalid.
//
// The low 24 bits select a slot, the high 8 bits carry the slot generation, so
// a handle kept after release is rejected even once its slot is reused (until
// the generation wraps).
type Handle uint32

const (
	slotBits = 24
	slotMask = 1<<slotBits - 1
	// MaxSlots is the number of values a single table can hold at once.
	MaxSlots = slotMask
)

func makeHandle(slot uint32, gen uint8) Handle {
	return Handle(uint32(gen)<<slotBits | (slot + 1))
}

func (h Handle) slot() (uint32, bool) {
	s := uint32(h) & slotMask
	if s == 0 {
		return 0, false
	}
	return s - 1, true
}

func (h Handle) generation() uint8 {
	return uint8(uint32(h) >> slotBits)
}

// EventType identifies a handle lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Event represents a handle lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) {
	f(e)
}

// Backend provides the underlying storage mechanism for handles.
type Backend interface {
	// Create stores a value and returns a handle.
	Create(value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Drop removes a value and returns (value, true) if the handle was live.
	Drop(handle Handle) (any, bool)

	// Close releases all values held by the backend.
	Close() error
}

// Dropper is optionally implemented by values that need cleanup when their
// handle is removed.
type Dropper interface {
	Drop()
}
