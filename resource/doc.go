// Package resource provides the opaque handle table behind the boundary.
//
// A handle is the only thing the host ever holds for a loaded tokenizer. The
// table maps non-zero integer handles to Go values, so no Go pointer crosses
// the boundary and no reference counting is needed: the host owns the handle,
// the table owns the value.
//
// # Handle Lifecycle
//
//	table := resource.NewTable[*engine.Tokenizer]()
//
//	// Insert a value, get a handle
//	h := table.Insert(tok)
//
//	// Retrieve value by handle
//	tok, ok := table.Get(h)
//
//	// Remove exactly once
//	tok, ok = table.Remove(h)
//
// Handle 0 is the null handle and never resolves. Released slots are reused,
// but each reuse bumps a generation counter stored in the handle's high bits,
// so a stale handle fails to resolve instead of aliasing a newer value.
//
// # Observers
//
// Register observers to track lifecycle events:
//
//	table.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    log.Printf("handle %d %s", e.Handle, e.Type)
//	}))
//
// # Memory Management
//
// Values are not released by the garbage collector while their handle is live.
// The host must call the release entry point once per handle; Close releases
// everything still held.
package resource
