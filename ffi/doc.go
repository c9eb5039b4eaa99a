// Package ffi is the foreign-call boundary over the tokenizer engine.
//
// It speaks only in flat records from the transcoder package and opaque
// handles from the resource package, so the exported C entry points in
// cmd/libtokenizers are thin casts over it. It is also usable directly
// from Go, which is how it is tested.
//
// # Conventions
//
//	Call shape            Success                  Failure
//	─────────────────────────────────────────────────────────────────
//	error-or-nothing      nil                      owned message
//	value-or-error        Value set, Error nil     Value zero, Error set
//	Results               Len buffers, Error nil   Len 0, Error set
//	get_*                 true, record written     false, record untouched
//
// Every owned pointer goes back through exactly one of ReleaseResults or
// ReleaseString. Panics inside the engine are recovered and reported as
// engine errors.
//
// # Handles
//
// LoadFromBytes and LoadFromPath insert the engine into a handle table;
// ReleaseHandle removes it. Handle 0 is the null handle. A Boundary may be
// shared between goroutines, but calls on one handle must not overlap.
package ffi
