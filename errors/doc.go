// Package errors provides structured error types for the tokenizers boundary.
//
// Errors are categorized by Phase (which boundary operation failed) and Kind
// (error category). The Error type carries the field path, the offending value
// and the cause chain; its Error() text is what the boundary hands to the host
// as an owned message.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConfigure, errors.KindInvalidEnum).
//		Path("truncation", "direction").
//		Value(99).
//		Detail("expected 0 (left) or 1 (right)").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidUTF8(errors.PhaseEncode, path, data)
//	err := errors.Engine(errors.PhaseDecode, "decode", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
