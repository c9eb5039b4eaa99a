package transcoder

// Flat records shared with C callers. Field order and widths match
// tokenizers.h exactly; do not reorder.

// TruncationParams mirrors the C truncation record.
//
//	direction: 0 = Left, 1 = Right
//	strategy:  0 = LongestFirst, 1 = OnlyFirst, 2 = OnlySecond
type TruncationParams struct {
	Direction uint8
	Strategy  uint8
	MaxLength uint32
	Stride    uint32
}

// PaddingParams mirrors the C padding record.
//
//	strategy:           0 = BatchLongest, N > 0 = Fixed(N)
//	direction:          0 = Left, anything else = Right
//	pad_to_multiple_of: 0 = disabled
//	pad_token:          NUL-terminated, nil = ""
type PaddingParams struct {
	Strategy        uint32
	Direction       uint8
	PadToMultipleOf uint32
	PadID           uint32
	PadTypeID       uint32
	PadToken        *byte
}

// EncodeParams selects which optional Buffer fields are produced and how
// the engine is invoked.
type EncodeParams struct {
	AddSpecialTokens        bool
	ReturnTokens            bool
	ReturnTypeIDs           bool
	ReturnSpecialTokensMask bool
	ReturnAttentionMask     bool
	ReturnOffsets           bool
	WithOffsetsCharMode     bool
}

// Offset is a [Start, End) range of the input, in bytes or characters.
type Offset struct {
	Start uint32
	End   uint32
}

// Buffer is one encoded text. IDs is always present; every other field is
// nil unless requested. All present fields hold Len elements.
type Buffer struct {
	IDs               *uint32
	TypeIDs           *uint32
	SpecialTokensMask *uint32
	AttentionMask     *uint32
	Tokens            **byte
	Offsets           *Offset
	Len               uint32
}

// Results is the aggregate returned by encode calls: either Len buffers or
// an error message, never both.
type Results struct {
	Len     uint32
	Encoded *Buffer
	Error   *byte
}

// PointerOrError is the value-or-error shape of load calls. Value carries a
// handle, which C callers see as an opaque pointer.
type PointerOrError struct {
	Value uintptr
	Error *byte
}

// StringOrError is the value-or-error shape of decode calls.
type StringOrError struct {
	Value *byte
	Error *byte
}
