package engine

import "fmt"

// TruncationDirection selects which end of an encoding is cut.
type TruncationDirection uint8

const (
	TruncateLeft TruncationDirection = iota
	TruncateRight
)

func (d TruncationDirection) String() string {
	switch d {
	case TruncateLeft:
		return "Left"
	case TruncateRight:
		return "Right"
	}
	return fmt.Sprintf("TruncationDirection(%d)", uint8(d))
}

// TruncationStrategy selects which sequence of a pair is cut.
type TruncationStrategy uint8

const (
	LongestFirst TruncationStrategy = iota
	OnlyFirst
	OnlySecond
)

func (s TruncationStrategy) String() string {
	switch s {
	case LongestFirst:
		return "LongestFirst"
	case OnlyFirst:
		return "OnlyFirst"
	case OnlySecond:
		return "OnlySecond"
	}
	return fmt.Sprintf("TruncationStrategy(%d)", uint8(s))
}

// TruncationParams bounds the length of every encoding, special tokens
// included.
type TruncationParams struct {
	Direction TruncationDirection
	Strategy  TruncationStrategy
	MaxLength int
	Stride    int
}

// PaddingDirection selects where pad entries are inserted.
type PaddingDirection uint8

const (
	PadLeft PaddingDirection = iota
	PadRight
)

func (d PaddingDirection) String() string {
	switch d {
	case PadLeft:
		return "Left"
	case PadRight:
		return "Right"
	}
	return fmt.Sprintf("PaddingDirection(%d)", uint8(d))
}

// PaddingStrategy selects the padded length.
type PaddingStrategy uint8

const (
	// PadBatchLongest pads to the longest encoding of the call.
	PadBatchLongest PaddingStrategy = iota
	// PadFixed pads to PaddingParams.Length.
	PadFixed
)

func (s PaddingStrategy) String() string {
	switch s {
	case PadBatchLongest:
		return "BatchLongest"
	case PadFixed:
		return "Fixed"
	}
	return fmt.Sprintf("PaddingStrategy(%d)", uint8(s))
}

// PaddingParams describes how encodings are padded.
type PaddingParams struct {
	Strategy        PaddingStrategy
	Length          int
	Direction       PaddingDirection
	PadToMultipleOf int
	PadID           uint32
	PadTypeID       uint32
	PadToken        string
}

// DefaultPadding pads right to the longest encoding with "[PAD]" (id 0).
func DefaultPadding() PaddingParams {
	return PaddingParams{
		Strategy:  PadBatchLongest,
		Direction: PadRight,
		PadToken:  "[PAD]",
	}
}

func parseTruncationDirection(s string) (TruncationDirection, error) {
	switch s {
	case "Left":
		return TruncateLeft, nil
	case "Right", "":
		return TruncateRight, nil
	}
	return 0, fmt.Errorf("unknown truncation direction %q", s)
}

func parseTruncationStrategy(s string) (TruncationStrategy, error) {
	switch s {
	case "LongestFirst", "":
		return LongestFirst, nil
	case "OnlyFirst":
		return OnlyFirst, nil
	case "OnlySecond":
		return OnlySecond, nil
	}
	return 0, fmt.Errorf("unknown truncation strategy %q", s)
}

func parsePaddingDirection(s string) (PaddingDirection, error) {
	switch s {
	case "Left":
		return PadLeft, nil
	case "Right", "":
		return PadRight, nil
	}
	return 0, fmt.Errorf("unknown padding direction %q", s)
}
