package transcoder

import (
	"math"
	"strconv"

	"github.com/gomlx/tokenizers/engine"
	"github.com/gomlx/tokenizers/errors"
)

// LowerEncoding builds the Buffer of one encoding. Only fields requested by
// params are allocated; every allocation is recorded on list.
func LowerEncoding(a Allocator, list *AllocationList, enc *engine.Encoding, params EncodeParams) (Buffer, error) {
	n := enc.Len()
	if uint64(n) > math.MaxUint32 {
		return Buffer{}, errors.Overflow(errors.PhaseMarshal, []string{"len"}, n, "uint32")
	}
	var buf Buffer
	buf.Len = uint32(n)

	ids, err := Lower(a, list, enc.IDs)
	if err != nil {
		return Buffer{}, err
	}
	buf.IDs = ids.Ptr()

	if params.ReturnTypeIDs {
		o, err := Lower(a, list, enc.TypeIDs)
		if err != nil {
			return Buffer{}, err
		}
		buf.TypeIDs = o.Ptr()
	}
	if params.ReturnSpecialTokensMask {
		o, err := Lower(a, list, enc.SpecialTokensMask)
		if err != nil {
			return Buffer{}, err
		}
		buf.SpecialTokensMask = o.Ptr()
	}
	if params.ReturnAttentionMask {
		o, err := Lower(a, list, enc.AttentionMask)
		if err != nil {
			return Buffer{}, err
		}
		buf.AttentionMask = o.Ptr()
	}
	if params.ReturnTokens {
		ptrs := make([]*byte, n)
		for i, tok := range enc.Tokens {
			p, err := NewCString(a, list, tok)
			if err != nil {
				kind := errors.KindAllocation
				if e, ok := err.(*errors.Error); ok {
					kind = e.Kind
				}
				return Buffer{}, errors.New(errors.PhaseMarshal, kind).
					Path("tokens", strconv.Itoa(i)).
					Cause(err).
					Detail("token %d", i).
					Build()
			}
			ptrs[i] = p
		}
		o, err := Lower(a, list, ptrs)
		if err != nil {
			return Buffer{}, err
		}
		buf.Tokens = o.Ptr()
	}
	if params.ReturnOffsets {
		offsets := make([]Offset, n)
		for i, off := range enc.Offsets {
			offsets[i] = Offset{Start: ClampUint32(off.Start), End: ClampUint32(off.End)}
		}
		o, err := Lower(a, list, offsets)
		if err != nil {
			return Buffer{}, err
		}
		buf.Offsets = o.Ptr()
	}
	return buf, nil
}

// LowerResults builds the aggregate for encodings. Either the whole
// aggregate is returned or, on failure, everything allocated for it has
// already been freed. No encodings yield the zero Results.
func LowerResults(a Allocator, encs []engine.Encoding, params EncodeParams) (Results, error) {
	if uint64(len(encs)) > math.MaxUint32 {
		return Results{}, errors.Overflow(errors.PhaseMarshal, []string{"len"}, len(encs), "uint32")
	}
	if len(encs) == 0 {
		return Results{}, nil
	}
	list := NewAllocationList()
	// Runs on error returns and on panics alike; only a completed
	// aggregate hands its allocations to the caller.
	transferred := false
	defer func() {
		if transferred {
			list.Release()
			return
		}
		list.FreeAndRelease(a)
	}()
	buffers := make([]Buffer, len(encs))
	for i := range encs {
		buf, err := LowerEncoding(a, list, &encs[i], params)
		if err != nil {
			return Results{}, err
		}
		buffers[i] = buf
	}
	owned, err := Lower(a, list, buffers)
	if err != nil {
		return Results{}, err
	}
	transferred = true
	return Results{Len: uint32(len(encs)), Encoded: owned.Ptr()}, nil
}

// ErrorResults builds the aggregate that carries only err.
func ErrorResults(a Allocator, err error) (Results, error) {
	msg, lerr := ErrorString(a, err)
	if lerr != nil {
		return Results{}, lerr
	}
	return Results{Error: msg}, nil
}

// ClampUint32 saturates v into the uint32 range.
func ClampUint32(v int) uint32 {
	switch {
	case v < 0:
		return 0
	case uint64(v) > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}
