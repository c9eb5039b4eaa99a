package ffi

import (
	"strconv"
	"unsafe"

	"github.com/gomlx/tokenizers/engine"
	"github.com/gomlx/tokenizers/errors"
	"github.com/gomlx/tokenizers/resource"
	"github.com/gomlx/tokenizers/transcoder"
)

// DefaultEncodeParams returns the options most callers want: token text
// and character offsets, no special tokens.
func DefaultEncodeParams() transcoder.EncodeParams {
	return transcoder.EncodeParams{
		AddSpecialTokens:    false,
		ReturnTokens:        true,
		WithOffsetsCharMode: true,
	}
}

func engineOptions(p transcoder.EncodeParams) engine.EncodeOptions {
	return engine.EncodeOptions{
		AddSpecialTokens: p.AddSpecialTokens,
		CharOffsets:      p.WithOffsetsCharMode,
	}
}

// Encode tokenizes one NUL-terminated text. The result holds one buffer or
// an error, and must be passed to ReleaseResults.
func (b *Boundary) Encode(h resource.Handle, text *byte, params transcoder.EncodeParams) transcoder.Results {
	r, err := b.encode(h, text, params)
	if err != nil {
		return b.errorResults(err)
	}
	return r
}

func (b *Boundary) encode(h resource.Handle, text *byte, params transcoder.EncodeParams) (r transcoder.Results, err error) {
	defer b.guard(errors.PhaseEncode, "encode", &err)
	tok, err := b.lookup(errors.PhaseEncode, h)
	if err != nil {
		return transcoder.Results{}, err
	}
	if text == nil {
		return transcoder.Results{}, errors.InvalidInput(errors.PhaseEncode, "text is null")
	}
	enc, err := tok.Encode(transcoder.GoString(text), engineOptions(params))
	if err != nil {
		return transcoder.Results{}, err
	}
	return transcoder.LowerResults(b.alloc, []engine.Encoding{*enc}, params)
}

// EncodeBatch tokenizes count texts. Either every text is encoded, in
// input order, or the result carries a single error and no buffers.
func (b *Boundary) EncodeBatch(h resource.Handle, count uint32, texts **byte, params transcoder.EncodeParams) transcoder.Results {
	r, err := b.encodeBatch(h, count, texts, params)
	if err != nil {
		return b.errorResults(err)
	}
	return r
}

func (b *Boundary) encodeBatch(h resource.Handle, count uint32, texts **byte, params transcoder.EncodeParams) (r transcoder.Results, err error) {
	defer b.guard(errors.PhaseEncode, "encode batch", &err)
	tok, err := b.lookup(errors.PhaseEncode, h)
	if err != nil {
		return transcoder.Results{}, err
	}
	if texts == nil && count > 0 {
		return transcoder.Results{}, errors.InvalidInput(errors.PhaseEncode, "texts is null")
	}
	inputs := make([]string, count)
	for i, p := range unsafe.Slice(texts, count) {
		if p == nil {
			return transcoder.Results{}, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				Path("texts", strconv.Itoa(i)).
				Detail("text %d of %d is null", i, count).
				Build()
		}
		inputs[i] = transcoder.GoString(p)
	}
	encs, err := tok.EncodeBatch(inputs, engineOptions(params))
	if err != nil {
		return transcoder.Results{}, err
	}
	return transcoder.LowerResults(b.alloc, encs, params)
}

// Decode turns n ids back into text. The value or the error must be passed
// to ReleaseString.
func (b *Boundary) Decode(h resource.Handle, ids *uint32, n uint32, skipSpecialTokens bool) transcoder.StringOrError {
	s, err := b.decode(h, ids, n, skipSpecialTokens)
	if err != nil {
		return transcoder.StringOrError{Error: b.errorString(err)}
	}
	return transcoder.StringOrError{Value: s}
}

func (b *Boundary) decode(h resource.Handle, ids *uint32, n uint32, skip bool) (s *byte, err error) {
	defer b.guard(errors.PhaseDecode, "decode", &err)
	tok, err := b.lookup(errors.PhaseDecode, h)
	if err != nil {
		return nil, err
	}
	if ids == nil && n > 0 {
		return nil, errors.InvalidInput(errors.PhaseDecode, "ids is null")
	}
	text, err := tok.Decode(unsafe.Slice(ids, n), skip)
	if err != nil {
		return nil, err
	}
	return transcoder.NewCString(b.alloc, nil, text)
}
