package ffi

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/gomlx/tokenizers/engine"
	"github.com/gomlx/tokenizers/errors"
	"github.com/gomlx/tokenizers/resource"
	"github.com/gomlx/tokenizers/transcoder"
)

// SetTruncation replaces the truncation policy of h; nil clears it. It
// returns nil on success and an owned error message otherwise, in which
// case the previous policy is kept.
func (b *Boundary) SetTruncation(h resource.Handle, p *transcoder.TruncationParams) *byte {
	if err := b.setTruncation(h, p); err != nil {
		return b.errorString(err)
	}
	return nil
}

func (b *Boundary) setTruncation(h resource.Handle, p *transcoder.TruncationParams) (err error) {
	defer b.guard(errors.PhaseConfigure, "set truncation", &err)
	tok, err := b.lookup(errors.PhaseConfigure, h)
	if err != nil {
		return err
	}
	if p == nil {
		return tok.SetTruncation(nil)
	}
	params, err := liftTruncation(p)
	if err != nil {
		return err
	}
	return tok.SetTruncation(&params)
}

func liftTruncation(p *transcoder.TruncationParams) (engine.TruncationParams, error) {
	if p.Direction > uint8(engine.TruncateRight) {
		return engine.TruncationParams{}, errors.InvalidEnum(errors.PhaseConfigure,
			[]string{"truncation", "direction"}, p.Direction, "TruncationDirection")
	}
	if p.Strategy > uint8(engine.OnlySecond) {
		return engine.TruncationParams{}, errors.InvalidEnum(errors.PhaseConfigure,
			[]string{"truncation", "strategy"}, p.Strategy, "TruncationStrategy")
	}
	return engine.TruncationParams{
		Direction: engine.TruncationDirection(p.Direction),
		Strategy:  engine.TruncationStrategy(p.Strategy),
		MaxLength: int(p.MaxLength),
		Stride:    int(p.Stride),
	}, nil
}

// GetTruncation writes the truncation policy of h into out. It returns
// false, leaving out untouched, when no policy is configured.
func (b *Boundary) GetTruncation(h resource.Handle, out *transcoder.TruncationParams) bool {
	tok, err := b.lookup(errors.PhaseConfigure, h)
	if err != nil {
		b.logger.Error("get truncation", zap.Error(err))
		return false
	}
	p := tok.Truncation()
	if p == nil || out == nil {
		return p != nil
	}
	*out = transcoder.TruncationParams{
		Direction: uint8(p.Direction),
		Strategy:  uint8(p.Strategy),
		MaxLength: transcoder.ClampUint32(p.MaxLength),
		Stride:    transcoder.ClampUint32(p.Stride),
	}
	return true
}

// SetPadding replaces the padding policy of h; nil clears it.
//
// The C entry point has no error channel, so the error returned here is
// only logged there.
func (b *Boundary) SetPadding(h resource.Handle, p *transcoder.PaddingParams) (err error) {
	defer b.guard(errors.PhaseConfigure, "set padding", &err)
	tok, err := b.lookup(errors.PhaseConfigure, h)
	if err != nil {
		return err
	}
	if p == nil {
		return tok.SetPadding(nil)
	}
	params, err := liftPadding(p)
	if err != nil {
		return err
	}
	return tok.SetPadding(&params)
}

func liftPadding(p *transcoder.PaddingParams) (engine.PaddingParams, error) {
	token := transcoder.GoString(p.PadToken)
	if !utf8.ValidString(token) {
		return engine.PaddingParams{}, errors.InvalidUTF8(errors.PhaseConfigure,
			[]string{"padding", "pad_token"}, []byte(token))
	}
	params := engine.PaddingParams{
		Strategy:        engine.PadBatchLongest,
		Direction:       engine.PadLeft,
		PadToMultipleOf: int(p.PadToMultipleOf),
		PadID:           p.PadID,
		PadTypeID:       p.PadTypeID,
		PadToken:        token,
	}
	if p.Strategy != 0 {
		params.Strategy = engine.PadFixed
		params.Length = int(p.Strategy)
	}
	if p.Direction != 0 {
		params.Direction = engine.PadRight
	}
	return params, nil
}

// GetPadding writes the padding policy of h into out. On success
// out.PadToken is a new allocation owned by the caller. It returns false,
// leaving out untouched, when no policy is configured.
func (b *Boundary) GetPadding(h resource.Handle, out *transcoder.PaddingParams) bool {
	tok, err := b.lookup(errors.PhaseConfigure, h)
	if err != nil {
		b.logger.Error("get padding", zap.Error(err))
		return false
	}
	p := tok.Padding()
	if p == nil || out == nil {
		return p != nil
	}
	token, err := transcoder.NewCString(b.alloc, nil, p.PadToken)
	if err != nil {
		b.logger.Error("get padding", zap.Error(err))
		return false
	}
	var strategy uint32
	if p.Strategy == engine.PadFixed {
		strategy = transcoder.ClampUint32(p.Length)
	}
	var direction uint8
	if p.Direction == engine.PadRight {
		direction = 1
	}
	*out = transcoder.PaddingParams{
		Strategy:        strategy,
		Direction:       direction,
		PadToMultipleOf: transcoder.ClampUint32(p.PadToMultipleOf),
		PadID:           p.PadID,
		PadTypeID:       p.PadTypeID,
		PadToken:        token,
	}
	return true
}
