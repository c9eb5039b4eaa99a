package ffi

import (
	"math"

	"go.uber.org/zap"

	"github.com/gomlx/tokenizers/engine"
	"github.com/gomlx/tokenizers/errors"
	"github.com/gomlx/tokenizers/resource"
	"github.com/gomlx/tokenizers/transcoder"
)

// HandleOf converts the opaque value of a PointerOrError back to a handle.
// Values that cannot be handles yield the null handle.
func HandleOf(v uintptr) resource.Handle {
	if uint64(v) > math.MaxUint32 {
		return 0
	}
	return resource.Handle(v)
}

// LoadFromBytes parses a complete tokenizer definition.
func (b *Boundary) LoadFromBytes(data []byte) transcoder.PointerOrError {
	h, err := b.load(func() (*engine.Tokenizer, error) { return engine.FromBytes(data) })
	if err != nil {
		return transcoder.PointerOrError{Error: b.errorString(err)}
	}
	return transcoder.PointerOrError{Value: uintptr(h)}
}

// LoadFromPath reads and parses a tokenizer definition file. Failures are
// logged and reported as the null handle.
func (b *Boundary) LoadFromPath(path string) resource.Handle {
	h, err := b.load(func() (*engine.Tokenizer, error) { return engine.FromFile(path) })
	if err != nil {
		b.logger.Warn("load tokenizer", zap.String("path", path), zap.Error(err))
		return 0
	}
	return h
}

func (b *Boundary) load(parse func() (*engine.Tokenizer, error)) (h resource.Handle, err error) {
	defer b.guard(errors.PhaseLoad, "load", &err)
	tok, err := parse()
	if err != nil {
		return 0, err
	}
	h = b.table.Insert(tok)
	if h == 0 {
		return 0, errors.New(errors.PhaseLoad, errors.KindAllocation).
			Detail("handle table is full or closed").
			Build()
	}
	return h, nil
}

// ReleaseHandle drops the tokenizer behind h. The null handle is a no-op;
// releasing a handle that is not live is logged and ignored.
func (b *Boundary) ReleaseHandle(h resource.Handle) {
	if h == 0 {
		return
	}
	if _, ok := b.table.Remove(h); !ok {
		b.logger.Warn("release of a handle that is not live", zap.Uint32("handle", uint32(h)))
	}
}

// VocabSize returns the vocabulary size of the tokenizer behind h. An
// invalid handle is a caller bug; it is logged and reported as 0.
func (b *Boundary) VocabSize(h resource.Handle, withAddedTokens bool) uint32 {
	tok, err := b.lookup(errors.PhaseValidate, h)
	if err != nil {
		b.logger.Error("vocab size", zap.Error(err))
		return 0
	}
	return transcoder.ClampUint32(tok.VocabSize(withAddedTokens))
}

func (b *Boundary) lookup(phase errors.Phase, h resource.Handle) (*engine.Tokenizer, error) {
	tok, ok := b.table.Get(h)
	if !ok {
		return nil, errors.InvalidHandle(phase, uint32(h))
	}
	return tok, nil
}
