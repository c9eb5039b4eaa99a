package ffi

import (
	"go.uber.org/zap"

	"github.com/gomlx/tokenizers/errors"
	"github.com/gomlx/tokenizers/transcoder"
)

// guard turns a panic raised below a boundary call into an engine error.
// Must be deferred directly.
func (b *Boundary) guard(phase errors.Phase, op string, errp *error) {
	if r := recover(); r != nil {
		b.logger.Error("recovered panic", zap.String("op", op), zap.Any("panic", r))
		*errp = errors.Recovered(phase, op, r)
	}
}

// errorString lowers err into an owned message. Nil means even the message
// could not be allocated; that is logged.
func (b *Boundary) errorString(err error) *byte {
	msg, lerr := transcoder.ErrorString(b.alloc, err)
	if lerr != nil {
		b.logger.Error("lower error message", zap.Error(lerr), zap.NamedError("cause", err))
		return nil
	}
	return msg
}

func (b *Boundary) errorResults(err error) transcoder.Results {
	r, lerr := transcoder.ErrorResults(b.alloc, err)
	if lerr != nil {
		b.logger.Error("lower error results", zap.Error(lerr), zap.NamedError("cause", err))
		return transcoder.Results{}
	}
	return r
}
