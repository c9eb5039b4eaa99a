package ffi

import (
	"go.uber.org/zap"

	"github.com/gomlx/tokenizers/transcoder"
)

// ReleaseResults frees a result of Encode or EncodeBatch. The zero Results
// is a no-op.
func (b *Boundary) ReleaseResults(r transcoder.Results) {
	transcoder.ReleaseResults(b.alloc, r)
}

// ReleaseString frees any string handed out by the boundary: error
// messages, decoded text, pad tokens and strings made by NewString. Nil is
// a no-op.
func (b *Boundary) ReleaseString(p *byte) {
	transcoder.FreeCString(b.alloc, p)
}

// NewString copies s into a NUL-terminated string owned by the caller, for
// hosts that build inputs through the boundary allocator. It returns nil
// when s contains a NUL byte.
func (b *Boundary) NewString(s string) *byte {
	p, err := transcoder.NewCString(b.alloc, nil, s)
	if err != nil {
		b.logger.Warn("new string", zap.Error(err))
		return nil
	}
	return p
}
