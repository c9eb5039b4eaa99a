package ffi

import (
	"go.uber.org/zap"

	"github.com/gomlx/tokenizers"
	"github.com/gomlx/tokenizers/engine"
	"github.com/gomlx/tokenizers/resource"
	"github.com/gomlx/tokenizers/transcoder"
)

// Options configures a Boundary. The zero value is usable.
type Options struct {
	// Allocator backs every buffer and string handed to the caller.
	// Defaults to a transcoder.HeapAllocator.
	Allocator tokenizers.Allocator

	// Logger defaults to Logger().
	Logger *zap.Logger
}

// Boundary owns the handle table and the allocator of one foreign-call
// surface. Everything it hands out must be returned to the same Boundary.
type Boundary struct {
	alloc  tokenizers.Allocator
	logger *zap.Logger
	table  *resource.Table[*engine.Tokenizer]
}

// New creates a Boundary.
func New(opts Options) *Boundary {
	b := &Boundary{
		alloc:  opts.Allocator,
		logger: opts.Logger,
		table:  resource.NewTable[*engine.Tokenizer](),
	}
	if b.alloc == nil {
		b.alloc = transcoder.NewHeapAllocator()
	}
	if b.logger == nil {
		b.logger = Logger()
	}
	b.table.Subscribe(handleLogger{b.logger})
	return b
}

// Allocator returns the allocator results are built with.
func (b *Boundary) Allocator() tokenizers.Allocator {
	return b.alloc
}

// Live returns the number of outstanding allocations, or -1 when the
// allocator does not track them.
func (b *Boundary) Live() int {
	if c, ok := b.alloc.(tokenizers.LiveCounter); ok {
		return c.Live()
	}
	return -1
}

// Handles returns the number of live tokenizer handles.
func (b *Boundary) Handles() int {
	return b.table.Len()
}

// Close releases every live handle. Buffers already handed out stay valid
// and must still be released.
func (b *Boundary) Close() error {
	return b.table.Close()
}

type handleLogger struct {
	logger *zap.Logger
}

func (l handleLogger) OnResourceEvent(e resource.Event) {
	l.logger.Debug("tokenizer handle",
		zap.Stringer("event", e.Type),
		zap.Uint32("handle", uint32(e.Handle)))
}
