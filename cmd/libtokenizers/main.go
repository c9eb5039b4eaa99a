// Command libtokenizers builds the C shared library:
//
//	go build -buildmode=c-shared -o libtokenizers.so ./cmd/libtokenizers
//
// Every export is a cast over the ffi package. Results are allocated with
// malloc, so they stay valid until released, whatever the Go runtime does.
// Set TOKENIZERS_LOG to get JSON logs on stderr.
package main

/*
#cgo CFLAGS: -I${SRCDIR}
#define TOKENIZERS_NO_PROTOTYPES
#include "tokenizers.h"
*/
import "C"

import (
	"os"
	"slices"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/gomlx/tokenizers/cmem"
	"github.com/gomlx/tokenizers/engine"
	"github.com/gomlx/tokenizers/ffi"
	"github.com/gomlx/tokenizers/resource"
	"github.com/gomlx/tokenizers/transcoder"
)

// The Go mirrors must match the C records byte for byte.
var (
	_ [unsafe.Sizeof(C.TruncationParams{}) - unsafe.Sizeof(transcoder.TruncationParams{})]struct{}
	_ [unsafe.Sizeof(transcoder.TruncationParams{}) - unsafe.Sizeof(C.TruncationParams{})]struct{}
	_ [unsafe.Sizeof(C.PaddingParams{}) - unsafe.Sizeof(transcoder.PaddingParams{})]struct{}
	_ [unsafe.Sizeof(transcoder.PaddingParams{}) - unsafe.Sizeof(C.PaddingParams{})]struct{}
	_ [unsafe.Sizeof(C.EncodeParams{}) - unsafe.Sizeof(transcoder.EncodeParams{})]struct{}
	_ [unsafe.Sizeof(transcoder.EncodeParams{}) - unsafe.Sizeof(C.EncodeParams{})]struct{}
	_ [unsafe.Sizeof(C.Buffer{}) - unsafe.Sizeof(transcoder.Buffer{})]struct{}
	_ [unsafe.Sizeof(transcoder.Buffer{}) - unsafe.Sizeof(C.Buffer{})]struct{}
	_ [unsafe.Sizeof(C.EncodeResults{}) - unsafe.Sizeof(transcoder.Results{})]struct{}
	_ [unsafe.Sizeof(transcoder.Results{}) - unsafe.Sizeof(C.EncodeResults{})]struct{}
	_ [unsafe.Sizeof(C.PointerOrError{}) - unsafe.Sizeof(transcoder.PointerOrError{})]struct{}
	_ [unsafe.Sizeof(transcoder.PointerOrError{}) - unsafe.Sizeof(C.PointerOrError{})]struct{}
	_ [unsafe.Sizeof(C.StringOrError{}) - unsafe.Sizeof(transcoder.StringOrError{})]struct{}
	_ [unsafe.Sizeof(transcoder.StringOrError{}) - unsafe.Sizeof(C.StringOrError{})]struct{}
)

var (
	boundary     *ffi.Boundary
	boundaryOnce sync.Once
)

func lib() *ffi.Boundary {
	boundaryOnce.Do(func() {
		opts := ffi.Options{Allocator: cmem.New()}
		if os.Getenv("TOKENIZERS_LOG") != "" {
			if l, err := zap.NewProduction(); err == nil {
				ffi.SetLogger(l)
				engine.SetLogger(l)
			}
		}
		boundary = ffi.New(opts)
	})
	return boundary
}

func handle(h C.tokenizer_handle) resource.Handle {
	return ffi.HandleOf(uintptr(h))
}

func cstr(p *byte) *C.char {
	return (*C.char)(unsafe.Pointer(p))
}

//export from_bytes
func from_bytes(data *C.uint8_t, n C.uint32_t) C.PointerOrError {
	var buf []byte
	if data != nil {
		buf = slices.Clone(unsafe.Slice((*byte)(unsafe.Pointer(data)), int(n)))
	}
	res := lib().LoadFromBytes(buf)
	return *(*C.PointerOrError)(unsafe.Pointer(&res))
}

//export from_file
func from_file(path *C.char) C.tokenizer_handle {
	if path == nil {
		return 0
	}
	return C.tokenizer_handle(lib().LoadFromPath(C.GoString(path)))
}

//export free_tokenizer
func free_tokenizer(h C.tokenizer_handle) {
	lib().ReleaseHandle(handle(h))
}

//export vocab_size
func vocab_size(h C.tokenizer_handle) C.uint32_t {
	return C.uint32_t(lib().VocabSize(handle(h), true))
}

//export set_truncation
func set_truncation(h C.tokenizer_handle, params *C.TruncationParams) *C.char {
	return cstr(lib().SetTruncation(handle(h), (*transcoder.TruncationParams)(unsafe.Pointer(params))))
}

//export get_truncation
func get_truncation(h C.tokenizer_handle, params *C.TruncationParams) C.bool {
	return C.bool(lib().GetTruncation(handle(h), (*transcoder.TruncationParams)(unsafe.Pointer(params))))
}

//export set_padding
func set_padding(h C.tokenizer_handle, params *C.PaddingParams) {
	b := lib()
	if err := b.SetPadding(handle(h), (*transcoder.PaddingParams)(unsafe.Pointer(params))); err != nil {
		ffi.Logger().Error("set padding", zap.Error(err))
	}
}

//export get_padding
func get_padding(h C.tokenizer_handle, params *C.PaddingParams) C.bool {
	return C.bool(lib().GetPadding(handle(h), (*transcoder.PaddingParams)(unsafe.Pointer(params))))
}

//export encode
func encode(h C.tokenizer_handle, text *C.char, options C.EncodeParams) C.EncodeResults {
	params := *(*transcoder.EncodeParams)(unsafe.Pointer(&options))
	r := lib().Encode(handle(h), (*byte)(unsafe.Pointer(text)), params)
	return *(*C.EncodeResults)(unsafe.Pointer(&r))
}

//export encode_batch
func encode_batch(h C.tokenizer_handle, count C.uint32_t, texts **C.char, options C.EncodeParams) C.EncodeResults {
	params := *(*transcoder.EncodeParams)(unsafe.Pointer(&options))
	r := lib().EncodeBatch(handle(h), uint32(count), (**byte)(unsafe.Pointer(texts)), params)
	return *(*C.EncodeResults)(unsafe.Pointer(&r))
}

//export decode
func decode(h C.tokenizer_handle, ids *C.uint32_t, n C.uint32_t, skip C.bool) *C.char {
	b := lib()
	out := b.Decode(handle(h), (*uint32)(unsafe.Pointer(ids)), uint32(n), bool(skip))
	if out.Error != nil {
		ffi.Logger().Error("decode", zap.String("error", transcoder.GoString(out.Error)))
		b.ReleaseString(out.Error)
		return nil
	}
	return cstr(out.Value)
}

//export decode_with_error
func decode_with_error(h C.tokenizer_handle, ids *C.uint32_t, n C.uint32_t, skip C.bool) C.StringOrError {
	out := lib().Decode(handle(h), (*uint32)(unsafe.Pointer(ids)), uint32(n), bool(skip))
	return *(*C.StringOrError)(unsafe.Pointer(&out))
}

//export free_encode_results
func free_encode_results(results C.EncodeResults) {
	lib().ReleaseResults(*(*transcoder.Results)(unsafe.Pointer(&results)))
}

//export free_string
func free_string(p *C.char) {
	lib().ReleaseString((*byte)(unsafe.Pointer(p)))
}

func main() {}
