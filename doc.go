// Package tokenizers exposes a tokenization engine to foreign hosts through a
// flat, pointer-based calling convention.
//
// The hard part is not tokenizing, which is delegated to the engine, but the
// memory-ownership protocol across the boundary: opaque handles, flat
// configuration records, self-describing result buffers, and an explicit
// release entry point for every allocation handed out.
//
// # Architecture Overview
//
//	tokenizers/          Root package with the Allocator interface
//	├── ffi/             Boundary API: handles, configuration, encode/decode, release
//	├── transcoder/      Flat result layouts, owned buffers, C strings, rollback lists
//	├── resource/        Handle table mapping opaque handles to engine instances
//	├── engine/          Tokenizer engine reading HuggingFace tokenizer.json
//	├── errors/          Structured error types carried by the error channel
//	├── cmem/            cgo allocator over malloc/free
//	└── cmd/
//	    ├── libtokenizers/  C shared library (go build -buildmode=c-shared)
//	    └── tokenize/       Developer tool driving the boundary end to end
//
// # Quick Start
//
//	b := ffi.New(ffi.Options{})
//	res := b.LoadFromBytes(tokenizerJSON)
//	if res.Error != nil {
//	    log.Fatal(transcoder.GoString(res.Error))
//	}
//	h := ffi.HandleOf(res.Value)
//	defer b.ReleaseHandle(h)
//
//	text := b.NewString("hello world")
//	defer b.ReleaseString(text)
//
//	results := b.Encode(h, text, ffi.DefaultEncodeParams())
//	defer b.ReleaseResults(results)
//
// # Ownership
//
// Every buffer, string and aggregate returned by the boundary belongs to the
// caller until it is passed to its release function, exactly once. Fields that
// were not requested are nil and are never allocated.
//
// # Thread Safety
//
// Distinct handles may be used in parallel. Calls on the same handle must be
// serialized by the host; configuration changes mutate the engine in place.
package tokenizers
