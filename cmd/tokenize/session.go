package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gomlx/tokenizers/ffi"
	"github.com/gomlx/tokenizers/resource"
	"github.com/gomlx/tokenizers/transcoder"
)

type config struct {
	tokenizer   string
	special     bool
	charOffsets bool
	truncate    uint
	pad         uint
}

// session drives one tokenizer through the boundary exactly as a foreign
// host would: every result is copied out and released before returning.
type session struct {
	b      *ffi.Boundary
	h      resource.Handle
	params transcoder.EncodeParams
}

// report is a Go copy of one encoded buffer.
type report struct {
	text      string
	ids       []uint32
	tokens    []string
	typeIDs   []uint32
	special   []uint32
	attention []uint32
	offsets   []transcoder.Offset
	decoded   string
}

func openSession(cfg config, logger *zap.Logger) (*session, error) {
	data, err := os.ReadFile(cfg.tokenizer)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}
	b := ffi.New(ffi.Options{Allocator: transcoder.NewHeapAllocator(), Logger: logger})

	res := b.LoadFromBytes(data)
	if res.Error != nil {
		msg := transcoder.GoString(res.Error)
		b.ReleaseString(res.Error)
		return nil, fmt.Errorf("load tokenizer: %s", msg)
	}
	s := &session{
		b: b,
		h: ffi.HandleOf(res.Value),
		params: transcoder.EncodeParams{
			AddSpecialTokens:        cfg.special,
			ReturnTokens:            true,
			ReturnTypeIDs:           true,
			ReturnSpecialTokensMask: true,
			ReturnAttentionMask:     true,
			ReturnOffsets:           true,
			WithOffsetsCharMode:     cfg.charOffsets,
		},
	}

	if cfg.truncate > 0 {
		p := transcoder.TruncationParams{Direction: 1, MaxLength: uint32(cfg.truncate)}
		if msg := b.SetTruncation(s.h, &p); msg != nil {
			err := fmt.Errorf("set truncation: %s", transcoder.GoString(msg))
			b.ReleaseString(msg)
			s.close()
			return nil, err
		}
	}
	if cfg.pad > 0 {
		p := transcoder.PaddingParams{Strategy: uint32(cfg.pad), Direction: 1}
		if err := b.SetPadding(s.h, &p); err != nil {
			s.close()
			return nil, fmt.Errorf("set padding: %w", err)
		}
	}
	return s, nil
}

func (s *session) vocabSize() uint32 {
	return s.b.VocabSize(s.h, true)
}

func (s *session) encode(text string) (report, error) {
	in := s.b.NewString(text)
	if in == nil {
		return report{}, fmt.Errorf("text contains a NUL byte")
	}
	defer s.b.ReleaseString(in)

	r := s.b.Encode(s.h, in, s.params)
	defer s.b.ReleaseResults(r)
	if r.Error != nil {
		return report{}, fmt.Errorf("%s", transcoder.GoString(r.Error))
	}

	buf := transcoder.Reclaim(r.Encoded, int(r.Len)).Slice()[0]
	n := int(buf.Len)
	rep := report{
		text:      text,
		ids:       copyOf(buf.IDs, n),
		typeIDs:   copyOf(buf.TypeIDs, n),
		special:   copyOf(buf.SpecialTokensMask, n),
		attention: copyOf(buf.AttentionMask, n),
		offsets:   copyOf(buf.Offsets, n),
	}
	for _, p := range transcoder.Reclaim(buf.Tokens, n).Slice() {
		rep.tokens = append(rep.tokens, transcoder.GoString(p))
	}

	var ids *uint32
	if n > 0 {
		ids = &rep.ids[0]
	}
	out := s.b.Decode(s.h, ids, uint32(n), true)
	if out.Error != nil {
		rep.decoded = "<" + transcoder.GoString(out.Error) + ">"
		s.b.ReleaseString(out.Error)
	} else {
		rep.decoded = transcoder.GoString(out.Value)
		s.b.ReleaseString(out.Value)
	}
	return rep, nil
}

func copyOf[T any](p *T, n int) []T {
	return append([]T(nil), transcoder.Reclaim(p, n).Slice()...)
}

// close releases the tokenizer and reports allocations that were never
// returned.
func (s *session) close() error {
	s.b.ReleaseHandle(s.h)
	if live := s.b.Live(); live > 0 {
		return fmt.Errorf("%d allocations still live", live)
	}
	return nil
}

func (r report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "text:      %q\n", r.text)
	fmt.Fprintf(&b, "ids:       %v\n", r.ids)
	fmt.Fprintf(&b, "tokens:    %s\n", quoteAll(r.tokens))
	fmt.Fprintf(&b, "type_ids:  %v\n", r.typeIDs)
	fmt.Fprintf(&b, "special:   %v\n", r.special)
	fmt.Fprintf(&b, "attention: %v\n", r.attention)
	fmt.Fprintf(&b, "offsets:   %s\n", formatOffsets(r.offsets))
	fmt.Fprintf(&b, "decoded:   %q\n", r.decoded)
	return b.String()
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = strconv.Quote(s)
	}
	return "[" + strings.Join(q, " ") + "]"
}

func formatOffsets(offsets []transcoder.Offset) string {
	parts := make([]string, len(offsets))
	for i, o := range offsets {
		parts[i] = fmt.Sprintf("%d:%d", o.Start, o.End)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
