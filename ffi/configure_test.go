package ffi

import (
	"encoding/json"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gomlx/tokenizers/transcoder"
)

func TestTruncation_SetGet(t *testing.T) {
	b, h := newBoundary(t, Options{})

	var out transcoder.TruncationParams
	if b.GetTruncation(h, &out) {
		t.Fatal("fresh tokenizer reports a truncation policy")
	}

	in := transcoder.TruncationParams{Direction: 1, Strategy: 1, MaxLength: 8, Stride: 2}
	if msg := b.SetTruncation(h, &in); msg != nil {
		t.Fatalf("SetTruncation: %s", transcoder.GoString(msg))
	}
	if !b.GetTruncation(h, &out) {
		t.Fatal("GetTruncation = false after set")
	}
	if out != in {
		t.Errorf("GetTruncation = %+v, want %+v", out, in)
	}
}

func TestTruncation_Clear(t *testing.T) {
	b, h := newBoundary(t, Options{})

	if msg := b.SetTruncation(h, &transcoder.TruncationParams{MaxLength: 8}); msg != nil {
		t.Fatalf("SetTruncation: %s", transcoder.GoString(msg))
	}
	for i := 0; i < 2; i++ {
		if msg := b.SetTruncation(h, nil); msg != nil {
			t.Fatalf("clear: %s", transcoder.GoString(msg))
		}
	}

	sentinel := transcoder.TruncationParams{Direction: 7, Strategy: 7, MaxLength: 7, Stride: 7}
	out := sentinel
	if b.GetTruncation(h, &out) {
		t.Fatal("GetTruncation = true after clear")
	}
	if out != sentinel {
		t.Errorf("record written on false: %+v", out)
	}
}

func TestTruncation_Rejected(t *testing.T) {
	tests := []struct {
		name string
		in   transcoder.TruncationParams
		want string
	}{
		{"direction", transcoder.TruncationParams{Direction: 99, MaxLength: 8}, "invalid_enum at truncation.direction"},
		{"strategy", transcoder.TruncationParams{Strategy: 3, MaxLength: 8}, "invalid_enum at truncation.strategy"},
		{"stride", transcoder.TruncationParams{MaxLength: 4, Stride: 2}, "truncation.stride"},
		{"too short for specials", transcoder.TruncationParams{MaxLength: 1}, "truncation.max_length"},
		{"stride with no room left", transcoder.TruncationParams{Direction: 1, MaxLength: 2, Stride: 5}, "truncation.stride"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, h := newBoundary(t, Options{})

			prior := transcoder.TruncationParams{Direction: 1, MaxLength: 16, Stride: 1}
			if msg := b.SetTruncation(h, &prior); msg != nil {
				t.Fatalf("SetTruncation: %s", transcoder.GoString(msg))
			}

			msg := b.SetTruncation(h, &tt.in)
			if msg == nil {
				t.Fatal("expected error")
			}
			text := transcoder.GoString(msg)
			b.ReleaseString(msg)
			if !strings.HasPrefix(text, "[configure]") || !strings.Contains(text, tt.want) {
				t.Errorf("message = %q, want %s", text, tt.want)
			}

			var out transcoder.TruncationParams
			if !b.GetTruncation(h, &out) || out != prior {
				t.Errorf("GetTruncation = %+v, want unchanged %+v", out, prior)
			}
		})
	}
}

func TestTruncation_InvalidHandle(t *testing.T) {
	b := New(Options{})
	msg := b.SetTruncation(0, nil)
	if !strings.Contains(transcoder.GoString(msg), "invalid_handle") {
		t.Errorf("message = %q", transcoder.GoString(msg))
	}
	b.ReleaseString(msg)

	var out transcoder.TruncationParams
	if b.GetTruncation(0, &out) {
		t.Error("GetTruncation on the null handle = true")
	}
	if b.Live() != 0 {
		t.Errorf("Live = %d, want 0", b.Live())
	}
}

func TestTruncation_Encode(t *testing.T) {
	tests := []struct {
		name      string
		direction uint8
		want      []uint32
	}{
		{"left keeps the tail", 0, []uint32{2, 6, 3}},
		{"right keeps the head", 1, []uint32{2, 4, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, h := newBoundary(t, Options{})
			p := transcoder.TruncationParams{Direction: tt.direction, MaxLength: 3}
			if msg := b.SetTruncation(h, &p); msg != nil {
				t.Fatalf("SetTruncation: %s", transcoder.GoString(msg))
			}
			r := encodeText(b, h, "hello world café", transcoder.EncodeParams{AddSpecialTokens: true})
			defer b.ReleaseResults(r)
			if got := idsOf(mustSingle(t, r)); !slices.Equal(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncation_WithoutSpecialTokens(t *testing.T) {
	b, h := newBoundary(t, Options{})
	// Only room for the special tokens, so plain encodes cut at max_length.
	p := transcoder.TruncationParams{Direction: 1, MaxLength: 2}
	if msg := b.SetTruncation(h, &p); msg != nil {
		t.Fatalf("SetTruncation: %s", transcoder.GoString(msg))
	}

	done := make(chan []uint32, 1)
	go func() {
		r := encodeText(b, h, "hello world hello", transcoder.EncodeParams{})
		defer b.ReleaseResults(r)
		if r.Error != nil || r.Len != 1 {
			done <- nil
			return
		}
		done <- idsOf(buffers(r)[0])
	}()
	select {
	case got := <-done:
		if want := []uint32{4, 5}; !slices.Equal(got, want) {
			t.Errorf("ids = %v, want %v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("encode did not return")
	}
}

func TestTruncation_OnlySecondNeedsPair(t *testing.T) {
	b, h := newBoundary(t, Options{})
	p := transcoder.TruncationParams{Strategy: 2, MaxLength: 3}
	if msg := b.SetTruncation(h, &p); msg != nil {
		t.Fatalf("SetTruncation: %s", transcoder.GoString(msg))
	}

	r := encodeText(b, h, "hello world café", transcoder.EncodeParams{AddSpecialTokens: true})
	if r.Error == nil {
		t.Fatal("expected encode error")
	}
	b.ReleaseResults(r)

	short := encodeText(b, h, "hello", transcoder.EncodeParams{AddSpecialTokens: true})
	mustSingle(t, short)
	b.ReleaseResults(short)
}

func TestPadding_SetGet(t *testing.T) {
	b, h := newBoundary(t, Options{})

	var out transcoder.PaddingParams
	if b.GetPadding(h, &out) {
		t.Fatal("fresh tokenizer reports a padding policy")
	}

	token := b.NewString("[PAD]")
	in := transcoder.PaddingParams{Strategy: 6, Direction: 1, PadToMultipleOf: 0, PadID: 0, PadTypeID: 1, PadToken: token}
	if err := b.SetPadding(h, &in); err != nil {
		t.Fatalf("SetPadding: %v", err)
	}
	b.ReleaseString(token)

	var first, second transcoder.PaddingParams
	if !b.GetPadding(h, &first) || !b.GetPadding(h, &second) {
		t.Fatal("GetPadding = false after set")
	}
	if first.PadToken == second.PadToken {
		t.Error("each GetPadding must hand out its own pad token")
	}
	for _, got := range []transcoder.PaddingParams{first, second} {
		if transcoder.GoString(got.PadToken) != "[PAD]" {
			t.Errorf("pad token = %q", transcoder.GoString(got.PadToken))
		}
		got.PadToken = nil
		want := in
		want.PadToken = nil
		if got != want {
			t.Errorf("GetPadding = %+v, want %+v", got, want)
		}
	}
	b.ReleaseString(first.PadToken)
	b.ReleaseString(second.PadToken)
}

func TestPadding_NullTokenAndClear(t *testing.T) {
	b, h := newBoundary(t, Options{})

	if err := b.SetPadding(h, &transcoder.PaddingParams{}); err != nil {
		t.Fatalf("SetPadding: %v", err)
	}
	var out transcoder.PaddingParams
	if !b.GetPadding(h, &out) {
		t.Fatal("GetPadding = false after set")
	}
	if out.PadToken == nil || transcoder.GoString(out.PadToken) != "" {
		t.Errorf("pad token = %v, want a present empty string", out.PadToken)
	}
	if out.Strategy != 0 || out.Direction != 0 {
		t.Errorf("GetPadding = %+v, want BatchLongest/Left", out)
	}
	b.ReleaseString(out.PadToken)

	if err := b.SetPadding(h, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if b.GetPadding(h, &out) {
		t.Error("GetPadding = true after clear")
	}
}

func TestPadding_InvalidToken(t *testing.T) {
	b, h := newBoundary(t, Options{})

	good := b.NewString("[PAD]")
	defer b.ReleaseString(good)
	if err := b.SetPadding(h, &transcoder.PaddingParams{Strategy: 4, Direction: 1, PadToken: good}); err != nil {
		t.Fatalf("SetPadding: %v", err)
	}

	bad := b.NewString("\xfe\xff")
	defer b.ReleaseString(bad)
	if err := b.SetPadding(h, &transcoder.PaddingParams{PadToken: bad}); err == nil {
		t.Fatal("expected invalid UTF-8 error")
	}

	var out transcoder.PaddingParams
	if !b.GetPadding(h, &out) || out.Strategy != 4 {
		t.Errorf("GetPadding = %+v, want the previous policy", out)
	}
	b.ReleaseString(out.PadToken)

	if err := b.SetPadding(0, nil); err == nil {
		t.Error("SetPadding on the null handle must fail")
	}
}

func TestPadding_Encode(t *testing.T) {
	tests := []struct {
		name      string
		params    transcoder.PaddingParams
		want      []uint32
		attention []uint32
	}{
		{"fixed right", transcoder.PaddingParams{Strategy: 6, Direction: 1},
			[]uint32{2, 4, 5, 3, 0, 0}, []uint32{1, 1, 1, 1, 0, 0}},
		{"fixed left", transcoder.PaddingParams{Strategy: 5, Direction: 0},
			[]uint32{0, 2, 4, 5, 3}, []uint32{0, 1, 1, 1, 1}},
		{"multiple of", transcoder.PaddingParams{Direction: 1, PadToMultipleOf: 3},
			[]uint32{2, 4, 5, 3, 0, 0}, []uint32{1, 1, 1, 1, 0, 0}},
		{"already long enough", transcoder.PaddingParams{Strategy: 2, Direction: 1},
			[]uint32{2, 4, 5, 3}, []uint32{1, 1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, h := newBoundary(t, Options{})
			token := b.NewString("[PAD]")
			defer b.ReleaseString(token)
			tt.params.PadToken = token
			if err := b.SetPadding(h, &tt.params); err != nil {
				t.Fatalf("SetPadding: %v", err)
			}

			r := encodeText(b, h, "hello world", transcoder.EncodeParams{
				AddSpecialTokens:    true,
				ReturnAttentionMask: true,
			})
			defer b.ReleaseResults(r)
			buf := mustSingle(t, r)
			if got := idsOf(buf); !slices.Equal(got, tt.want) {
				t.Errorf("ids = %v, want %v", got, tt.want)
			}
			if got := transcoder.Reclaim(buf.AttentionMask, int(buf.Len)).Slice(); !slices.Equal(got, tt.attention) {
				t.Errorf("attention = %v, want %v", got, tt.attention)
			}
		})
	}
}

func TestPadding_BatchLongest(t *testing.T) {
	b, h := newBoundary(t, Options{})
	if err := b.SetPadding(h, &transcoder.PaddingParams{Direction: 1}); err != nil {
		t.Fatalf("SetPadding: %v", err)
	}

	r := encodeTexts(b, h, []string{"a", "bb", "ccc"}, transcoder.EncodeParams{ReturnTokens: true})
	defer b.ReleaseResults(r)
	if r.Error != nil {
		t.Fatalf("EncodeBatch: %s", transcoder.GoString(r.Error))
	}
	want := [][]string{
		{"a", "", ""},
		{"b", "##b", ""},
		{"c", "##c", "##c"},
	}
	for i, buf := range buffers(r) {
		if buf.Len != 3 {
			t.Errorf("buffer %d Len = %d, want 3", i, buf.Len)
		}
		if got := tokensOf(buf); !slices.Equal(got, want[i]) {
			t.Errorf("buffer %d tokens = %q, want %q", i, got, want[i])
		}
	}
}

// withSections returns the fixture definition with the given top-level
// sections replaced.
func withSections(t *testing.T, sections map[string]any) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/tokenizer.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var def map[string]any
	if err := json.Unmarshal(data, &def); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	for k, v := range sections {
		def[k] = v
	}
	data, err = json.Marshal(def)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return data
}

func TestLoad_ConfiguredDefinition(t *testing.T) {
	data := withSections(t, map[string]any{
		"truncation": map[string]any{"direction": "Right", "max_length": 10, "strategy": "LongestFirst", "stride": 0},
		"padding": map[string]any{
			"strategy": map[string]any{"Fixed": 12}, "direction": "Left",
			"pad_to_multiple_of": nil, "pad_id": 0, "pad_type_id": 0, "pad_token": "[PAD]",
		},
	})

	b := New(Options{})
	res := b.LoadFromBytes(data)
	if res.Error != nil {
		t.Fatalf("LoadFromBytes: %s", transcoder.GoString(res.Error))
	}
	h := HandleOf(res.Value)
	defer b.ReleaseHandle(h)

	var trunc transcoder.TruncationParams
	if !b.GetTruncation(h, &trunc) {
		t.Fatal("truncation section not applied")
	}
	if want := (transcoder.TruncationParams{Direction: 1, MaxLength: 10}); trunc != want {
		t.Errorf("GetTruncation = %+v, want %+v", trunc, want)
	}

	var pad transcoder.PaddingParams
	if !b.GetPadding(h, &pad) {
		t.Fatal("padding section not applied")
	}
	if pad.Strategy != 12 || pad.Direction != 0 || transcoder.GoString(pad.PadToken) != "[PAD]" {
		t.Errorf("GetPadding = %+v (%q)", pad, transcoder.GoString(pad.PadToken))
	}
	b.ReleaseString(pad.PadToken)
	if b.Live() != 0 {
		t.Errorf("Live = %d, want 0", b.Live())
	}
}

func TestLoad_PadTokenWithNUL(t *testing.T) {
	data := withSections(t, map[string]any{
		"padding": map[string]any{
			"strategy": "BatchLongest", "direction": "Right",
			"pad_id": 0, "pad_type_id": 0, "pad_token": "[P\x00D]",
		},
	})

	b := New(Options{})
	res := b.LoadFromBytes(data)
	if res.Error == nil {
		b.ReleaseHandle(HandleOf(res.Value))
		t.Fatal("expected a pad token with NUL to be rejected")
	}
	msg := transcoder.GoString(res.Error)
	b.ReleaseString(res.Error)
	if !strings.Contains(msg, "padding.pad_token") {
		t.Errorf("message = %q", msg)
	}
	if res.Value != 0 {
		t.Errorf("Value = %d, want 0 on error", res.Value)
	}
	if b.Live() != 0 {
		t.Errorf("Live = %d, want 0", b.Live())
	}
}
