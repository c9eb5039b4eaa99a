package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoders(t *testing.T) {
	tests := []struct {
		name   string
		d      decoder
		tokens []string
		want   string
	}{
		{"word piece", wordPieceDecoder{prefix: "##", cleanup: true}, []string{"un", "##aff", "##able", ",", "hello"}, "unaffable, hello"},
		{"word piece no cleanup", wordPieceDecoder{prefix: "##"}, []string{"hi", "!"}, "hi !"},
		{"byte level", byteLevelDecoder{}, []string{"Hello", "Ġworld"}, "Hello world"},
		{"byte level partial rune", byteLevelDecoder{}, []string{"Ã"}, "�"},
		{"metaspace", metaspaceDecoder{replacement: "▁", scheme: prependAlways}, []string{"▁hello", "▁world"}, "hello world"},
		{"metaspace never", metaspaceDecoder{replacement: "▁", scheme: prependNever}, []string{"▁hello"}, " hello"},
		{"bpe", bpeDecoder{suffix: "</w>"}, []string{"hel", "lo</w>", "wor", "ld</w>"}, "hello world"},
		{"fuse", fuse{}, []string{"a", "b"}, "ab"},
		{"byte fallback", byteFallback{}, []string{"<0xE2>", "<0x96>", "<0x81>", "a"}, "▁a"},
		{"byte fallback invalid", byteFallback{}, []string{"<0xFF>", "b"}, "�b"},
		{"replace", replaceDecoder{from: "▁", to: " "}, []string{"▁a", "▁b"}, " a b"},
		{"strip", stripDecoder{content: " ", start: 1}, []string{" a", " b"}, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strings.Join(tt.d.decodeChain(tt.tokens), ""))
		})
	}
}

func TestNewDecoder_Sequence(t *testing.T) {
	d, err := newDecoder([]byte(`{"type":"Sequence","decoders":[
		{"type":"Replace","pattern":{"String":"▁"},"content":" "},
		{"type":"ByteFallback"},
		{"type":"Fuse"},
		{"type":"Strip","content":" ","start":1,"stop":0}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", strings.Join(d.decodeChain([]string{"▁Hello", "▁world"}), ""))

	_, err = newDecoder([]byte(`{"type":"Replace","pattern":{"Regex":"x"},"content":""}`))
	require.Error(t, err)
	_, err = newDecoder([]byte(`{"type":"CTC"}`))
	require.Error(t, err)
}
