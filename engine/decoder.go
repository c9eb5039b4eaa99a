package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gomlx/tokenizers/errors"
)

// decoder rewrites the token strings of a decode call; the final text is
// their concatenation.
type decoder interface {
	decodeChain(tokens []string) []string
}

type decoderSequence []decoder

func (s decoderSequence) decodeChain(tokens []string) []string {
	for _, d := range s {
		tokens = d.decodeChain(tokens)
	}
	return tokens
}

type wordPieceDecoder struct {
	prefix  string
	cleanup bool
}

func (d wordPieceDecoder) decodeChain(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if i > 0 {
			if strings.HasPrefix(tok, d.prefix) {
				tok = strings.TrimPrefix(tok, d.prefix)
			} else {
				tok = " " + tok
			}
		}
		if d.cleanup {
			tok = cleanup(tok)
		}
		out[i] = tok
	}
	return out
}

var cleanupReplacer = strings.NewReplacer(
	" .", ".",
	" ?", "?",
	" !", "!",
	" ,", ",",
	" ' ", "'",
	" n't", "n't",
	" 'm", "'m",
	" do not", " don't",
	" 's", "'s",
	" 've", "'ve",
	" 're", "'re",
)

// cleanup removes spaces tokenization introduced before punctuation and
// English contractions.
func cleanup(s string) string {
	return cleanupReplacer.Replace(s)
}

type byteLevelDecoder struct{}

func (byteLevelDecoder) decodeChain(tokens []string) []string {
	raw := byteLevelDecode(strings.Join(tokens, ""))
	return []string{strings.ToValidUTF8(string(raw), string(utf8.RuneError))}
}

type metaspaceDecoder struct {
	replacement string
	scheme      prependScheme
}

func (d metaspaceDecoder) decodeChain(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		tok = strings.ReplaceAll(tok, d.replacement, " ")
		if i == 0 && d.scheme != prependNever {
			tok = strings.TrimPrefix(tok, " ")
		}
		out[i] = tok
	}
	return out
}

type bpeDecoder struct {
	suffix string
}

func (d bpeDecoder) decodeChain(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		replacement := " "
		if i == len(tokens)-1 {
			replacement = ""
		}
		out[i] = strings.ReplaceAll(tok, d.suffix, replacement)
	}
	return out
}

type fuse struct{}

func (fuse) decodeChain(tokens []string) []string {
	return []string{strings.Join(tokens, "")}
}

type replaceDecoder struct {
	from, to string
}

func (d replaceDecoder) decodeChain(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = strings.ReplaceAll(tok, d.from, d.to)
	}
	return out
}

// byteFallback turns runs of <0xXX> tokens back into UTF-8 text.
type byteFallback struct{}

func (byteFallback) decodeChain(tokens []string) []string {
	var out []string
	var pending []byte
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if utf8.Valid(pending) {
			out = append(out, string(pending))
		} else {
			for range pending {
				out = append(out, string(utf8.RuneError))
			}
		}
		pending = pending[:0]
	}
	for _, tok := range tokens {
		if len(tok) == 6 && strings.HasPrefix(tok, "<0x") && strings.HasSuffix(tok, ">") {
			if b, err := strconv.ParseUint(tok[3:5], 16, 8); err == nil {
				pending = append(pending, byte(b))
				continue
			}
		}
		flush()
		out = append(out, tok)
	}
	flush()
	return out
}

type stripDecoder struct {
	content     string
	start, stop int
}

func (d stripDecoder) decodeChain(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		for n := 0; n < d.start; n++ {
			if !strings.HasPrefix(tok, d.content) {
				break
			}
			tok = strings.TrimPrefix(tok, d.content)
		}
		for n := 0; n < d.stop; n++ {
			if !strings.HasSuffix(tok, d.content) {
				break
			}
			tok = strings.TrimSuffix(tok, d.content)
		}
		out[i] = tok
	}
	return out
}

func newDecoder(raw json.RawMessage) (decoder, error) {
	kind, err := componentType(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "WordPiece":
		cfg := struct {
			Prefix  string `json:"prefix"`
			Cleanup bool   `json:"cleanup"`
		}{Prefix: "##", Cleanup: true}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return wordPieceDecoder{prefix: cfg.Prefix, cleanup: cfg.Cleanup}, nil
	case "ByteLevel":
		return byteLevelDecoder{}, nil
	case "Metaspace":
		m, err := newMetaspace(raw)
		if err != nil {
			return nil, err
		}
		return metaspaceDecoder{replacement: m.replacement, scheme: m.scheme}, nil
	case "BPEDecoder":
		cfg := struct {
			Suffix string `json:"suffix"`
		}{Suffix: "</w>"}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return bpeDecoder{suffix: cfg.Suffix}, nil
	case "Fuse":
		return fuse{}, nil
	case "ByteFallback":
		return byteFallback{}, nil
	case "Replace":
		var cfg struct {
			Pattern pattern `json:"pattern"`
			Content string  `json:"content"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		if cfg.Pattern.String == nil {
			return nil, fmt.Errorf("Replace decoder supports String patterns only")
		}
		return replaceDecoder{from: *cfg.Pattern.String, to: cfg.Content}, nil
	case "Strip":
		var cfg struct {
			Content string `json:"content"`
			Start   int    `json:"start"`
			Stop    int    `json:"stop"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return stripDecoder{content: cfg.Content, start: cfg.Start, stop: cfg.Stop}, nil
	case "Sequence":
		var cfg struct {
			Decoders []json.RawMessage `json:"decoders"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		seq := make(decoderSequence, 0, len(cfg.Decoders))
		for i, sub := range cfg.Decoders {
			d, err := newDecoder(sub)
			if err != nil {
				return nil, fmt.Errorf("decoders[%d]: %w", i, err)
			}
			seq = append(seq, d)
		}
		return seq, nil
	}
	return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("decoder %q", kind))
}
