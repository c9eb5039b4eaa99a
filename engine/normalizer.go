package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
	"github.com/gomlx/tokenizers/errors"
	"golang.org/x/text/unicode/norm"
)

// normalizer rewrites text before pre-tokenization, keeping alignment.
type normalizer interface {
	normalize(n normalized) normalized
}

type normalizerSequence []normalizer

func (s normalizerSequence) normalize(n normalized) normalized {
	for _, x := range s {
		n = x.normalize(n)
	}
	return n
}

type lowercase struct{}

func (lowercase) normalize(n normalized) normalized {
	return n.mapRunes(func(r rune) string { return strings.ToLower(string(r)) })
}

// unicodeForm applies a Unicode normalization form one segment (a starter
// and its combining marks) at a time, so composed characters stay aligned to
// every input character they came from.
type unicodeForm struct {
	form norm.Form
}

func (u unicodeForm) normalize(n normalized) normalized {
	if u.form.IsNormalString(n.text) {
		return n
	}
	return n.mapSegments(func(rest string) (int, string) {
		end := u.form.NextBoundaryInString(rest, true)
		if end <= 0 {
			end = len(rest)
		}
		return end, u.form.String(rest[:end])
	})
}

type stripAccents struct{}

func (stripAccents) normalize(n normalized) normalized {
	return n.mapRunes(func(r rune) string {
		if unicode.Is(unicode.Mn, r) {
			return ""
		}
		return string(r)
	})
}

type strip struct {
	left, right bool
}

func (s strip) normalize(n normalized) normalized {
	return n.trim(s.left, s.right, unicode.IsSpace)
}

type prependNormalizer struct {
	prefix string
}

func (p prependNormalizer) normalize(n normalized) normalized {
	if n.text == "" {
		return n
	}
	return n.prepend(p.prefix)
}

// replace substitutes every match of re with content.
type replace struct {
	re      *regexp2.Regexp
	content string
}

func (r replace) normalize(n normalized) normalized {
	matches := findAll(r.re, n.text)
	if len(matches) == 0 {
		return n
	}
	var b builder
	last := 0
	for _, m := range matches {
		for i := last; i < m.start; {
			size := runeSize(n.text, i)
			b.write(n.text[i:i+size], n.original(i, i+size))
			i += size
		}
		b.write(r.content, n.original(m.start, m.end))
		last = m.end
	}
	for i := last; i < len(n.text); {
		size := runeSize(n.text, i)
		b.write(n.text[i:i+size], n.original(i, i+size))
		i += size
	}
	return b.normalized()
}

// bertNormalizer cleans control characters, isolates CJK ideographs and
// optionally strips accents and lowercases.
type bertNormalizer struct {
	cleanText     bool
	chineseChars  bool
	stripAccents  bool
	lowercaseText bool
}

func (bn bertNormalizer) normalize(n normalized) normalized {
	if bn.cleanText {
		n = n.mapRunes(func(r rune) string {
			switch {
			case r == 0 || r == unicode.ReplacementChar || isControl(r):
				return ""
			case isWhitespace(r):
				return " "
			}
			return string(r)
		})
	}
	if bn.chineseChars {
		n = n.mapRunes(func(r rune) string {
			if isChineseChar(r) {
				return " " + string(r) + " "
			}
			return string(r)
		})
	}
	if bn.stripAccents {
		n = unicodeForm{norm.NFD}.normalize(n)
		n = stripAccents{}.normalize(n)
	}
	if bn.lowercaseText {
		n = lowercase{}.normalize(n)
	}
	return n
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.In(r, unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs)
}

func isChineseChar(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}

func newNormalizer(raw json.RawMessage) (normalizer, error) {
	kind, err := componentType(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Lowercase":
		return lowercase{}, nil
	case "NFC":
		return unicodeForm{norm.NFC}, nil
	case "NFD":
		return unicodeForm{norm.NFD}, nil
	case "NFKC":
		return unicodeForm{norm.NFKC}, nil
	case "NFKD":
		return unicodeForm{norm.NFKD}, nil
	case "StripAccents":
		return stripAccents{}, nil
	case "Strip":
		var cfg struct {
			Left  bool `json:"strip_left"`
			Right bool `json:"strip_right"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return strip{left: cfg.Left, right: cfg.Right}, nil
	case "Prepend":
		var cfg struct {
			Prepend string `json:"prepend"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return prependNormalizer{prefix: cfg.Prepend}, nil
	case "Replace":
		var cfg struct {
			Pattern pattern `json:"pattern"`
			Content string  `json:"content"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		re, err := compilePattern(cfg.Pattern)
		if err != nil {
			return nil, err
		}
		return replace{re: re, content: cfg.Content}, nil
	case "BertNormalizer":
		cfg := struct {
			CleanText          bool  `json:"clean_text"`
			HandleChineseChars bool  `json:"handle_chinese_chars"`
			StripAccents       *bool `json:"strip_accents"`
			Lowercase          bool  `json:"lowercase"`
		}{CleanText: true, HandleChineseChars: true, Lowercase: true}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		// strip_accents follows lowercase unless set explicitly.
		accents := cfg.Lowercase
		if cfg.StripAccents != nil {
			accents = *cfg.StripAccents
		}
		return bertNormalizer{
			cleanText:     cfg.CleanText,
			chineseChars:  cfg.HandleChineseChars,
			stripAccents:  accents,
			lowercaseText: cfg.Lowercase,
		}, nil
	case "Sequence":
		var cfg struct {
			Normalizers []json.RawMessage `json:"normalizers"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		seq := make(normalizerSequence, 0, len(cfg.Normalizers))
		for i, sub := range cfg.Normalizers {
			x, err := newNormalizer(sub)
			if err != nil {
				return nil, fmt.Errorf("normalizers[%d]: %w", i, err)
			}
			seq = append(seq, x)
		}
		return seq, nil
	}
	return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("normalizer %q", kind))
}
