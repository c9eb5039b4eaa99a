package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/gomlx/tokenizers/errors"
)

// preTokenizer splits normalized text into the pieces the model sees.
type preTokenizer interface {
	split(n normalized) []normalized
}

// splitBehavior controls what happens to the delimiter of a split.
type splitBehavior uint8

const (
	splitRemoved splitBehavior = iota
	splitIsolated
	splitMergedWithPrevious
	splitMergedWithNext
	splitContiguous
)

func parseSplitBehavior(s string) (splitBehavior, error) {
	switch s {
	case "Removed":
		return splitRemoved, nil
	case "Isolated", "":
		return splitIsolated, nil
	case "MergedWithPrevious":
		return splitMergedWithPrevious, nil
	case "MergedWithNext":
		return splitMergedWithNext, nil
	case "Contiguous":
		return splitContiguous, nil
	}
	return 0, fmt.Errorf("unknown split behavior %q", s)
}

// splitMatches cuts n around the delimiter ranges in matches.
func splitMatches(n normalized, matches []match, behavior splitBehavior, invert bool) []normalized {
	type segment struct {
		start, end int
		delim      bool
	}
	var segs []segment
	last := 0
	for _, m := range matches {
		if m.start > last {
			segs = append(segs, segment{last, m.start, invert})
		}
		segs = append(segs, segment{m.start, m.end, !invert})
		last = m.end
	}
	if last < len(n.text) {
		segs = append(segs, segment{last, len(n.text), invert})
	}

	var ranges []match
	pendingNext := -1
	for i, s := range segs {
		if !s.delim {
			start := s.start
			if pendingNext >= 0 {
				start = pendingNext
				pendingNext = -1
			}
			ranges = append(ranges, match{start, s.end})
			continue
		}
		switch behavior {
		case splitRemoved:
		case splitIsolated:
			ranges = append(ranges, match{s.start, s.end})
		case splitContiguous:
			if i > 0 && segs[i-1].delim && len(ranges) > 0 && ranges[len(ranges)-1].end == s.start {
				ranges[len(ranges)-1].end = s.end
			} else {
				ranges = append(ranges, match{s.start, s.end})
			}
		case splitMergedWithPrevious:
			if i > 0 && !segs[i-1].delim && len(ranges) > 0 {
				ranges[len(ranges)-1].end = s.end
			} else {
				ranges = append(ranges, match{s.start, s.end})
			}
		case splitMergedWithNext:
			if pendingNext >= 0 {
				ranges = append(ranges, match{pendingNext, s.start})
			}
			pendingNext = s.start
		}
	}
	if pendingNext >= 0 {
		ranges = append(ranges, match{pendingNext, len(n.text)})
	}

	out := make([]normalized, 0, len(ranges))
	for _, r := range ranges {
		if r.end > r.start {
			out = append(out, n.slice(r.start, r.end))
		}
	}
	return out
}

// runMatches returns maximal runs of runes for which in reports true.
func runMatches(s string, in func(r rune) bool) []match {
	var out []match
	start := -1
	for i, r := range s {
		if in(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, match{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, match{start, len(s)})
	}
	return out
}

// runeMatches returns every rune for which in reports true as its own match.
func runeMatches(s string, in func(r rune) bool) []match {
	var out []match
	for i, r := range s {
		if in(r) {
			out = append(out, match{i, i + utf8.RuneLen(r)})
		}
	}
	return out
}

type preTokenizerSequence []preTokenizer

func (s preTokenizerSequence) split(n normalized) []normalized {
	pieces := []normalized{n}
	for _, p := range s {
		var next []normalized
		for _, piece := range pieces {
			next = append(next, p.split(piece)...)
		}
		pieces = next
	}
	return pieces
}

var wordRegexp = regexp2.MustCompile(`\w+|[^\w\s]+`, regexp2.None)

// whitespace keeps runs of word characters and runs of punctuation.
type whitespace struct{}

func (whitespace) split(n normalized) []normalized {
	return splitMatches(n, findAll(wordRegexp, n.text), splitRemoved, true)
}

type whitespaceSplit struct{}

func (whitespaceSplit) split(n normalized) []normalized {
	return splitMatches(n, runMatches(n.text, unicode.IsSpace), splitRemoved, false)
}

func isBertPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

type bertPreTokenizer struct{}

func (bertPreTokenizer) split(n normalized) []normalized {
	var out []normalized
	for _, piece := range splitMatches(n, runMatches(n.text, unicode.IsSpace), splitRemoved, false) {
		out = append(out, splitMatches(piece, runeMatches(piece.text, isBertPunctuation), splitIsolated, false)...)
	}
	return out
}

type punctuation struct {
	behavior splitBehavior
}

func (p punctuation) split(n normalized) []normalized {
	return splitMatches(n, runeMatches(n.text, isBertPunctuation), p.behavior, false)
}

type digits struct {
	individual bool
}

func (d digits) split(n normalized) []normalized {
	if d.individual {
		return splitMatches(n, runeMatches(n.text, unicode.IsDigit), splitIsolated, false)
	}
	return splitMatches(n, runMatches(n.text, unicode.IsDigit), splitIsolated, false)
}

var gpt2Regexp = regexp2.MustCompile(
	`'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`,
	regexp2.None)

// byteLevel splits GPT-2 style and maps every byte to a printable rune.
type byteLevel struct {
	addPrefixSpace bool
	useRegex       bool
}

func (b byteLevel) split(n normalized) []normalized {
	if b.addPrefixSpace && !strings.HasPrefix(n.text, " ") && n.text != "" {
		n = n.prepend(" ")
	}
	pieces := []normalized{n}
	if b.useRegex {
		pieces = splitMatches(n, findAll(gpt2Regexp, n.text), splitIsolated, false)
	}
	for i, p := range pieces {
		pieces[i] = byteLevelEncode(p)
	}
	return pieces
}

// prependScheme controls when Metaspace adds the replacement in front.
type prependScheme uint8

const (
	prependAlways prependScheme = iota
	prependFirst
	prependNever
)

type metaspace struct {
	replacement string
	scheme      prependScheme
	splitPieces bool
}

func (m metaspace) split(n normalized) []normalized {
	n = n.mapRunes(func(r rune) string {
		if r == ' ' {
			return m.replacement
		}
		return string(r)
	})
	first := len(n.align) > 0 && n.align[0].start == 0
	if m.scheme == prependAlways || (m.scheme == prependFirst && first) {
		if !strings.HasPrefix(n.text, m.replacement) {
			n = n.prepend(m.replacement)
		}
	}
	if !m.splitPieces {
		return []normalized{n}
	}
	var matches []match
	for i := 0; ; {
		j := strings.Index(n.text[i:], m.replacement)
		if j < 0 {
			break
		}
		matches = append(matches, match{i + j, i + j + len(m.replacement)})
		i += j + len(m.replacement)
	}
	return splitMatches(n, matches, splitMergedWithNext, false)
}

type splitter struct {
	re       *regexp2.Regexp
	behavior splitBehavior
	invert   bool
}

func (s splitter) split(n normalized) []normalized {
	return splitMatches(n, findAll(s.re, n.text), s.behavior, s.invert)
}

func newPreTokenizer(raw json.RawMessage) (preTokenizer, error) {
	kind, err := componentType(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Whitespace":
		return whitespace{}, nil
	case "WhitespaceSplit":
		return whitespaceSplit{}, nil
	case "BertPreTokenizer":
		return bertPreTokenizer{}, nil
	case "Punctuation":
		var cfg struct {
			Behavior string `json:"behavior"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		behavior, err := parseSplitBehavior(cfg.Behavior)
		if err != nil {
			return nil, err
		}
		return punctuation{behavior: behavior}, nil
	case "Digits":
		var cfg struct {
			Individual bool `json:"individual_digits"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return digits{individual: cfg.Individual}, nil
	case "ByteLevel":
		cfg := struct {
			AddPrefixSpace bool `json:"add_prefix_space"`
			UseRegex       bool `json:"use_regex"`
		}{AddPrefixSpace: true, UseRegex: true}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return byteLevel{addPrefixSpace: cfg.AddPrefixSpace, useRegex: cfg.UseRegex}, nil
	case "Metaspace":
		return newMetaspace(raw)
	case "Split":
		var cfg struct {
			Pattern  pattern `json:"pattern"`
			Behavior string  `json:"behavior"`
			Invert   bool    `json:"invert"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		re, err := compilePattern(cfg.Pattern)
		if err != nil {
			return nil, err
		}
		behavior, err := parseSplitBehavior(cfg.Behavior)
		if err != nil {
			return nil, err
		}
		return splitter{re: re, behavior: behavior, invert: cfg.Invert}, nil
	case "Sequence":
		var cfg struct {
			PreTokenizers []json.RawMessage `json:"pretokenizers"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		seq := make(preTokenizerSequence, 0, len(cfg.PreTokenizers))
		for i, sub := range cfg.PreTokenizers {
			p, err := newPreTokenizer(sub)
			if err != nil {
				return nil, fmt.Errorf("pretokenizers[%d]: %w", i, err)
			}
			seq = append(seq, p)
		}
		return seq, nil
	}
	return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("pre-tokenizer %q", kind))
}

// metaspaceJSON covers both the legacy add_prefix_space flag and the newer
// prepend_scheme field.
type metaspaceJSON struct {
	Replacement    string `json:"replacement"`
	AddPrefixSpace *bool  `json:"add_prefix_space"`
	PrependScheme  string `json:"prepend_scheme"`
	Split          *bool  `json:"split"`
}

func (cfg metaspaceJSON) build() (metaspace, error) {
	m := metaspace{replacement: cfg.Replacement, scheme: prependAlways, splitPieces: true}
	if m.replacement == "" {
		m.replacement = "▁"
	}
	if cfg.AddPrefixSpace != nil && !*cfg.AddPrefixSpace {
		m.scheme = prependNever
	}
	switch cfg.PrependScheme {
	case "":
	case "always":
		m.scheme = prependAlways
	case "first":
		m.scheme = prependFirst
	case "never":
		m.scheme = prependNever
	default:
		return m, fmt.Errorf("unknown prepend_scheme %q", cfg.PrependScheme)
	}
	if cfg.Split != nil {
		m.splitPieces = *cfg.Split
	}
	return m, nil
}

func newMetaspace(raw json.RawMessage) (metaspace, error) {
	var cfg metaspaceJSON
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return metaspace{}, err
	}
	return cfg.build()
}
