package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

type pair struct {
	left, right string
}

// bpe merges characters by rank until no ranked pair is left.
type bpe struct {
	vocab
	ranks        map[pair]int
	unk          string
	prefix       string
	suffix       string
	fuseUnk      bool
	byteFallback bool
}

func newBPE(raw json.RawMessage) (*bpe, error) {
	var cfg struct {
		Vocab                   map[string]uint32 `json:"vocab"`
		Merges                  []json.RawMessage `json:"merges"`
		UnkToken                *string           `json:"unk_token"`
		ContinuingSubwordPrefix *string           `json:"continuing_subword_prefix"`
		EndOfWordSuffix         *string           `json:"end_of_word_suffix"`
		FuseUnk                 bool              `json:"fuse_unk"`
		ByteFallback            bool              `json:"byte_fallback"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	m := &bpe{
		vocab:        newVocab(cfg.Vocab),
		ranks:        make(map[pair]int, len(cfg.Merges)),
		fuseUnk:      cfg.FuseUnk,
		byteFallback: cfg.ByteFallback,
	}
	if cfg.UnkToken != nil {
		m.unk = *cfg.UnkToken
	}
	if cfg.ContinuingSubwordPrefix != nil {
		m.prefix = *cfg.ContinuingSubwordPrefix
	}
	if cfg.EndOfWordSuffix != nil {
		m.suffix = *cfg.EndOfWordSuffix
	}
	for rank, rawMerge := range cfg.Merges {
		p, err := parseMerge(rawMerge)
		if err != nil {
			return nil, fmt.Errorf("merges[%d]: %w", rank, err)
		}
		for _, part := range []string{p.left, p.right, m.merged(p)} {
			if _, ok := m.ids[part]; !ok {
				return nil, fmt.Errorf("merges[%d]: %q not in vocabulary", rank, part)
			}
		}
		if _, dup := m.ranks[p]; !dup {
			m.ranks[p] = rank
		}
	}
	return m, nil
}

// parseMerge accepts both "a b" and ["a", "b"] merge entries.
func parseMerge(raw json.RawMessage) (pair, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		left, right, ok := strings.Cut(s, " ")
		if !ok {
			return pair{}, fmt.Errorf("merge %q is not a pair", s)
		}
		return pair{left, right}, nil
	}
	var parts []string
	if err := json.Unmarshal(raw, &parts); err != nil {
		return pair{}, err
	}
	if len(parts) != 2 {
		return pair{}, fmt.Errorf("merge has %d parts", len(parts))
	}
	return pair{parts[0], parts[1]}, nil
}

func (m *bpe) merged(p pair) string {
	if m.prefix != "" {
		return p.left + strings.TrimPrefix(p.right, m.prefix)
	}
	return p.left + p.right
}

// symbol is a word fragment during merging.
type symbol struct {
	value      string
	start, end int
	fixed      bool // unknown or byte-fallback, never merged
}

func (m *bpe) tokenize(s string) ([]token, error) {
	if s == "" {
		return nil, nil
	}
	symbols, err := m.initial(s)
	if err != nil {
		return nil, err
	}
	for {
		best, bestRank := -1, 0
		for i := 0; i+1 < len(symbols); i++ {
			if symbols[i].fixed || symbols[i+1].fixed {
				continue
			}
			rank, ok := m.ranks[pair{symbols[i].value, symbols[i+1].value}]
			if ok && (best < 0 || rank < bestRank) {
				best, bestRank = i, rank
			}
		}
		if best < 0 {
			break
		}
		a, b := symbols[best], symbols[best+1]
		symbols[best] = symbol{value: m.merged(pair{a.value, b.value}), start: a.start, end: b.end}
		symbols = append(symbols[:best+1], symbols[best+2:]...)
	}
	out := make([]token, 0, len(symbols))
	for _, sym := range symbols {
		id, ok := m.ids[sym.value]
		if !ok {
			return nil, fmt.Errorf("merged token %q not in vocabulary", sym.value)
		}
		out = append(out, token{id: id, value: sym.value, start: sym.start, end: sym.end})
	}
	return out, nil
}

// initial splits s into one symbol per character, resolving characters
// missing from the vocabulary through byte fallback or the unknown token.
func (m *bpe) initial(s string) ([]symbol, error) {
	bounds := runeBounds(s)
	symbols := make([]symbol, 0, len(bounds))
	last := len(bounds) - 2
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		value := s[start:end]
		if i > 0 {
			value = m.prefix + value
		}
		if i == last {
			value += m.suffix
		}
		if _, ok := m.ids[value]; ok {
			symbols = append(symbols, symbol{value: value, start: start, end: end})
			continue
		}
		if m.byteFallback {
			fallback := make([]symbol, 0, end-start)
			for j := start; j < end; j++ {
				b := fmt.Sprintf("<0x%02X>", s[j])
				if _, ok := m.ids[b]; !ok {
					fallback = nil
					break
				}
				fallback = append(fallback, symbol{value: b, start: start, end: end, fixed: true})
			}
			if fallback != nil {
				symbols = append(symbols, fallback...)
				continue
			}
		}
		if m.unk == "" {
			continue
		}
		if _, ok := m.ids[m.unk]; !ok {
			return nil, fmt.Errorf("unknown token %q missing from vocabulary", m.unk)
		}
		if n := len(symbols); m.fuseUnk && n > 0 && symbols[n-1].fixed && symbols[n-1].value == m.unk {
			symbols[n-1].end = end
			continue
		}
		symbols = append(symbols, symbol{value: m.unk, start: start, end: end, fixed: true})
	}
	return symbols, nil
}
