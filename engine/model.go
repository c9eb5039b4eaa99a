package engine

import (
	"encoding/json"
	"fmt"

	"github.com/gomlx/tokenizers/errors"
)

// token is a model output; start and end are byte offsets into the piece
// that was tokenized.
type token struct {
	id         uint32
	value      string
	start, end int
}

// model turns one pre-tokenized piece into tokens.
type model interface {
	tokenize(s string) ([]token, error)
	tokenToID(s string) (uint32, bool)
	idToToken(id uint32) (string, bool)
	vocabSize() int
}

// vocab is a bidirectional token/id table.
type vocab struct {
	ids    map[string]uint32
	tokens map[uint32]string
}

func newVocab(ids map[string]uint32) vocab {
	v := vocab{ids: ids, tokens: make(map[uint32]string, len(ids))}
	for tok, id := range ids {
		v.tokens[id] = tok
	}
	return v
}

func (v vocab) tokenToID(s string) (uint32, bool) {
	id, ok := v.ids[s]
	return id, ok
}

func (v vocab) idToToken(id uint32) (string, bool) {
	s, ok := v.tokens[id]
	return s, ok
}

func (v vocab) vocabSize() int {
	return len(v.ids)
}

func newModel(raw json.RawMessage) (model, error) {
	if isNull(raw) {
		return nil, fmt.Errorf("missing model")
	}
	kind, err := componentType(raw)
	if err != nil {
		// Older files omit the model type; the shape tells BPE apart.
		var probe struct {
			Merges json.RawMessage `json:"merges"`
		}
		if json.Unmarshal(raw, &probe) == nil && !isNull(probe.Merges) {
			return newBPE(raw)
		}
		return nil, err
	}
	switch kind {
	case "WordLevel":
		return newWordLevel(raw)
	case "WordPiece":
		return newWordPiece(raw)
	case "BPE":
		return newBPE(raw)
	case "Tiktoken":
		return newTiktoken(raw)
	}
	return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("model %q", kind))
}

// wordLevel maps every piece to a single vocabulary entry.
type wordLevel struct {
	vocab
	unk string
}

func newWordLevel(raw json.RawMessage) (*wordLevel, error) {
	var cfg struct {
		Vocab    map[string]uint32 `json:"vocab"`
		UnkToken string            `json:"unk_token"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &wordLevel{vocab: newVocab(cfg.Vocab), unk: cfg.UnkToken}, nil
}

func (m *wordLevel) tokenize(s string) ([]token, error) {
	if id, ok := m.ids[s]; ok {
		return []token{{id: id, value: s, start: 0, end: len(s)}}, nil
	}
	if id, ok := m.ids[m.unk]; ok {
		return []token{{id: id, value: m.unk, start: 0, end: len(s)}}, nil
	}
	return nil, fmt.Errorf("token %q not in vocabulary and unknown token %q missing", s, m.unk)
}

// wordPiece splits a word greedily into the longest known sub-words.
type wordPiece struct {
	vocab
	unk          string
	prefix       string
	maxWordChars int
}

func newWordPiece(raw json.RawMessage) (*wordPiece, error) {
	cfg := struct {
		Vocab                   map[string]uint32 `json:"vocab"`
		UnkToken                string            `json:"unk_token"`
		ContinuingSubwordPrefix string            `json:"continuing_subword_prefix"`
		MaxInputCharsPerWord    int               `json:"max_input_chars_per_word"`
	}{UnkToken: "[UNK]", ContinuingSubwordPrefix: "##", MaxInputCharsPerWord: 100}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &wordPiece{
		vocab:        newVocab(cfg.Vocab),
		unk:          cfg.UnkToken,
		prefix:       cfg.ContinuingSubwordPrefix,
		maxWordChars: cfg.MaxInputCharsPerWord,
	}, nil
}

func (m *wordPiece) unknown(s string) ([]token, error) {
	id, ok := m.ids[m.unk]
	if !ok {
		return nil, fmt.Errorf("unknown token %q missing from vocabulary", m.unk)
	}
	return []token{{id: id, value: m.unk, start: 0, end: len(s)}}, nil
}

func (m *wordPiece) tokenize(s string) ([]token, error) {
	bounds := runeBounds(s)
	if len(bounds)-1 > m.maxWordChars {
		return m.unknown(s)
	}
	var out []token
	for start := 0; start < len(bounds)-1; {
		found := false
		for end := len(bounds) - 1; end > start; end-- {
			sub := s[bounds[start]:bounds[end]]
			if start > 0 {
				sub = m.prefix + sub
			}
			if id, ok := m.ids[sub]; ok {
				out = append(out, token{id: id, value: sub, start: bounds[start], end: bounds[end]})
				start = end
				found = true
				break
			}
		}
		if !found {
			return m.unknown(s)
		}
	}
	return out, nil
}

// runeBounds returns the byte offset of every rune boundary of s, len(s)
// included.
func runeBounds(s string) []int {
	bounds := make([]int, 0, len(s)+1)
	for i := range s {
		bounds = append(bounds, i)
	}
	return append(bounds, len(s))
}
