package engine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

var offlineLoaderOnce sync.Once

// tiktokenVocabSizes lists the ordinary vocabulary of the bundled encodings;
// tiktoken-go does not expose it.
var tiktokenVocabSizes = map[string]int{
	"cl100k_base": 100256,
	"p50k_base":   50281,
	"r50k_base":   50257,
	"o200k_base":  199998,
}

// tiktokenModel delegates to an OpenAI byte-level BPE encoding. Its own
// regex splits the text, so tokenizer files using it usually carry no
// pre-tokenizer.
type tiktokenModel struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func newTiktoken(raw json.RawMessage) (*tiktokenModel, error) {
	var cfg struct {
		Encoding string `json:"encoding"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if _, ok := tiktokenVocabSizes[cfg.Encoding]; !ok {
		return nil, fmt.Errorf("unknown tiktoken encoding %q", cfg.Encoding)
	}
	offlineLoaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", cfg.Encoding, err)
	}
	return &tiktokenModel{encoding: enc, name: cfg.Encoding}, nil
}

func (m *tiktokenModel) tokenize(s string) ([]token, error) {
	ids := m.encoding.Encode(s, nil, nil)
	out := make([]token, 0, len(ids))
	pos := 0
	for _, id := range ids {
		value := m.encoding.Decode([]int{id})
		end := min(pos+len(value), len(s))
		out = append(out, token{id: uint32(id), value: value, start: pos, end: end})
		pos = end
	}
	return out, nil
}

func (m *tiktokenModel) tokenToID(s string) (uint32, bool) {
	ids := m.encoding.Encode(s, nil, nil)
	if len(ids) != 1 {
		return 0, false
	}
	return uint32(ids[0]), true
}

func (m *tiktokenModel) idToToken(id uint32) (string, bool) {
	if int(id) >= m.vocabSize() {
		return "", false
	}
	s := m.encoding.Decode([]int{int(id)})
	return s, s != ""
}

func (m *tiktokenModel) vocabSize() int {
	return tiktokenVocabSizes[m.name]
}
