package engine

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// AddedToken is an entry of the added_tokens table. Added tokens are
// matched in the raw text before normalization.
type AddedToken struct {
	ID         uint32 `json:"id"`
	Content    string `json:"content"`
	SingleWord bool   `json:"single_word"`
	LStrip     bool   `json:"lstrip"`
	RStrip     bool   `json:"rstrip"`
	Normalized bool   `json:"normalized"`
	Special    bool   `json:"special"`
}

type addedVocab struct {
	byID      map[uint32]AddedToken
	byContent map[string]AddedToken
	// byFirst indexes tokens by their first byte, longest first.
	byFirst map[byte][]AddedToken
}

func newAddedVocab(tokens []AddedToken) *addedVocab {
	a := &addedVocab{
		byID:      make(map[uint32]AddedToken, len(tokens)),
		byContent: make(map[string]AddedToken, len(tokens)),
		byFirst:   make(map[byte][]AddedToken),
	}
	for _, t := range tokens {
		if t.Content == "" {
			continue
		}
		a.byID[t.ID] = t
		a.byContent[t.Content] = t
		a.byFirst[t.Content[0]] = append(a.byFirst[t.Content[0]], t)
	}
	for _, list := range a.byFirst {
		sort.SliceStable(list, func(i, j int) bool { return len(list[i].Content) > len(list[j].Content) })
	}
	return a
}

func (a *addedVocab) len() int {
	return len(a.byID)
}

// segment is a part of the input: a matched added token or plain text.
type segment struct {
	start, end int
	added      *AddedToken
}

// split cuts s around every added token occurrence, leftmost-longest.
func (a *addedVocab) split(s string) []segment {
	if len(a.byFirst) == 0 {
		return []segment{{start: 0, end: len(s)}}
	}
	var out []segment
	plain := 0
	for i := 0; i < len(s); {
		tok, ok := a.matchAt(s, i)
		if !ok {
			i++
			continue
		}
		start, end := i, i+len(tok.Content)
		if tok.LStrip {
			for start > plain {
				r, size := utf8.DecodeLastRuneInString(s[plain:start])
				if !unicode.IsSpace(r) {
					break
				}
				start -= size
			}
		}
		if tok.RStrip {
			for end < len(s) {
				r, size := utf8.DecodeRuneInString(s[end:])
				if !unicode.IsSpace(r) {
					break
				}
				end += size
			}
		}
		if start > plain {
			out = append(out, segment{start: plain, end: start})
		}
		out = append(out, segment{start: start, end: end, added: &tok})
		plain, i = end, end
	}
	if plain < len(s) || len(out) == 0 {
		out = append(out, segment{start: plain, end: len(s)})
	}
	return out
}

func (a *addedVocab) matchAt(s string, i int) (AddedToken, bool) {
	for _, tok := range a.byFirst[s[i]] {
		if !strings.HasPrefix(s[i:], tok.Content) {
			continue
		}
		if tok.SingleWord && !a.wordBoundary(s, i, i+len(tok.Content)) {
			continue
		}
		return tok, true
	}
	return AddedToken{}, false
}

func (a *addedVocab) wordBoundary(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordChar(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordChar(r) {
			return false
		}
	}
	return true
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
