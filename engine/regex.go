package engine

import (
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// match is a byte range of a regexp match.
type match struct {
	start, end int
}

// findAll returns every non-overlapping match of re in s as byte ranges.
// regexp2 reports rune positions, so they are converted here.
func findAll(re *regexp2.Regexp, s string) []match {
	if s == "" {
		return nil
	}
	runes := make([]rune, 0, len(s))
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		runes = append(runes, r)
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))

	var out []match
	m, err := re.FindRunesMatch(runes)
	for err == nil && m != nil {
		if m.Length > 0 {
			out = append(out, match{offsets[m.Index], offsets[m.Index+m.Length]})
		}
		m, err = re.FindNextMatch(m)
	}
	return out
}

func compilePattern(p pattern) (*regexp2.Regexp, error) {
	expr, literal, err := p.expr()
	if err != nil {
		return nil, err
	}
	if literal {
		expr = regexp2.Escape(expr)
	}
	return regexp2.Compile(expr, regexp2.None)
}

func runeSize(s string, i int) int {
	_, size := utf8.DecodeRuneInString(s[i:])
	return size
}
