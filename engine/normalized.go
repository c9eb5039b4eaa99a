package engine

import (
	"unicode/utf8"
)

// span is a byte range [start, end) of the original input.
type span struct {
	start, end int
}

func (s span) union(o span) span {
	if o.start < s.start {
		s.start = o.start
	}
	if o.end > s.end {
		s.end = o.end
	}
	return s
}

// normalized is a piece of text together with, for every byte of that text,
// the span of original input it was produced from. Every transformation keeps
// len(align) == len(text), so token offsets can always be mapped back.
type normalized struct {
	text  string
	align []span
}

// newNormalized aligns s to itself; base is the byte position of s in the
// original input.
func newNormalized(s string, base int) normalized {
	align := make([]span, len(s))
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		sp := span{base + i, base + i + size}
		for j := 0; j < size; j++ {
			align[i+j] = sp
		}
		i += size
	}
	return normalized{text: s, align: align}
}

// original returns the original span covered by text[start:end]. An empty
// range maps to an empty span at the position of the next byte.
func (n normalized) original(start, end int) span {
	if len(n.align) == 0 {
		return span{}
	}
	if start >= len(n.align) {
		p := n.align[len(n.align)-1].end
		return span{p, p}
	}
	if end <= start {
		p := n.align[start].start
		return span{p, p}
	}
	return n.align[start].union(n.align[end-1])
}

func (n normalized) slice(start, end int) normalized {
	return normalized{text: n.text[start:end], align: n.align[start:end]}
}

// builder accumulates transformed text while tracking alignment.
type builder struct {
	text  []byte
	align []span
}

func (b *builder) write(s string, sp span) {
	b.text = append(b.text, s...)
	for i := 0; i < len(s); i++ {
		b.align = append(b.align, sp)
	}
}

func (b *builder) normalized() normalized {
	return normalized{text: string(b.text), align: b.align}
}

// mapRunes replaces every rune by fn(r); the replacement inherits the span of
// the rune it replaces. Returning "" removes the rune.
func (n normalized) mapRunes(fn func(r rune) string) normalized {
	var b builder
	for i := 0; i < len(n.text); {
		r, size := utf8.DecodeRuneInString(n.text[i:])
		b.write(fn(r), n.original(i, i+size))
		i += size
	}
	return b.normalized()
}

// mapSegments rewrites consecutive byte ranges of the text. next returns
// how many bytes of rest it consumed and their replacement.
func (n normalized) mapSegments(next func(rest string) (consumed int, out string)) normalized {
	var b builder
	for i := 0; i < len(n.text); {
		consumed, out := next(n.text[i:])
		if consumed <= 0 {
			consumed = 1
		}
		if i+consumed > len(n.text) {
			consumed = len(n.text) - i
		}
		b.write(out, n.original(i, i+consumed))
		i += consumed
	}
	return b.normalized()
}

// prepend inserts s before the text, aligned to the start of the first
// character.
func (n normalized) prepend(s string) normalized {
	if s == "" {
		return n
	}
	var b builder
	b.write(s, n.original(0, 0))
	b.text = append(b.text, n.text...)
	b.align = append(b.align, n.align...)
	return b.normalized()
}

// trim drops leading and/or trailing runes for which cut reports true.
func (n normalized) trim(left, right bool, cut func(r rune) bool) normalized {
	start, end := 0, len(n.text)
	if left {
		for start < end {
			r, size := utf8.DecodeRuneInString(n.text[start:end])
			if !cut(r) {
				break
			}
			start += size
		}
	}
	if right {
		for end > start {
			r, size := utf8.DecodeLastRuneInString(n.text[start:end])
			if !cut(r) {
				break
			}
			end -= size
		}
	}
	return n.slice(start, end)
}
