package engine

import (
	"unicode/utf8"

	"github.com/gomlx/tokenizers/errors"
)

// Offset is a [Start, End) range of the input text, in bytes or characters
// depending on how the encoding was produced.
type Offset struct {
	Start, End int
}

// Encoding is the result of encoding one text. All per-token slices have
// the same length.
type Encoding struct {
	IDs               []uint32
	TypeIDs           []uint32
	Tokens            []string
	Offsets           []Offset
	SpecialTokensMask []uint32
	AttentionMask     []uint32

	// Overflowing holds the windows cut off by truncation.
	Overflowing []Encoding
}

// Len returns the number of tokens.
func (e *Encoding) Len() int {
	return len(e.IDs)
}

func (e *Encoding) push(id, typeID uint32, tok string, off Offset, special bool) {
	e.IDs = append(e.IDs, id)
	e.TypeIDs = append(e.TypeIDs, typeID)
	e.Tokens = append(e.Tokens, tok)
	e.Offsets = append(e.Offsets, off)
	mask := uint32(0)
	if special {
		mask = 1
	}
	e.SpecialTokensMask = append(e.SpecialTokensMask, mask)
	e.AttentionMask = append(e.AttentionMask, 1)
}

func (e *Encoding) slice(start, end int) Encoding {
	return Encoding{
		IDs:               append([]uint32(nil), e.IDs[start:end]...),
		TypeIDs:           append([]uint32(nil), e.TypeIDs[start:end]...),
		Tokens:            append([]string(nil), e.Tokens[start:end]...),
		Offsets:           append([]Offset(nil), e.Offsets[start:end]...),
		SpecialTokensMask: append([]uint32(nil), e.SpecialTokensMask[start:end]...),
		AttentionMask:     append([]uint32(nil), e.AttentionMask[start:end]...),
	}
}

// truncate keeps one window of at most maxLen tokens and moves the rest,
// in windows overlapping by stride tokens, to Overflowing.
func (e *Encoding) truncate(maxLen, stride int, dir TruncationDirection) error {
	n := e.Len()
	if maxLen >= n {
		return nil
	}
	if maxLen == 0 {
		whole := *e
		*e = Encoding{Overflowing: []Encoding{whole}}
		return nil
	}
	step := maxLen - stride
	if step <= 0 {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Path("truncation", "stride").
			Value(stride).
			Detail("stride %d must be smaller than the window length %d", stride, maxLen).
			Build()
	}
	var windows [][2]int
	switch dir {
	case TruncateRight:
		for start := 0; start < n; start += step {
			stop := min(start+maxLen, n)
			windows = append(windows, [2]int{start, stop})
			if stop == n {
				break
			}
		}
	default:
		for stop := n; stop > 0; stop -= step {
			start := max(stop-maxLen, 0)
			windows = append(windows, [2]int{start, stop})
			if start == 0 {
				break
			}
		}
	}
	kept := e.slice(windows[0][0], windows[0][1])
	for _, w := range windows[1:] {
		kept.Overflowing = append(kept.Overflowing, e.slice(w[0], w[1]))
	}
	*e = kept
	return nil
}

// pad grows the encoding to target tokens. Overflowing windows are padded
// too.
func (e *Encoding) pad(target int, p *PaddingParams) {
	for i := range e.Overflowing {
		e.Overflowing[i].pad(target, p)
	}
	missing := target - e.Len()
	if missing <= 0 {
		return
	}
	var padding Encoding
	for i := 0; i < missing; i++ {
		padding.push(p.PadID, p.PadTypeID, p.PadToken, Offset{}, true)
		padding.AttentionMask[len(padding.AttentionMask)-1] = 0
	}
	if p.Direction == PadLeft {
		padding.appendEncoding(e)
		padding.Overflowing = e.Overflowing
		*e = padding
		return
	}
	e.appendEncoding(&padding)
}

func (e *Encoding) appendEncoding(o *Encoding) {
	e.IDs = append(e.IDs, o.IDs...)
	e.TypeIDs = append(e.TypeIDs, o.TypeIDs...)
	e.Tokens = append(e.Tokens, o.Tokens...)
	e.Offsets = append(e.Offsets, o.Offsets...)
	e.SpecialTokensMask = append(e.SpecialTokensMask, o.SpecialTokensMask...)
	e.AttentionMask = append(e.AttentionMask, o.AttentionMask...)
}

// toCharOffsets rewrites byte offsets into text as character offsets.
func (e *Encoding) toCharOffsets(text string) {
	chars := charIndex(text)
	conv := func(b int) int {
		if b < 0 {
			return 0
		}
		if b >= len(chars) {
			return chars[len(chars)-1]
		}
		return chars[b]
	}
	var walk func(enc *Encoding)
	walk = func(enc *Encoding) {
		for i, off := range enc.Offsets {
			enc.Offsets[i] = Offset{Start: conv(off.Start), End: conv(off.End)}
		}
		for j := range enc.Overflowing {
			walk(&enc.Overflowing[j])
		}
	}
	walk(e)
}

// charIndex maps every byte position of text, len(text) included, to the
// number of characters that start before it.
func charIndex(text string) []int {
	idx := make([]int, len(text)+1)
	count := 0
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		for j := 0; j < size; j++ {
			idx[i+j] = count
		}
		count++
		i += size
	}
	idx[len(text)] = count
	return idx
}

// padLength returns the length encodings are padded to.
func padLength(p *PaddingParams, longest int) int {
	n := longest
	if p.Strategy == PadFixed {
		n = p.Length
	}
	if m := p.PadToMultipleOf; m > 0 && n%m != 0 {
		n += m - n%m
	}
	return n
}
