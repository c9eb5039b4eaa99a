package engine

import "unicode/utf8"

// byteToRune maps every byte to a printable rune, as GPT-2 style byte-level
// vocabularies expect; runeToByte is its inverse.
var (
	byteToRune [256]rune
	runeToByte = make(map[rune]byte, 256)
)

func init() {
	n := 0
	for b := 0; b < 256; b++ {
		printable := (b >= '!' && b <= '~') || (b >= 0xA1 && b <= 0xAC) || (b >= 0xAE && b <= 0xFF)
		r := rune(b)
		if !printable {
			r = rune(256 + n)
			n++
		}
		byteToRune[b] = r
		runeToByte[r] = byte(b)
	}
}

// byteLevelEncode replaces every byte of the text by its printable rune.
func byteLevelEncode(n normalized) normalized {
	var b builder
	var buf [utf8.UTFMax]byte
	for i := 0; i < len(n.text); i++ {
		size := utf8.EncodeRune(buf[:], byteToRune[n.text[i]])
		b.write(string(buf[:size]), n.align[i])
	}
	return b.normalized()
}

// byteLevelDecode reverses byteLevelEncode. Runes outside the table are kept
// as their UTF-8 bytes.
func byteLevelDecode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := runeToByte[r]; ok {
			out = append(out, b)
			continue
		}
		out = utf8.AppendRune(out, r)
	}
	return out
}
