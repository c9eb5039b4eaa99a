package transcoder

// ReleaseBuffer frees every present field of b. Buffer.Len is the element
// count of every field.
func ReleaseBuffer(a Allocator, b Buffer) {
	n := int(b.Len)
	Reclaim(b.IDs, n).Release(a)
	Reclaim(b.TypeIDs, n).Release(a)
	Reclaim(b.SpecialTokensMask, n).Release(a)
	Reclaim(b.AttentionMask, n).Release(a)
	if b.Tokens != nil {
		tokens := Reclaim(b.Tokens, n)
		for _, p := range tokens.Slice() {
			FreeCString(a, p)
		}
		tokens.Release(a)
	}
	Reclaim(b.Offsets, n).Release(a)
}

// ReleaseResults frees the error message and every buffer of r. The zero
// Results is a no-op.
func ReleaseResults(a Allocator, r Results) {
	FreeCString(a, r.Error)
	if r.Len == 0 || r.Encoded == nil {
		return
	}
	buffers := Reclaim(r.Encoded, int(r.Len))
	for _, b := range buffers.Slice() {
		ReleaseBuffer(a, b)
	}
	buffers.Release(a)
}
