package engine

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/gomlx/tokenizers/errors"
)

// Tokenizer is a loaded tokenizer definition plus its mutable truncation and
// padding configuration. It is not safe for concurrent use.
type Tokenizer struct {
	model         model
	normalizer    normalizer
	preTokenizer  preTokenizer
	postProcessor postProcessor
	decoder       decoder
	added         *addedVocab

	truncation *TruncationParams
	padding    *PaddingParams
}

// EncodeOptions selects per-call encoding behavior.
type EncodeOptions struct {
	// AddSpecialTokens runs the post-processor (e.g. [CLS] ... [SEP]).
	AddSpecialTokens bool
	// CharOffsets reports offsets in characters instead of bytes.
	CharOffsets bool
}

// FromBytes parses a serialized tokenizer definition (tokenizer.json).
func FromBytes(data []byte) (*Tokenizer, error) {
	var def definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, errors.ParseFailed("tokenizer definition", err)
	}
	t := &Tokenizer{added: newAddedVocab(def.AddedTokens)}

	var err error
	if t.model, err = newModel(def.Model); err != nil {
		return nil, errors.ParseFailed("model", err)
	}
	if !isNull(def.Normalizer) {
		if t.normalizer, err = newNormalizer(def.Normalizer); err != nil {
			return nil, errors.ParseFailed("normalizer", err)
		}
	}
	if !isNull(def.PreTokenizer) {
		if t.preTokenizer, err = newPreTokenizer(def.PreTokenizer); err != nil {
			return nil, errors.ParseFailed("pre_tokenizer", err)
		}
	}
	if !isNull(def.PostProcessor) {
		if t.postProcessor, err = newPostProcessor(def.PostProcessor); err != nil {
			return nil, errors.ParseFailed("post_processor", err)
		}
	}
	if !isNull(def.Decoder) {
		if t.decoder, err = newDecoder(def.Decoder); err != nil {
			return nil, errors.ParseFailed("decoder", err)
		}
	}
	if def.Truncation != nil {
		p, err := def.Truncation.params()
		if err != nil {
			return nil, errors.ParseFailed("truncation", err)
		}
		if err := t.SetTruncation(p); err != nil {
			return nil, err
		}
	}
	if def.Padding != nil {
		p, err := def.Padding.params()
		if err != nil {
			return nil, errors.ParseFailed("padding", err)
		}
		if err := t.SetPadding(p); err != nil {
			return nil, err
		}
	}

	Logger().Debug("tokenizer loaded",
		zap.Int("vocab_size", t.VocabSize(true)),
		zap.Int("added_tokens", t.added.len()),
		zap.Bool("truncation", t.truncation != nil),
		zap.Bool("padding", t.padding != nil))
	return t, nil
}

// FromFile reads and parses a tokenizer definition file.
func FromFile(path string) (*Tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return FromBytes(data)
}

// VocabSize returns the model vocabulary size, optionally counting added
// tokens that are not part of it.
func (t *Tokenizer) VocabSize(withAdded bool) int {
	n := t.model.vocabSize()
	if !withAdded {
		return n
	}
	for content := range t.added.byContent {
		if _, ok := t.model.tokenToID(content); !ok {
			n++
		}
	}
	return n
}

// TokenToID looks a token up in the added tokens, then the model.
func (t *Tokenizer) TokenToID(token string) (uint32, bool) {
	if a, ok := t.added.byContent[token]; ok {
		return a.ID, true
	}
	return t.model.tokenToID(token)
}

// IDToToken looks an id up in the added tokens, then the model.
func (t *Tokenizer) IDToToken(id uint32) (string, bool) {
	if a, ok := t.added.byID[id]; ok {
		return a.Content, true
	}
	return t.model.idToToken(id)
}

// SetTruncation replaces the truncation configuration; nil disables it.
// The tokenizer is left unchanged when p is rejected.
func (t *Tokenizer) SetTruncation(p *TruncationParams) error {
	if p == nil {
		t.truncation = nil
		return nil
	}
	if p.Direction > TruncateRight {
		return errors.InvalidEnum(errors.PhaseConfigure, []string{"truncation", "direction"}, uint8(p.Direction), "TruncationDirection")
	}
	if p.Strategy > OnlySecond {
		return errors.InvalidEnum(errors.PhaseConfigure, []string{"truncation", "strategy"}, uint8(p.Strategy), "TruncationStrategy")
	}
	if p.MaxLength < 0 || p.Stride < 0 {
		return errors.New(errors.PhaseConfigure, errors.KindInvalidInput).
			Path("truncation").
			Detail("negative max_length %d or stride %d", p.MaxLength, p.Stride).
			Build()
	}
	added := t.addedTokens()
	if p.MaxLength < added {
		return errors.New(errors.PhaseConfigure, errors.KindInvalidInput).
			Path("truncation", "max_length").
			Value(p.MaxLength).
			Detail("max_length %d cannot hold the %d special tokens", p.MaxLength, added).
			Build()
	}
	// Encoding without special tokens uses MaxLength itself, so the
	// effective length is the smallest window truncate can be asked for.
	if effective := p.MaxLength - added; p.Stride > 0 && p.Stride >= effective {
		return errors.New(errors.PhaseConfigure, errors.KindInvalidInput).
			Path("truncation", "stride").
			Value(p.Stride).
			Detail("stride %d must be smaller than the effective max length %d", p.Stride, effective).
			Build()
	}
	cp := *p
	t.truncation = &cp
	return nil
}

// Truncation returns a copy of the truncation configuration, nil if unset.
func (t *Tokenizer) Truncation() *TruncationParams {
	if t.truncation == nil {
		return nil
	}
	cp := *t.truncation
	return &cp
}

// SetPadding replaces the padding configuration; nil disables it.
// A pad token holding NUL is rejected: it could never be reported back
// as a C string.
func (t *Tokenizer) SetPadding(p *PaddingParams) error {
	if p == nil {
		t.padding = nil
		return nil
	}
	if strings.IndexByte(p.PadToken, 0) >= 0 {
		return errors.InvalidData(errors.PhaseConfigure, []string{"padding", "pad_token"},
			"pad token contains a NUL byte")
	}
	cp := *p
	t.padding = &cp
	return nil
}

// Padding returns a copy of the padding configuration, nil if unset.
func (t *Tokenizer) Padding() *PaddingParams {
	if t.padding == nil {
		return nil
	}
	cp := *t.padding
	return &cp
}

func (t *Tokenizer) addedTokens() int {
	if t.postProcessor == nil {
		return 0
	}
	return t.postProcessor.addedTokens()
}

// Encode encodes one text, applying truncation and padding if configured.
func (t *Tokenizer) Encode(text string, opts EncodeOptions) (*Encoding, error) {
	enc, err := t.encodeSingle(text, opts)
	if err != nil {
		return nil, err
	}
	if t.padding != nil {
		enc.pad(padLength(t.padding, enc.Len()), t.padding)
	}
	return enc, nil
}

// EncodeBatch encodes every text; the call fails as a whole if any text
// fails. With BatchLongest padding all encodings share the same length.
func (t *Tokenizer) EncodeBatch(texts []string, opts EncodeOptions) ([]Encoding, error) {
	out := make([]Encoding, len(texts))
	longest := 0
	for i, text := range texts {
		enc, err := t.encodeSingle(text, opts)
		if err != nil {
			return nil, errors.New(errors.PhaseEncode, errors.KindEngine).
				Path("texts", strconv.Itoa(i)).
				Cause(err).
				Detail("batch item %d", i).
				Build()
		}
		out[i] = *enc
		longest = max(longest, enc.Len())
	}
	if t.padding != nil {
		target := padLength(t.padding, longest)
		for i := range out {
			out[i].pad(target, t.padding)
		}
	}
	return out, nil
}

func (t *Tokenizer) encodeSingle(text string, opts EncodeOptions) (*Encoding, error) {
	if !utf8.ValidString(text) {
		return nil, errors.InvalidUTF8(errors.PhaseEncode, []string{"text"}, []byte(text))
	}
	enc := &Encoding{}
	for _, seg := range t.added.split(text) {
		if seg.added != nil {
			enc.push(seg.added.ID, 0, seg.added.Content, Offset{seg.start, seg.end}, seg.added.Special)
			continue
		}
		if err := t.encodeText(enc, text[seg.start:seg.end], seg.start); err != nil {
			return nil, err
		}
	}
	if t.truncation != nil {
		maxLen := t.truncation.MaxLength
		if opts.AddSpecialTokens {
			maxLen -= t.addedTokens()
		}
		if enc.Len() > maxLen {
			switch {
			case t.truncation.Strategy == OnlySecond:
				return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
					Path("truncation", "strategy").
					Detail("OnlySecond truncation needs a sequence pair").
					Build()
			case t.truncation.Strategy == OnlyFirst && maxLen == 0:
				return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
					Path("truncation", "strategy").
					Detail("sequence too short to remove %d tokens", enc.Len()).
					Build()
			}
			if err := enc.truncate(maxLen, t.truncation.Stride, t.truncation.Direction); err != nil {
				return nil, err
			}
		}
	}
	if opts.AddSpecialTokens && t.postProcessor != nil {
		t.postProcessor.process(enc)
	}
	if opts.CharOffsets {
		enc.toCharOffsets(text)
	}
	return enc, nil
}

// encodeText runs normalization, pre-tokenization and the model over a
// plain segment starting at byte base of the input.
func (t *Tokenizer) encodeText(enc *Encoding, s string, base int) error {
	if s == "" {
		return nil
	}
	n := newNormalized(s, base)
	if t.normalizer != nil {
		n = t.normalizer.normalize(n)
	}
	pieces := []normalized{n}
	if t.preTokenizer != nil {
		pieces = t.preTokenizer.split(n)
	}
	for _, piece := range pieces {
		if piece.text == "" {
			continue
		}
		tokens, err := t.model.tokenize(piece.text)
		if err != nil {
			return errors.Engine(errors.PhaseEncode, "model", err)
		}
		for _, tok := range tokens {
			sp := piece.original(tok.start, tok.end)
			enc.push(tok.id, 0, tok.value, Offset{sp.start, sp.end}, false)
		}
	}
	return nil
}

// Decode turns ids back into text. Unknown ids are an error.
func (t *Tokenizer) Decode(ids []uint32, skipSpecialTokens bool) (string, error) {
	tokens := make([]string, 0, len(ids))
	for i, id := range ids {
		if a, ok := t.added.byID[id]; ok {
			if a.Special && skipSpecialTokens {
				continue
			}
			tokens = append(tokens, a.Content)
			continue
		}
		tok, ok := t.model.idToToken(id)
		if !ok {
			err := errors.NotFound(errors.PhaseDecode, "token id", strconv.FormatUint(uint64(id), 10))
			err.Path = []string{"ids", strconv.Itoa(i)}
			err.Value = id
			return "", err
		}
		tokens = append(tokens, tok)
	}
	if t.decoder == nil {
		return strings.Join(tokens, " "), nil
	}
	return strings.Join(t.decoder.decodeChain(tokens), ""), nil
}
