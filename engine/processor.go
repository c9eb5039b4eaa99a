package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gomlx/tokenizers/errors"
)

// postProcessor adds special tokens around a single encoded sequence.
type postProcessor interface {
	addedTokens() int
	process(e *Encoding)
}

// specialToken is one template special token; it may expand to several ids.
type specialToken struct {
	ID     string   `json:"id"`
	IDs    []uint32 `json:"ids"`
	Tokens []string `json:"tokens"`
}

// templatePiece is either a special token or the input sequence.
type templatePiece struct {
	special *specialToken
	typeID  uint32
}

type template struct {
	pieces []templatePiece
}

func (t template) addedTokens() int {
	n := 0
	for _, p := range t.pieces {
		if p.special != nil {
			n += len(p.special.IDs)
		}
	}
	return n
}

func (t template) process(e *Encoding) {
	for i := range e.Overflowing {
		t.process(&e.Overflowing[i])
	}
	var out Encoding
	for _, p := range t.pieces {
		if p.special == nil {
			start := out.Len()
			out.appendEncoding(e)
			for j := start; j < out.Len(); j++ {
				out.TypeIDs[j] = p.typeID
			}
			continue
		}
		for j, id := range p.special.IDs {
			out.push(id, p.typeID, p.special.Tokens[j], Offset{}, true)
		}
	}
	out.Overflowing = e.Overflowing
	*e = out
}

// surround builds the [cls] $A [sep] template shared by BERT and RoBERTa.
func surround(cls, sep json.RawMessage) (template, error) {
	c, err := parseTokenPair(cls)
	if err != nil {
		return template{}, fmt.Errorf("cls: %w", err)
	}
	s, err := parseTokenPair(sep)
	if err != nil {
		return template{}, fmt.Errorf("sep: %w", err)
	}
	return template{pieces: []templatePiece{{special: c}, {}, {special: s}}}, nil
}

// parseTokenPair reads the ["[CLS]", 101] shape.
func parseTokenPair(raw json.RawMessage) (*specialToken, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected [token, id], got %d elements", len(parts))
	}
	var tok string
	var id uint32
	if err := json.Unmarshal(parts[0], &tok); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(parts[1], &id); err != nil {
		return nil, err
	}
	return &specialToken{ID: tok, IDs: []uint32{id}, Tokens: []string{tok}}, nil
}

func parseTemplate(raw json.RawMessage, specials map[string]*specialToken) (template, error) {
	var items []json.RawMessage
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		for _, f := range strings.Fields(text) {
			items = append(items, json.RawMessage(strconv.Quote(f)))
		}
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return template{}, err
	}
	var t template
	for _, item := range items {
		p, err := parseTemplatePiece(item, specials)
		if err != nil {
			return template{}, err
		}
		t.pieces = append(t.pieces, p)
	}
	return t, nil
}

func parseTemplatePiece(raw json.RawMessage, specials map[string]*specialToken) (templatePiece, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		name, typeID := text, uint64(0)
		if i := strings.LastIndexByte(text, ':'); i > 0 {
			if n, err := strconv.ParseUint(text[i+1:], 10, 32); err == nil {
				name, typeID = text[:i], n
			}
		}
		if strings.HasPrefix(name, "$") {
			return templatePiece{typeID: uint32(typeID)}, nil
		}
		sp, ok := specials[name]
		if !ok {
			return templatePiece{}, fmt.Errorf("template token %q has no special_tokens entry", name)
		}
		return templatePiece{special: sp, typeID: uint32(typeID)}, nil
	}
	var obj struct {
		SpecialToken *struct {
			ID     string `json:"id"`
			TypeID uint32 `json:"type_id"`
		} `json:"SpecialToken"`
		Sequence *struct {
			ID     string `json:"id"`
			TypeID uint32 `json:"type_id"`
		} `json:"Sequence"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return templatePiece{}, err
	}
	switch {
	case obj.Sequence != nil:
		return templatePiece{typeID: obj.Sequence.TypeID}, nil
	case obj.SpecialToken != nil:
		sp, ok := specials[obj.SpecialToken.ID]
		if !ok {
			return templatePiece{}, fmt.Errorf("template token %q has no special_tokens entry", obj.SpecialToken.ID)
		}
		return templatePiece{special: sp, typeID: obj.SpecialToken.TypeID}, nil
	}
	return templatePiece{}, fmt.Errorf("template piece %s", string(raw))
}

type processorSequence []postProcessor

func (s processorSequence) addedTokens() int {
	n := 0
	for _, p := range s {
		n += p.addedTokens()
	}
	return n
}

func (s processorSequence) process(e *Encoding) {
	for _, p := range s {
		p.process(e)
	}
}

// passthrough adds nothing; byte-level offset trimming is not applied.
type passthrough struct{}

func (passthrough) addedTokens() int    { return 0 }
func (passthrough) process(e *Encoding) {}

func newPostProcessor(raw json.RawMessage) (postProcessor, error) {
	kind, err := componentType(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "TemplateProcessing":
		var cfg struct {
			Single        json.RawMessage          `json:"single"`
			SpecialTokens map[string]*specialToken `json:"special_tokens"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		for name, sp := range cfg.SpecialTokens {
			if len(sp.IDs) != len(sp.Tokens) {
				return nil, fmt.Errorf("special token %q: %d ids for %d tokens", name, len(sp.IDs), len(sp.Tokens))
			}
		}
		return parseTemplate(cfg.Single, cfg.SpecialTokens)
	case "BertProcessing", "RobertaProcessing":
		var cfg struct {
			Sep json.RawMessage `json:"sep"`
			Cls json.RawMessage `json:"cls"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		return surround(cfg.Cls, cfg.Sep)
	case "ByteLevel":
		return passthrough{}, nil
	case "Sequence":
		var cfg struct {
			Processors []json.RawMessage `json:"processors"`
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
		seq := make(processorSequence, 0, len(cfg.Processors))
		for i, sub := range cfg.Processors {
			p, err := newPostProcessor(sub)
			if err != nil {
				return nil, fmt.Errorf("processors[%d]: %w", i, err)
			}
			seq = append(seq, p)
		}
		return seq, nil
	}
	return nil, errors.Unsupported(errors.PhaseLoad, fmt.Sprintf("post-processor %q", kind))
}
