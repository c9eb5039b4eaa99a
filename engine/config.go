package engine

import (
	"encoding/json"
	"fmt"
)

// definition is the subset of a tokenizer.json document the engine reads.
// Components are kept raw and decoded by their "type" tag.
type definition struct {
	Version       string          `json:"version"`
	Truncation    *truncationJSON `json:"truncation"`
	Padding       *paddingJSON    `json:"padding"`
	AddedTokens   []AddedToken    `json:"added_tokens"`
	Normalizer    json.RawMessage `json:"normalizer"`
	PreTokenizer  json.RawMessage `json:"pre_tokenizer"`
	Model         json.RawMessage `json:"model"`
	PostProcessor json.RawMessage `json:"post_processor"`
	Decoder       json.RawMessage `json:"decoder"`
}

type truncationJSON struct {
	Direction string `json:"direction"`
	MaxLength int    `json:"max_length"`
	Strategy  string `json:"strategy"`
	Stride    int    `json:"stride"`
}

type paddingJSON struct {
	Strategy        json.RawMessage `json:"strategy"`
	Direction       string          `json:"direction"`
	PadToMultipleOf *int            `json:"pad_to_multiple_of"`
	PadID           uint32          `json:"pad_id"`
	PadTypeID       uint32          `json:"pad_type_id"`
	PadToken        string          `json:"pad_token"`
}

// typed reads only the "type" tag of a component.
type typed struct {
	Type string `json:"type"`
}

// isNull reports whether a raw component is absent or JSON null.
func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func componentType(raw json.RawMessage) (string, error) {
	var t typed
	if err := json.Unmarshal(raw, &t); err != nil {
		return "", err
	}
	if t.Type == "" {
		return "", fmt.Errorf("component without type")
	}
	return t.Type, nil
}

// pattern is the {"String": ...} | {"Regex": ...} shape used by Split and
// Replace components.
type pattern struct {
	String *string `json:"String"`
	Regex  *string `json:"Regex"`
}

func (p pattern) expr() (string, bool, error) {
	switch {
	case p.String != nil:
		return *p.String, true, nil
	case p.Regex != nil:
		return *p.Regex, false, nil
	}
	return "", false, fmt.Errorf("pattern needs String or Regex")
}

func (t *truncationJSON) params() (*TruncationParams, error) {
	dir, err := parseTruncationDirection(t.Direction)
	if err != nil {
		return nil, err
	}
	strategy, err := parseTruncationStrategy(t.Strategy)
	if err != nil {
		return nil, err
	}
	return &TruncationParams{
		Direction: dir,
		Strategy:  strategy,
		MaxLength: t.MaxLength,
		Stride:    t.Stride,
	}, nil
}

func (p *paddingJSON) params() (*PaddingParams, error) {
	params := &PaddingParams{
		PadID:     p.PadID,
		PadTypeID: p.PadTypeID,
		PadToken:  p.PadToken,
	}
	dir, err := parsePaddingDirection(p.Direction)
	if err != nil {
		return nil, err
	}
	params.Direction = dir
	if p.PadToMultipleOf != nil {
		params.PadToMultipleOf = *p.PadToMultipleOf
	}
	if isNull(p.Strategy) {
		return params, nil
	}
	var name string
	if err := json.Unmarshal(p.Strategy, &name); err == nil {
		if name != "BatchLongest" {
			return nil, fmt.Errorf("unknown padding strategy %q", name)
		}
		params.Strategy = PadBatchLongest
		return params, nil
	}
	var fixed struct {
		Fixed *int `json:"Fixed"`
	}
	if err := json.Unmarshal(p.Strategy, &fixed); err != nil || fixed.Fixed == nil {
		return nil, fmt.Errorf("invalid padding strategy %s", string(p.Strategy))
	}
	params.Strategy = PadFixed
	params.Length = *fixed.Fixed
	return params, nil
}
