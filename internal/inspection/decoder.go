package inspection

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	fieldTopic   = "topic"
	fieldContent = "content"

	// maxContentDepth is how many nested content fields are unwrapped below the top layer.
	maxContentDepth = 1
)

// DecodeText unwraps a text payload: redundant outer quoting first, then JSON,
// then a JSON document carried as a string in the content field.
func DecodeText(text string) DecodedText {
	decoded := DecodedText{Original: text, Text: text}

	if unquoted, ok := unquote(text); ok {
		decoded.Text = unquoted
		decoded.Unquoted = true
	}

	decoded.Root = decodeLayer(decoded.Text, 0)
	return decoded
}

// unquote returns the value of s if s is a complete JSON string literal.
func unquote(s string) (string, bool) {
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return "", false
	}
	var value string
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		return "", false
	}
	return value, true
}

func decodeLayer(raw string, depth int) Layer {
	layer := Layer{Raw: raw}

	doc, ok := parseJSON(raw)
	if !ok {
		return layer
	}
	layer.JSON = doc

	fields, ok := objectFields(doc)
	if !ok {
		return layer
	}

	if topic, ok := fields[fieldTopic]; ok {
		s := scalarText(topic)
		layer.Topic = &s
	}

	if depth >= maxContentDepth {
		return layer
	}

	s, ok := stringField(fields[fieldContent])
	if !ok {
		return layer
	}
	layer.Content = &s

	if _, ok := parseJSON(s); ok {
		nested := decodeLayer(s, depth+1)
		layer.Nested = &nested
	}

	return layer
}

// parseJSON reports whether s is exactly one JSON document.
func parseJSON(s string) (json.RawMessage, bool) {
	b := []byte(s)
	if !json.Valid(b) {
		return nil, false
	}
	return json.RawMessage(b), true
}

func objectFields(doc json.RawMessage) (map[string]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// stringField returns the value of v when v is a JSON string. null and every
// other JSON type report false.
func stringField(v json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// scalarText renders a JSON value as display text: strings unquoted, other
// scalars verbatim, objects and arrays as empty.
func scalarText(v json.RawMessage) string {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '"':
		s, _ := stringField(trimmed)
		return s
	case '{', '[':
		return ""
	default:
		return string(trimmed)
	}
}
