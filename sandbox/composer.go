package sandbox

import (
	"bytes"
	"encoding/json"
	"strings"

	"modelhub-sdk/models"
)

// InputKind classifies raw sandbox input
type InputKind int

const (
	// InputEmpty is blank or whitespace-only input
	InputEmpty InputKind = iota
	// InputJSON parsed as a JSON object or array and is sent as-is
	InputJSON
	// InputMalformedJSON looks like JSON (starts with '{' or '[') but does not parse
	InputMalformedJSON
	// InputPlainText is anything else, wrapped under a template key
	InputPlainText
)

func (k InputKind) String() string {
	switch k {
	case InputEmpty:
		return "empty"
	case InputJSON:
		return "json"
	case InputMalformedJSON:
		return "malformed_json"
	case InputPlainText:
		return "plain_text"
	}
	return "unknown"
}

// Input is the classified form of what the user typed
type Input struct {
	Kind InputKind
	Raw  string
	// Body is the compacted JSON document, set only for InputJSON
	Body json.RawMessage
}

// ClassifyInput decides which of the input branches applies.
// JSON scalars such as 42 or "hi" are plain text: only objects and arrays
// are accepted as a request body.
func ClassifyInput(raw string) Input {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Input{Kind: InputEmpty, Raw: raw}
	}

	looksJSON := trimmed[0] == '{' || trimmed[0] == '['
	if !looksJSON {
		return Input{Kind: InputPlainText, Raw: raw}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(trimmed)); err != nil {
		return Input{Kind: InputMalformedJSON, Raw: raw}
	}
	return Input{Kind: InputJSON, Raw: raw, Body: json.RawMessage(buf.Bytes())}
}

// Compose turns raw input into the request body for endpoint.
// Malformed JSON and empty input are rejected with *ValidationError.
func Compose(raw string, endpoint models.Endpoint) (json.RawMessage, error) {
	in := ClassifyInput(raw)

	switch in.Kind {
	case InputEmpty:
		return nil, &ValidationError{Message: MsgEmptyInput}
	case InputMalformedJSON:
		return nil, &ValidationError{Message: MsgInvalidJSON}
	case InputJSON:
		return in.Body, nil
	}

	key, ok := templateTextKey(endpoint.RequestTemplate)
	if !ok {
		key = fallbackKey
	}
	return wrapUnder(key, raw, "")
}
