package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnmarshalJSON accepts templates either as JSON strings or as inline JSON
// values. Inline values are kept verbatim so their key order survives.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	type plain Endpoint
	var temp struct {
		plain
		RequestTemplate  json.RawMessage `json:"request_template"`
		ResponseTemplate json.RawMessage `json:"response_template"`
		ErrorTemplate    json.RawMessage `json:"error_template"`
	}

	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	*e = Endpoint(temp.plain)

	templates := []struct {
		name   string
		raw    json.RawMessage
		target *string
	}{
		{"request_template", temp.RequestTemplate, &e.RequestTemplate},
		{"response_template", temp.ResponseTemplate, &e.ResponseTemplate},
		{"error_template", temp.ErrorTemplate, &e.ErrorTemplate},
	}

	for _, t := range templates {
		text, err := rawTemplateText(t.raw)
		if err != nil {
			return fmt.Errorf("failed to read %s of %s: %w", t.name, e.Path, err)
		}
		*t.target = text
	}

	return nil
}

func rawTemplateText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return "", err
		}
		return text, nil
	}
	return string(trimmed), nil
}
