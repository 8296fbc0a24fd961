// Package sandbox lets a visitor try a published model's endpoints.
//
// The package is organised leaf to root: endpoint selection and input
// derivation (endpoints.go), request composition (composer.go), the
// invocation controller that meters, calls and classifies (controller.go),
// and the view-model a host UI drives (viewmodel.go).
package sandbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"modelhub-sdk/models"
)

// Placeholder seeds the input when an endpoint template names a text field
const Placeholder = "Votre texte ici"

// fallbackKey wraps plain text when no template key can be found
const fallbackKey = "text"

// NoEndpointsError is fatal: a sandbox cannot work without an endpoint
type NoEndpointsError struct {
	ModelID string
}

func (e *NoEndpointsError) Error() string {
	if e.ModelID == "" {
		return "no endpoints available"
	}
	return fmt.Sprintf("no endpoints available for model %s", e.ModelID)
}

// SelectDefault returns the first declared endpoint
func SelectDefault(endpoints []models.Endpoint) (models.Endpoint, error) {
	if len(endpoints) == 0 {
		return models.Endpoint{}, &NoEndpointsError{}
	}
	return endpoints[0], nil
}

// DeriveInitialInput builds the starting input for an endpoint.
// When the request template is a JSON object with a key containing "text"
// or "input" (case-insensitive, first in declared order) the result is a
// one-key object holding Placeholder; otherwise the template is returned
// unchanged.
func DeriveInitialInput(endpoint models.Endpoint) string {
	key, ok := templateTextKey(endpoint.RequestTemplate)
	if !ok {
		return endpoint.RequestTemplate
	}

	body, err := wrapUnder(key, Placeholder, "  ")
	if err != nil {
		return endpoint.RequestTemplate
	}
	return string(body)
}

// InitialInput picks what the sandbox shows first for an endpoint: the
// model's first example when there is one, the derived placeholder
// otherwise. The returned example id is empty when no example was used.
func InitialInput(model *models.Model, endpoint models.Endpoint) (input string, exampleID string) {
	if model != nil && len(model.Examples) > 0 {
		ex := model.Examples[0]
		return ex.Input, ex.ID
	}
	return DeriveInitialInput(endpoint), ""
}

// templateTextKey finds the first top-level key of a JSON object template
// whose name contains "text" or "input". Templates that are not valid JSON
// objects yield ok=false.
//
// When several keys match, the first one in the template's own order wins.
func templateTextKey(template string) (string, bool) {
	data := []byte(template)
	if !json.Valid(data) {
		return "", false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return "", false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", false
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		key, ok := tok.(string)
		if !ok {
			return "", false
		}
		if isTextKey(key) {
			return key, true
		}

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return "", false
		}
	}

	return "", false
}

func isTextKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "text") || strings.Contains(lower, "input")
}

// wrapUnder encodes {key: value}. An empty indent produces compact JSON.
func wrapUnder(key, value, indent string) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}

	if err := enc.Encode(map[string]string{key: value}); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
