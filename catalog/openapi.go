package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"modelhub-sdk/models"
)

// maxSampleDepth bounds schema recursion when synthesizing templates
const maxSampleDepth = 6

// FromOpenAPI builds a model from an OpenAPI 3 document. Every operation
// becomes an endpoint, sorted by path then method. Request and response
// examples (or samples synthesized from schemas) become templates, and named
// request examples become the model's examples.
//
// The model id is taken from info.x-model-id, falling back to fallbackID.
func FromOpenAPI(ctx context.Context, data []byte, fallbackID string) (*models.Model, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}

	m := &models.Model{ID: fallbackID}
	if doc.Info != nil {
		m.Name = doc.Info.Title
		m.Description = doc.Info.Description
		if id, ok := doc.Info.Extensions["x-model-id"].(string); ok && id != "" {
			m.ID = id
		}
	}
	if m.Name == "" {
		m.Name = m.ID
	}

	prefix := serverPrefix(doc)

	paths := make([]string, 0, doc.Paths.Len())
	items := doc.Paths.Map()
	for path := range items {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := items[path]
		if item == nil {
			continue
		}
		operations := []struct {
			method string
			op     *openapi3.Operation
		}{
			{"GET", item.Get},
			{"PUT", item.Put},
			{"POST", item.Post},
			{"DELETE", item.Delete},
			{"PATCH", item.Patch},
		}
		for _, o := range operations {
			if o.op == nil {
				continue
			}
			ep, examples := collectOperation(o.method, prefix+path, o.op)
			m.Endpoints = append(m.Endpoints, ep)
			m.Examples = append(m.Examples, examples...)
		}
	}

	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// serverPrefix returns the first absolute server URL without trailing slash
func serverPrefix(doc *openapi3.T) string {
	for _, server := range doc.Servers {
		if server == nil {
			continue
		}
		if strings.HasPrefix(server.URL, "http://") || strings.HasPrefix(server.URL, "https://") {
			return strings.TrimRight(server.URL, "/")
		}
	}
	return ""
}

func collectOperation(method, path string, op *openapi3.Operation) (models.Endpoint, []models.Example) {
	ep := models.Endpoint{
		Method:      method,
		Path:        path,
		Description: op.Summary,
	}
	if ep.Description == "" {
		ep.Description = op.Description
	}

	var examples []models.Example
	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if mt := jsonMediaType(op.RequestBody.Value.Content); mt != nil {
			ep.RequestTemplate = templateFor(mt)
			examples = namedExamples(op, mt)
		}
	}

	if op.Responses != nil {
		if resp := responseFor(op.Responses, isSuccessStatus); resp != nil {
			if mt := jsonMediaType(resp.Content); mt != nil {
				ep.ResponseTemplate = templateFor(mt)
			}
		}
		if resp := responseFor(op.Responses, isErrorStatus); resp != nil {
			if mt := jsonMediaType(resp.Content); mt != nil {
				ep.ErrorTemplate = templateFor(mt)
			}
		}
	}

	return ep, examples
}

// jsonMediaType prefers application/json, then any other media type by name
func jsonMediaType(content openapi3.Content) *openapi3.MediaType {
	if len(content) == 0 {
		return nil
	}
	if mt, ok := content["application/json"]; ok {
		return mt
	}
	names := make([]string, 0, len(content))
	for name := range content {
		names = append(names, name)
	}
	sort.Strings(names)
	return content[names[0]]
}

func isSuccessStatus(status string) bool {
	return len(status) == 3 && status[0] == '2'
}

func isErrorStatus(status string) bool {
	return (len(status) == 3 && (status[0] == '4' || status[0] == '5')) || status == "default"
}

// responseFor returns the lowest status matching accept
func responseFor(responses *openapi3.Responses, accept func(string) bool) *openapi3.Response {
	var statuses []string
	for status, ref := range responses.Map() {
		if ref != nil && ref.Value != nil && accept(status) {
			statuses = append(statuses, status)
		}
	}
	if len(statuses) == 0 {
		return nil
	}
	sort.Strings(statuses)
	return responses.Map()[statuses[0]].Value
}

// templateFor renders the media type's example, its first named example or
// a sample synthesized from its schema
func templateFor(mt *openapi3.MediaType) string {
	value := mt.Example
	if value == nil {
		for _, name := range sortedExampleNames(mt.Examples) {
			if ref := mt.Examples[name]; ref != nil && ref.Value != nil {
				value = ref.Value.Value
				break
			}
		}
	}
	if value == nil {
		value = sampleValue(mt.Schema, 0)
	}
	if value == nil {
		return ""
	}

	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}

func namedExamples(op *openapi3.Operation, mt *openapi3.MediaType) []models.Example {
	var out []models.Example
	for _, name := range sortedExampleNames(mt.Examples) {
		ref := mt.Examples[name]
		if ref == nil || ref.Value == nil || ref.Value.Value == nil {
			continue
		}

		input, err := exampleInput(ref.Value.Value)
		if err != nil {
			continue
		}

		id := name
		if op.OperationID != "" {
			id = op.OperationID + "." + name
		}
		label := ref.Value.Summary
		if label == "" {
			label = name
		}
		out = append(out, models.Example{
			ID:          id,
			Name:        label,
			Input:       input,
			Description: ref.Value.Description,
		})
	}
	return out
}

// exampleInput keeps string examples as typed text and indents the rest
func exampleInput(value interface{}) (string, error) {
	if text, ok := value.(string); ok {
		return text, nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedExampleNames(examples openapi3.Examples) []string {
	names := make([]string, 0, len(examples))
	for name := range examples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sampleValue builds a placeholder value from a schema
func sampleValue(ref *openapi3.SchemaRef, depth int) interface{} {
	if ref == nil || ref.Value == nil || depth > maxSampleDepth {
		return nil
	}
	schema := ref.Value

	switch {
	case schema.Example != nil:
		return schema.Example
	case schema.Default != nil:
		return schema.Default
	case len(schema.Enum) > 0:
		return schema.Enum[0]
	case len(schema.Properties) > 0:
		obj := make(map[string]interface{}, len(schema.Properties))
		for name, prop := range schema.Properties {
			obj[name] = sampleValue(prop, depth+1)
		}
		return obj
	case schema.Items != nil:
		return []interface{}{sampleValue(schema.Items, depth+1)}
	}

	switch {
	case schema.Type.Is("string"):
		return "..."
	case schema.Type.Is("integer"), schema.Type.Is("number"):
		return 0
	case schema.Type.Is("boolean"):
		return false
	case schema.Type.Is("object"):
		return map[string]interface{}{}
	case schema.Type.Is("array"):
		return []interface{}{}
	}
	return nil
}
