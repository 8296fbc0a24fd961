// Package models provides data structures for the model marketplace.
//
// A Model is a published AI model as described by the marketplace: its
// identity, its documented HTTP endpoints and a set of ready-made example
// inputs. The sandbox only ever reads these values.
package models

// Model represents a published model and its documented API surface
type Model struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Endpoints   []Endpoint `json:"endpoints" yaml:"endpoints"`
	Examples    []Example  `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Endpoint is a documented HTTP route of a model.
// Templates hold JSON text exactly as documented by the publisher.
type Endpoint struct {
	Method           string `json:"method" yaml:"method"`
	Path             string `json:"path" yaml:"path"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	RequestTemplate  string `json:"request_template,omitempty" yaml:"request_template,omitempty"`
	ResponseTemplate string `json:"response_template,omitempty" yaml:"response_template,omitempty"`
	ErrorTemplate    string `json:"error_template,omitempty" yaml:"error_template,omitempty"`
}

// Example is a literal input payload offered next to the sandbox
type Example struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Input       string `json:"input" yaml:"input"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ModelListItem is the summary returned by the marketplace listing
type ModelListItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Publisher   string  `json:"publisher,omitempty"`
	Endpoints   int     `json:"endpoint_count"`
}

// Example returns the example with the given id
func (m *Model) Example(id string) (Example, bool) {
	for _, ex := range m.Examples {
		if ex.ID == id {
			return ex, true
		}
	}
	return Example{}, false
}

// Endpoint returns the endpoint declared with the given method and path.
// An empty method matches any method.
func (m *Model) Endpoint(method, path string) (Endpoint, bool) {
	for _, ep := range m.Endpoints {
		if ep.Path != path {
			continue
		}
		if method == "" || ep.Method == method {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// Label renders an endpoint as "METHOD /path"
func (e Endpoint) Label() string {
	return e.Method + " " + e.Path
}
