package models

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEndpointUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected string
	}{
		{
			name: "string template kept verbatim",
			doc: `
method: POST
path: /predict
request_template: '{"text": "hello"}'
`,
			expected: `{"text": "hello"}`,
		},
		{
			name: "mapping template keeps declared order",
			doc: `
method: POST
path: /predict
request_template:
  zeta: 1
  input_text: hi
  alpha: [true, null]
`,
			expected: `{"zeta":1,"input_text":"hi","alpha":[true,null]}`,
		},
		{
			name: "absent template stays empty",
			doc: `
method: GET
path: /health
`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ep Endpoint
			if err := yaml.Unmarshal([]byte(tt.doc), &ep); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ep.RequestTemplate != tt.expected {
				t.Errorf("expected template %q, got %q", tt.expected, ep.RequestTemplate)
			}
		})
	}
}

func TestModelLookups(t *testing.T) {
	m := Model{
		ID: "sentiment",
		Endpoints: []Endpoint{
			{Method: "POST", Path: "/predict"},
			{Method: "GET", Path: "/health"},
		},
		Examples: []Example{{ID: "ex-1", Input: "great movie"}},
	}

	if ep, ok := m.Endpoint("", "/health"); !ok || ep.Method != "GET" {
		t.Errorf("expected GET /health, got %v, %v", ep, ok)
	}
	if _, ok := m.Endpoint("DELETE", "/predict"); ok {
		t.Error("expected DELETE /predict to be absent")
	}
	if ex, ok := m.Example("ex-1"); !ok || ex.Input != "great movie" {
		t.Errorf("expected example ex-1, got %v, %v", ex, ok)
	}
	if _, ok := m.Example("missing"); ok {
		t.Error("expected missing example to be absent")
	}
}
