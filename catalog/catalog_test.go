package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"modelhub-sdk/models"
)

const sentimentYAML = `
id: sentiment-fr
name: Sentiment FR
description: French sentiment analysis
endpoints:
  - method: post
    path: /v1/sentiment
    request_template:
      text: "..."
      lang: fr
    response_template: '{"label": "positive", "score": 0.98}'
examples:
  - id: ex-1
    name: Positive
    input: J'adore ce film
`

const summaryJSON = `{
  "id": "summarizer",
  "name": "Summarizer",
  "endpoints": [
    {"method": "POST", "path": "/v1/summary", "request_template": {"input_document": "...", "max_words": 50}}
  ]
}`

const sentimentOpenAPI = `
openapi: 3.0.3
info:
  title: Toxicity detector
  description: Flags toxic comments
  version: 1.0.0
  x-model-id: toxicity
servers:
  - url: https://models.example.com/toxicity/
paths:
  /predict:
    post:
      operationId: predict
      summary: Score a comment
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                comment_text:
                  type: string
            examples:
              polite:
                summary: A polite comment
                value:
                  comment_text: Merci beaucoup
              rude:
                value:
                  comment_text: Tais-toi
      responses:
        "200":
          description: Scores
          content:
            application/json:
              example:
                toxic: 0.02
        "422":
          description: Invalid input
          content:
            application/json:
              schema:
                type: object
                properties:
                  code:
                    type: string
                  message:
                    type: string
  /health:
    get:
      responses:
        "200":
          description: OK
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sentiment.yaml", sentimentYAML)

	m, err := LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if m.ID != "sentiment-fr" || m.Name != "Sentiment FR" {
		t.Errorf("unexpected identity %s / %s", m.ID, m.Name)
	}
	if len(m.Endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(m.Endpoints))
	}

	ep := m.Endpoints[0]
	if ep.Method != "POST" {
		t.Errorf("expected method to be normalized to POST, got %s", ep.Method)
	}
	if ep.RequestTemplate != `{"text":"...","lang":"fr"}` {
		t.Errorf("expected ordered request template, got %s", ep.RequestTemplate)
	}
	if ep.ResponseTemplate != `{"label": "positive", "score": 0.98}` {
		t.Errorf("expected verbatim response template, got %s", ep.ResponseTemplate)
	}
	if ex, ok := m.Example("ex-1"); !ok || ex.Input != "J'adore ce film" {
		t.Errorf("expected example ex-1, got %+v", ex)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "summary.json", summaryJSON)

	m, err := LoadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.Endpoints[0].RequestTemplate != `{"input_document":"...","max_words":50}` {
		t.Errorf("expected ordered request template, got %s", m.Endpoints[0].RequestTemplate)
	}
}

func TestLoadFileRejectsInvalidDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{name: "missing id", content: "name: nameless\n", errText: "model id is required"},
		{name: "endpoint without path", content: "id: x\nendpoints:\n  - method: POST\n", errText: "has no path"},
		{name: "not yaml", content: "id: [unterminated\n", errText: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.yaml", tt.content)
			_, err := LoadFile(context.Background(), path)
			if err == nil || !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestFromOpenAPI(t *testing.T) {
	m, err := FromOpenAPI(context.Background(), []byte(sentimentOpenAPI), "fallback")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if m.ID != "toxicity" {
		t.Errorf("expected id from x-model-id, got %s", m.ID)
	}
	if m.Name != "Toxicity detector" {
		t.Errorf("expected name from title, got %s", m.Name)
	}

	var labels []string
	for _, ep := range m.Endpoints {
		labels = append(labels, ep.Label())
	}
	expected := []string{
		"GET https://models.example.com/toxicity/health",
		"POST https://models.example.com/toxicity/predict",
	}
	if diff := cmp.Diff(expected, labels); diff != "" {
		t.Errorf("endpoints mismatch (-want +got):\n%s", diff)
	}

	predict, ok := m.Endpoint("POST", "https://models.example.com/toxicity/predict")
	if !ok {
		t.Fatal("expected predict endpoint")
	}
	if predict.Description != "Score a comment" {
		t.Errorf("expected summary as description, got %s", predict.Description)
	}
	assertJSON(t, predict.RequestTemplate, map[string]interface{}{"comment_text": "Merci beaucoup"})
	assertJSON(t, predict.ResponseTemplate, map[string]interface{}{"toxic": 0.02})
	assertJSON(t, predict.ErrorTemplate, map[string]interface{}{"code": "...", "message": "..."})

	if len(m.Examples) != 2 {
		t.Fatalf("expected 2 examples, got %d", len(m.Examples))
	}
	if m.Examples[0].ID != "predict.polite" || m.Examples[0].Name != "A polite comment" {
		t.Errorf("unexpected first example %+v", m.Examples[0])
	}
	if m.Examples[1].Name != "rude" {
		t.Errorf("expected name to fall back to key, got %s", m.Examples[1].Name)
	}
	assertJSON(t, m.Examples[1].Input, map[string]interface{}{"comment_text": "Tais-toi"})
}

func TestFromOpenAPIFallbackID(t *testing.T) {
	doc := `
openapi: 3.0.3
info:
  title: Echo
  version: "1"
paths:
  /echo:
    post:
      responses:
        "200":
          description: OK
`
	m, err := FromOpenAPI(context.Background(), []byte(doc), "echo-model")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.ID != "echo-model" {
		t.Errorf("expected fallback id, got %s", m.ID)
	}
	if m.Endpoints[0].Path != "/echo" {
		t.Errorf("expected relative path without servers, got %s", m.Endpoints[0].Path)
	}
}

func TestFromOpenAPIRejectsEmptyDocument(t *testing.T) {
	doc := "openapi: 3.0.3\ninfo:\n  title: Empty\n  version: \"1\"\npaths: {}\n"
	if _, err := FromOpenAPI(context.Background(), []byte(doc), "empty"); err == nil {
		t.Error("expected error for a document without paths")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b-summary.json", summaryJSON)
	writeFile(t, dir, "a-sentiment.yaml", sentimentYAML)
	writeFile(t, dir, "c-toxicity.yml", sentimentOpenAPI)
	writeFile(t, dir, "README.md", "# not a descriptor")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	c, err := LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var ids []string
	for _, m := range c.Models() {
		ids = append(ids, m.ID)
	}
	if diff := cmp.Diff([]string{"sentiment-fr", "summarizer", "toxicity"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	items := c.List()
	if items[0].Description == nil || *items[0].Description != "French sentiment analysis" {
		t.Errorf("expected description on first item, got %v", items[0].Description)
	}
	if items[1].Description != nil {
		t.Errorf("expected nil description, got %v", *items[1].Description)
	}
}

func TestLoadDirFailsOnBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", sentimentYAML)
	writeFile(t, dir, "bad.yaml", "name: nameless\n")

	if _, err := LoadDir(context.Background(), dir); err == nil {
		t.Error("expected error for an invalid descriptor")
	}
}

func TestCatalogRejectsDuplicates(t *testing.T) {
	_, err := New(
		&models.Model{ID: "same"},
		&models.Model{ID: "same"},
	)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func assertJSON(t *testing.T, text string, expected interface{}) {
	t.Helper()
	var got interface{}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("expected JSON, got %q: %v", text, err)
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}
