package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"modelhub-sdk/models"
	"modelhub-sdk/quota"
)

// spyDoer records every outbound request and answers with canned responses
type spyDoer struct {
	mu        sync.Mutex
	calls     int
	bodies    []string
	requests  []*http.Request
	status    int
	body      string
	err       error
	responses []cannedResponse
}

type cannedResponse struct {
	status int
	body   string
}

func (d *spyDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	d.requests = append(d.requests, req)
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		d.bodies = append(d.bodies, string(data))
	} else {
		d.bodies = append(d.bodies, "")
	}

	if d.err != nil {
		return nil, d.err
	}

	status, body := d.status, d.body
	if len(d.responses) > 0 {
		status, body = d.responses[0].status, d.responses[0].body
		d.responses = d.responses[1:]
	}

	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (d *spyDoer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *spyDoer) lastBody(t *testing.T) map[string]interface{} {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.bodies) == 0 {
		t.Fatal("expected at least one outbound call")
	}
	var body map[string]interface{}
	if err := json.Unmarshal([]byte(d.bodies[len(d.bodies)-1]), &body); err != nil {
		t.Fatalf("expected JSON request body, got %q: %v", d.bodies[len(d.bodies)-1], err)
	}
	return body
}

// failingStore fails every operation
type failingStore struct{}

func (failingStore) Get(ctx context.Context, modelID, endpointPath string) (int, error) {
	return 0, errors.New("disk on fire")
}

func (failingStore) Increment(ctx context.Context, modelID, endpointPath string) error {
	return errors.New("disk on fire")
}

func (failingStore) Close() error { return nil }

func textEndpoint() models.Endpoint {
	return models.Endpoint{
		Method:           "POST",
		Path:             "https://models.example.com/v1/sentiment",
		Description:      "Classify sentiment",
		RequestTemplate:  `{"text": "..."}`,
		ResponseTemplate: `{"label": "positive"}`,
		ErrorTemplate:    `{"code": "bad_input", "message": "..."}`,
	}
}

func sentimentModel(examples ...models.Example) *models.Model {
	return &models.Model{
		ID:        "sentiment-fr",
		Name:      "Sentiment FR",
		Endpoints: []models.Endpoint{textEndpoint()},
		Examples:  examples,
	}
}

func newTestSandbox(t *testing.T, model *models.Model, doer *spyDoer, store quota.Store) *Sandbox {
	t.Helper()
	controller := NewController(store, WithHTTPClient(doer))
	sb, err := New(model, controller, store)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return sb
}
