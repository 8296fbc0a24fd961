package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modelhub-sdk/catalog"
	"modelhub-sdk/cmd/modelhub/internal/config"
	"modelhub-sdk/mockserver"
	"modelhub-sdk/models"
	"modelhub-sdk/sandbox"
)

const echoDescriptor = `
id: echo
name: Echo
endpoints:
  - method: POST
    path: /v1/echo
    request_template:
      text: "..."
    response_template:
      echoed: true
    error_template:
      code: bad_input
      message: text is required
`

// setupCatalog writes a descriptor directory and serves it
func setupCatalog(t *testing.T, opts mockserver.Options) (string, *httptest.Server) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"MODELHUB_BASE_URL", "MODELHUB_ORIGIN", "MODELHUB_QUOTA_DRIVER", "MODELHUB_QUOTA_DSN", "MODELHUB_CATALOG_DIR"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "echo.yaml"), []byte(echoDescriptor), 0644); err != nil {
		t.Fatal(err)
	}

	cat, err := catalog.LoadDir(t.Context(), dir)
	if err != nil {
		t.Fatal(err)
	}
	server := httptest.NewServer(mockserver.New(cat, opts))
	t.Cleanup(server.Close)
	return dir, server
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		outcome  sandbox.Outcome
		expected int
	}{
		{&sandbox.Success{Status: 200}, exitSuccess},
		{&sandbox.ValidationError{Message: sandbox.MsgInvalidJSON}, exitInvalid},
		{&sandbox.TransportError{Message: "refused"}, exitDegraded},
		{&sandbox.RemoteError{Status: 503, Outage: true}, exitDegraded},
		{&sandbox.RemoteError{Status: 400}, exitRejected},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.Kind().String(), func(t *testing.T) {
			if got := exitCode(tt.outcome); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestRunInvoke(t *testing.T) {
	dir, server := setupCatalog(t, mockserver.Options{})

	var stdout, stderr bytes.Buffer
	code := run([]string{"invoke", "-catalog", dir, "-origin", server.URL, "-quota", "memory", "-m", "echo", "bonjour"},
		strings.NewReader(""), &stdout, &stderr)

	if code != exitSuccess {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr.String())
	}

	var printed struct {
		Kind    string `json:"kind"`
		Outcome struct {
			Status       int             `json:"status"`
			ResponseBody json.RawMessage `json:"response_body"`
		} `json:"outcome"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &printed); err != nil {
		t.Fatalf("expected JSON output, got %q", stdout.String())
	}
	if printed.Kind != "success" || printed.Outcome.Status != http.StatusOK {
		t.Errorf("unexpected output %s", stdout.String())
	}
	if string(printed.Outcome.ResponseBody) != `{"echoed":true}` {
		t.Errorf("expected template response, got %s", printed.Outcome.ResponseBody)
	}
}

func TestRunInvokeExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		opts     mockserver.Options
		args     []string
		expected int
	}{
		{name: "malformed json", args: []string{"{broken"}, expected: exitInvalid},
		{name: "outage", opts: mockserver.Options{ForceStatus: 503}, args: []string{"bonjour"}, expected: exitDegraded},
		{name: "rejected", opts: mockserver.Options{ForceStatus: 422}, args: []string{"bonjour"}, expected: exitRejected},
		{name: "unknown endpoint", args: []string{"-endpoint", "/v1/missing", "bonjour"}, expected: exitInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, server := setupCatalog(t, tt.opts)

			args := append([]string{"invoke", "-catalog", dir, "-origin", server.URL, "-quota", "memory", "-m", "echo"}, tt.args...)
			var stdout, stderr bytes.Buffer
			code := run(args, strings.NewReader(""), &stdout, &stderr)

			if code != tt.expected {
				t.Errorf("expected exit %d, got %d (stdout: %s, stderr: %s)", tt.expected, code, stdout.String(), stderr.String())
			}
		})
	}
}

func TestRunInvokeReadsStdin(t *testing.T) {
	dir, server := setupCatalog(t, mockserver.Options{})

	var stdout, stderr bytes.Buffer
	code := run([]string{"invoke", "-catalog", dir, "-origin", server.URL, "-quota", "memory", "-m", "echo", "-file", "-"},
		strings.NewReader(`{"text": "depuis stdin"}`), &stdout, &stderr)

	if code != exitSuccess {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr.String())
	}
}

func TestRunInvokeTrialLimitWithFileQuota(t *testing.T) {
	dir, server := setupCatalog(t, mockserver.Options{})
	quotaFile := filepath.Join(t.TempDir(), "quota.json")

	args := []string{"invoke", "-catalog", dir, "-origin", server.URL, "-quota", "file", "-quota-dsn", quotaFile, "-m", "echo", "bonjour"}
	for i := 0; i < sandbox.TrialCeiling; i++ {
		var stdout, stderr bytes.Buffer
		if code := run(args, strings.NewReader(""), &stdout, &stderr); code != exitSuccess {
			t.Fatalf("call %d: expected exit 0, got %d (stderr: %s)", i+1, code, stderr.String())
		}
	}

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(""), &stdout, &stderr)
	if code != exitInvalid {
		t.Errorf("expected trial limit exit %d, got %d", exitInvalid, code)
	}
	if !strings.Contains(stdout.String(), sandbox.MsgTrialLimit) {
		t.Errorf("expected trial limit message, got %s", stdout.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	if code := run([]string{"frobnicate"}, strings.NewReader(""), &stdout, &stderr); code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "unknown command") {
		t.Errorf("expected usage message, got %s", stderr.String())
	}
}

func TestAppOrigin(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		expected string
	}{
		{name: "explicit origin", cfg: config.Config{Origin: "https://o.example.com", BaseURL: "https://api.example.com/api"}, expected: "https://o.example.com"},
		{name: "marketplace origin", cfg: config.Config{BaseURL: "https://api.example.com/api"}, expected: "https://api.example.com"},
		{name: "local catalog without origin", cfg: config.Config{CatalogDir: "./models", BaseURL: "https://api.example.com/api"}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{cfg: tt.cfg}
			if got := a.origin(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey("sk-123456"); got != "*****3456" {
		t.Errorf("expected masked key, got %s", got)
	}
	if got := maskKey("abc"); got != "***" {
		t.Errorf("expected fully masked short key, got %s", got)
	}
}

func TestPickEndpoint(t *testing.T) {
	model := &models.Model{
		ID: "echo",
		Endpoints: []models.Endpoint{
			{Method: "GET", Path: "/v1/health"},
			{Method: "POST", Path: "/v1/echo"},
		},
	}

	ep, err := pickEndpoint(model, "", "")
	if err != nil || ep.Path != "/v1/health" {
		t.Errorf("expected first endpoint by default, got %v (%v)", ep, err)
	}

	ep, err = pickEndpoint(model, "post", "/v1/echo")
	if err != nil || ep.Method != "POST" {
		t.Errorf("expected POST /v1/echo, got %v (%v)", ep, err)
	}

	if _, err := pickEndpoint(model, "GET", "/v1/echo"); err == nil {
		t.Error("expected error for undeclared method")
	}

	var noEndpoints *sandbox.NoEndpointsError
	if _, err := pickEndpoint(&models.Model{ID: "empty"}, "", ""); !errors.As(err, &noEndpoints) {
		t.Errorf("expected NoEndpointsError, got %v", err)
	}
}

func TestAppSession(t *testing.T) {
	a := &app{cfg: config.Config{CatalogDir: "./models", Origin: "http://localhost:8089"}}

	got := a.session()
	if got.Source != "./models" || got.Quota != "file" || got.Origin != "http://localhost:8089" {
		t.Errorf("unexpected session %+v", got)
	}

	a = &app{cfg: config.Config{BaseURL: "https://api.example.com/api", QuotaDriver: "redis"}}
	got = a.session()
	if got.Source != "https://api.example.com/api" || got.Quota != "redis" || got.Origin != "https://api.example.com" {
		t.Errorf("unexpected session %+v", got)
	}
}
