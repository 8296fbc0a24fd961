package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"modelhub-sdk/models"
	"modelhub-sdk/quota"
)

// TrialCeiling is the number of successful calls allowed per (model, endpoint)
const TrialCeiling = 3

// Phase is a step of one submit attempt
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseComposing
	PhaseQuotaCheck
	PhaseCalling
	PhaseClassifying
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseComposing:
		return "composing"
	case PhaseQuotaCheck:
		return "quota_check"
	case PhaseCalling:
		return "calling"
	case PhaseClassifying:
		return "classifying"
	}
	return "unknown"
}

// HTTPDoer performs the outbound call. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Invoker runs one submit attempt and never fails outside its Outcome
type Invoker interface {
	Invoke(ctx context.Context, modelID string, endpoint models.Endpoint, rawInput string) Outcome
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// Controller meters, performs and classifies endpoint invocations.
// It holds no per-attempt state and may be shared by several sandboxes.
type Controller struct {
	quota   quota.Store
	client  HTTPDoer
	origin  *url.URL
	headers map[string]string
	logger  *log.Logger
	onPhase func(Phase)
	now     func() time.Time
	newID   func() string
}

// NewController creates a controller metering against store
func NewController(store quota.Store, opts ...ControllerOption) *Controller {
	c := &Controller{
		quota: store,
		// No timeout: the remote service or the network stack decides
		client:  &http.Client{},
		headers: make(map[string]string),
		logger:  log.New(io.Discard, "", 0),
		onPhase: func(Phase) {},
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithHTTPClient replaces the transport used for outbound calls
func WithHTTPClient(client HTTPDoer) ControllerOption {
	return func(c *Controller) {
		c.client = client
	}
}

// WithOrigin sets the base that relative endpoint paths resolve against,
// the way a browser resolves them against the page origin. Invalid
// origins are ignored.
func WithOrigin(origin string) ControllerOption {
	return func(c *Controller) {
		if origin == "" {
			return
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			c.logger.Printf("ignoring invalid origin %q", origin)
			return
		}
		c.origin = u
	}
}

// WithRequestHeader adds a header sent with every invocation
func WithRequestHeader(key, value string) ControllerOption {
	return func(c *Controller) {
		c.headers[key] = value
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPhaseHook registers a callback invoked on every phase transition
func WithPhaseHook(hook func(Phase)) ControllerOption {
	return func(c *Controller) {
		if hook != nil {
			c.onPhase = hook
		}
	}
}

// WithClock replaces the wall clock used to measure elapsed time
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.now = now
	}
}

// Invoke runs one attempt: compose, check quota, call, classify.
// Exactly one Outcome is returned; quota is incremented only on 2xx.
func (c *Controller) Invoke(ctx context.Context, modelID string, endpoint models.Endpoint, rawInput string) Outcome {
	defer c.onPhase(PhaseIdle)

	c.onPhase(PhaseComposing)
	body, err := Compose(rawInput, endpoint)
	if err != nil {
		if verr, ok := err.(*ValidationError); ok {
			return verr
		}
		return &ValidationError{Message: err.Error()}
	}

	c.onPhase(PhaseQuotaCheck)
	used, err := c.quota.Get(ctx, modelID, endpoint.Path)
	if err != nil {
		c.logger.Printf("quota read failed for %s %s: %v", modelID, endpoint.Path, err)
		return &TransportError{Message: "quota store unavailable", Err: err}
	}
	if used >= TrialCeiling {
		c.logger.Printf("trial limit reached for %s %s (%d/%d)", modelID, endpoint.Path, used, TrialCeiling)
		return &ValidationError{Message: MsgTrialLimit}
	}

	c.onPhase(PhaseCalling)
	requestID := c.newID()
	status, respBody, elapsed, err := c.call(ctx, endpoint, body, requestID)
	if err != nil {
		c.logger.Printf("call %s %s failed: %v", endpoint.Method, endpoint.Path, err)
		return &TransportError{Message: err.Error(), Err: err}
	}

	c.onPhase(PhaseClassifying)
	outcome := classify(status, respBody, elapsed, requestID)
	if _, ok := outcome.(*Success); ok {
		if err := c.quota.Increment(ctx, modelID, endpoint.Path); err != nil {
			// The call went through; the user still gets the result
			c.logger.Printf("quota increment failed for %s %s: %v", modelID, endpoint.Path, err)
		}
	}

	c.logger.Printf("%s %s -> %s (request %s)", endpoint.Method, endpoint.Path, outcome.String(), requestID)
	return outcome
}

// call performs the HTTP exchange and returns the status and full body
func (c *Controller) call(ctx context.Context, endpoint models.Endpoint, body json.RawMessage, requestID string) (int, []byte, time.Duration, error) {
	target, err := c.resolve(endpoint.Path)
	if err != nil {
		return 0, nil, 0, err
	}

	method := strings.ToUpper(endpoint.Method)
	var reader io.Reader
	if method != http.MethodGet && method != http.MethodHead {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := c.now()
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, data, c.now().Sub(start), nil
}

func (c *Controller) resolve(path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint path %q: %w", path, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if c.origin == nil {
		return "", fmt.Errorf("endpoint path %q is relative and no origin is configured", path)
	}
	return c.origin.ResolveReference(u).String(), nil
}

// classify maps an HTTP response onto an Outcome
func classify(status int, body []byte, elapsed time.Duration, requestID string) Outcome {
	if status >= 200 && status < 300 {
		return &Success{
			ResponseBody: responseJSON(body),
			ElapsedMs:    elapsed.Milliseconds(),
			Status:       status,
			RequestID:    requestID,
		}
	}

	code, message := remoteDetails(body)
	if code == "" {
		code = strconv.Itoa(status)
	}

	outage := status >= 500
	if message == "" {
		message = MsgRemoteFailed
		if outage {
			message = MsgRemoteOutage
		}
	}

	return &RemoteError{
		Status:  status,
		Code:    code,
		Message: message,
		Outage:  outage,
	}
}

// responseJSON keeps JSON bodies as-is and turns anything else into a JSON string
func responseJSON(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}

	quoted, err := json.Marshal(string(body))
	if err != nil {
		return json.RawMessage("null")
	}
	return quoted
}

// remoteDetails extracts code and message from an error body.
// Recognised shapes: {"code","message"}, {"error":{"code","message"}},
// {"error":"..."}, {"detail":"..."} and {"detail":[{"msg":"..."}]}.
// Anything unparseable yields empty strings.
func remoteDetails(body []byte) (code, message string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", ""
	}

	code = scalarText(fields["code"])
	message = scalarText(fields["message"])

	if raw, ok := fields["error"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			if code == "" {
				code = scalarText(nested["code"])
			}
			if message == "" {
				message = scalarText(nested["message"])
			}
		} else if message == "" {
			message = scalarText(raw)
		}
	}

	if message == "" {
		if raw, ok := fields["detail"]; ok {
			message = scalarText(raw)
			if message == "" {
				var details []struct {
					Msg string `json:"msg"`
				}
				if err := json.Unmarshal(raw, &details); err == nil && len(details) > 0 {
					message = details[0].Msg
				}
			}
		}
	}

	return code, message
}

// scalarText renders a JSON string or number as text; other values are empty
func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}
