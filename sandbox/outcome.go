package sandbox

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind discriminates the variants of Outcome
type OutcomeKind int

const (
	KindSuccess OutcomeKind = iota
	KindValidation
	KindTransport
	KindRemote
)

func (k OutcomeKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidation:
		return "validation_error"
	case KindTransport:
		return "transport_error"
	case KindRemote:
		return "remote_error"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the normalized result of one submit attempt.
// It is implemented only by *Success, *ValidationError, *TransportError and
// *RemoteError.
type Outcome interface {
	Kind() OutcomeKind
	// String is the human-readable rendering shown to the user
	String() string
	sealed()
}

// Validation messages
const (
	MsgInvalidJSON  = "invalid JSON syntax"
	MsgTrialLimit   = "trial limit reached"
	MsgEmptyInput   = "input is empty"
	MsgNoEndpoint   = "no endpoint selected"
	MsgRemoteFailed = "the model service rejected the request"
	MsgRemoteOutage = "the model service is currently unavailable"
)

// Success carries the parsed response of a 2xx call
type Success struct {
	ResponseBody json.RawMessage `json:"response_body"`
	ElapsedMs    int64           `json:"elapsed_ms"`
	Status       int             `json:"status"`
	RequestID    string          `json:"request_id,omitempty"`
}

func (s *Success) Kind() OutcomeKind { return KindSuccess }
func (s *Success) sealed()           {}

func (s *Success) String() string {
	return fmt.Sprintf("success (status %d, %d ms)", s.Status, s.ElapsedMs)
}

// ValidationError is a local rejection made before any network traffic
type ValidationError struct {
	Message string `json:"message"`
}

func (e *ValidationError) Kind() OutcomeKind { return KindValidation }
func (e *ValidationError) sealed()           {}
func (e *ValidationError) String() string    { return e.Error() }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// TransportError means no HTTP response could be obtained
type TransportError struct {
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *TransportError) Kind() OutcomeKind { return KindTransport }
func (e *TransportError) sealed()           {}
func (e *TransportError) String() string    { return e.Error() }

func (e *TransportError) Error() string {
	return fmt.Sprintf("technical problem, try again later: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is a non-2xx response from the model service.
// Outage marks status >= 500: the service is failing as a whole rather than
// rejecting this particular request.
type RemoteError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Outage  bool   `json:"outage"`
}

func (e *RemoteError) Kind() OutcomeKind { return KindRemote }
func (e *RemoteError) sealed()           {}
func (e *RemoteError) String() string    { return e.Error() }

func (e *RemoteError) Error() string {
	if e.Outage {
		return fmt.Sprintf("model service degraded (status %d, code %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("model service error (status %d, code %s): %s", e.Status, e.Code, e.Message)
}

// Degraded reports whether an outcome implies the sandbox itself may be
// unusable for now (transport failure or remote outage). Hosts show these
// as a persistent banner instead of inline text.
func Degraded(o Outcome) bool {
	switch v := o.(type) {
	case *TransportError:
		return true
	case *RemoteError:
		return v.Outage
	}
	return false
}

// MarshalOutcome renders an outcome as {"kind": ..., "outcome": {...}}
func MarshalOutcome(o Outcome) ([]byte, error) {
	return json.Marshal(struct {
		Kind    string  `json:"kind"`
		Message string  `json:"message"`
		Outcome Outcome `json:"outcome"`
	}{
		Kind:    o.Kind().String(),
		Message: o.String(),
		Outcome: o,
	})
}
