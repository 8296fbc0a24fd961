// Package services groups the marketplace API operations used by the client.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ClientInterface defines the methods needed from the marketplace Client
type ClientInterface interface {
	NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error)
	Do(req *http.Request) (*http.Response, error)
	GetBaseURL() string
}

// APIError represents an error response from the marketplace API
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("modelhub api error (status %d, request_id: %s): %s", e.StatusCode, e.RequestID, e.Message)
	}
	return fmt.Sprintf("modelhub api error (status %d): %s", e.StatusCode, e.Message)
}

// decodeAPIError reads a non-success response into an *APIError
func decodeAPIError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	// Try to parse as JSON error response
	var errResp struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil {
		switch {
		case errResp.Error != "":
			apiErr.Message = errResp.Error
		case errResp.Message != "":
			apiErr.Message = errResp.Message
		case len(errResp.Detail) > 0:
			apiErr.Message = detailMessage(errResp.Detail)
		}
		if apiErr.Message != "" {
			return apiErr
		}
	}

	// Fallback to status code only if body is too long
	if len(bodyBytes) > 100 || len(bodyBytes) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
	} else {
		apiErr.Message = string(bodyBytes)
	}
	return apiErr
}

// detailMessage handles both {"detail": "..."} and validation lists
func detailMessage(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var details []struct {
		Msg string        `json:"msg"`
		Loc []interface{} `json:"loc"`
	}
	if err := json.Unmarshal(raw, &details); err != nil || len(details) == 0 {
		return ""
	}

	// Format validation errors nicely
	msg := details[0].Msg
	if loc := details[0].Loc; len(loc) > 0 {
		return fmt.Sprintf("%v: %s", loc[len(loc)-1], msg)
	}
	return msg
}
