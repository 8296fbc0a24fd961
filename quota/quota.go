// Package quota persists per-(model, endpoint) trial invocation counts.
//
// A count is created lazily (absent means zero), grows by one after each
// successful invocation and is never decremented. Several backends are
// provided: an in-memory map, a JSON file playing the role of browser local
// storage, SQL databases and Redis. Concurrent writers from different
// processes follow last-writer-wins semantics except where the backend
// offers an atomic increment.
package quota

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Store reads and increments invocation counts
type Store interface {
	// Get returns the persisted count, 0 if never recorded
	Get(ctx context.Context, modelID, endpointPath string) (int, error)
	// Increment adds one to the persisted count
	Increment(ctx context.Context, modelID, endpointPath string) error
	Close() error
}

const keyPrefix = "quota"

// Key derives the storage key for a (model, endpoint path) pair.
// Both components are query-escaped so '/' and ':' never appear raw, which
// keeps distinct pairs such as ("m", "/a/b") and ("m", "/a_b") apart.
func Key(modelID, endpointPath string) string {
	return keyPrefix + ":" + url.QueryEscape(modelID) + ":" + url.QueryEscape(endpointPath)
}

// ParseKey reverses Key
func ParseKey(key string) (modelID, endpointPath string, err error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != keyPrefix {
		return "", "", fmt.Errorf("malformed quota key %q", key)
	}
	if modelID, err = url.QueryUnescape(parts[1]); err != nil {
		return "", "", fmt.Errorf("malformed model id in %q: %w", key, err)
	}
	if endpointPath, err = url.QueryUnescape(parts[2]); err != nil {
		return "", "", fmt.Errorf("malformed endpoint path in %q: %w", key, err)
	}
	return modelID, endpointPath, nil
}

// parseCount converts a stored counter. Garbage reads as zero.
func parseCount(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}
