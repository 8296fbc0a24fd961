package modelhub

import (
	"context"
	"net/http"
	"net/url"

	"modelhub-sdk/quota"
	"modelhub-sdk/sandbox"
)

// OpenSandbox fetches a model from the marketplace and opens a testing
// sandbox on it. Relative endpoint paths resolve against the marketplace
// origin unless opts set another one.
func (c *Client) OpenSandbox(ctx context.Context, modelID string, store quota.Store, opts ...sandbox.ControllerOption) (*sandbox.Sandbox, error) {
	if modelID == "" {
		return nil, &ValidationError{Field: "model_id", Message: "must not be empty"}
	}
	if store == nil {
		return nil, &ValidationError{Field: "store", Message: "a quota store is required"}
	}

	model, err := c.Models.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}

	// Model calls are awaited without the marketplace client's timeout
	calls := &http.Client{Transport: c.httpClient.Transport}

	controllerOpts := []sandbox.ControllerOption{sandbox.WithHTTPClient(calls)}
	if origin := c.origin(); origin != "" {
		controllerOpts = append(controllerOpts, sandbox.WithOrigin(origin))
	}
	controllerOpts = append(controllerOpts, opts...)

	controller := sandbox.NewController(store, controllerOpts...)
	return sandbox.New(model, controller, store)
}

// origin returns scheme://host of the base URL
func (c *Client) origin() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
