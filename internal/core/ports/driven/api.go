package driven

import (
	"context"
	"encoding/json"
)

// RequestOptions describes one backend call.
type RequestOptions struct {
	// Method is GET, POST, PUT, PATCH or DELETE. Empty means GET.
	Method string

	// Body is JSON-encoded when non-nil.
	Body any

	// Token is sent as a bearer credential when non-empty.
	// It is borrowed for this call only.
	Token string
}

// APIClient performs authorized calls against the backend API.
//
// Every failure is a *domain.APIError whose Message is what the user sees.
type APIClient interface {
	// Request sends one call and returns the raw JSON body.
	// A 204 response returns nil.
	Request(ctx context.Context, path string, opts RequestOptions) (json.RawMessage, error)

	// BaseURL returns the resolved backend address.
	BaseURL() string
}
