// Package api implements the backend API access layer.
//
// Client turns a borrowed bearer token into one authorized JSON call and
// normalizes every failure into a *domain.APIError.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.APIClient = (*Client)(nil)

// DefaultUserAgent identifies ragdesk to the backend.
const DefaultUserAgent = "ragdesk"

// Config holds configuration for the API client.
type Config struct {
	// BaseURL is the backend address (default: domain.DefaultAPIBaseURL).
	BaseURL string

	// RateLimit caps requests per second. Zero disables throttling.
	RateLimit int

	// UserAgent is sent with every request (default: DefaultUserAgent).
	UserAgent string

	// HTTPClient overrides the transport. It must not set a Timeout;
	// cancellation belongs to the caller's context.
	HTTPClient *http.Client
}

// Client performs calls against the backend API.
type Client struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	newID     func() string
}

// NewClient creates a new API client. The base address is fixed for the
// lifetime of the client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = domain.DefaultAPIBaseURL
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q: %w", cfg.BaseURL, domain.ErrInvalidInput)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("api: rate limit must not be negative: %w", domain.ErrInvalidInput)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	c := &Client{
		client:    cfg.HTTPClient,
		baseURL:   base,
		userAgent: cfg.UserAgent,
		newID:     uuid.NewString,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}
	return c, nil
}

// BaseURL returns the resolved backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request sends one call and returns the raw JSON body, or nil for 204.
func (c *Client) Request(ctx context.Context, path string, opts driven.RequestOptions) (json.RawMessage, error) {
	method, err := normalizeMethod(opts.Method)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if hasBody(opts.Body) {
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, &domain.APIError{
				Kind:    domain.KindValidation,
				Message: fmt.Sprintf("encoding request body: %v", err),
				Err:     err,
			}
		}
		body = bytes.NewReader(payload)
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &domain.APIError{Kind: domain.KindValidation, Message: err.Error(), Err: err}
	}

	requestID := c.newID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportError(err)
		}
	}

	logger.Debug("api: %s %s id=%s token=%s", method, path, requestID, logger.RedactToken(opts.Token))
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Debug("api: %s %s failed after %s: %v", method, path, time.Since(start), err)
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(fmt.Errorf("reading response body: %w", err))
	}

	logger.Debug("api: %s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewAPIError(domain.KindForStatus(resp.StatusCode), string(data))
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if len(bytes.TrimSpace(data)) == 0 || !json.Valid(data) {
		return nil, &domain.APIError{
			Kind:    domain.KindTransport,
			Message: fmt.Sprintf("malformed response from %s %s", method, path),
			Err:     domain.ErrTransport,
		}
	}

	return json.RawMessage(data), nil
}

// hasBody reports whether v should be encoded. A nil pointer, map, slice or
// interface stored in the any is treated as absent rather than sent as null.
func hasBody(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func normalizeMethod(method string) (string, error) {
	if method == "" {
		return http.MethodGet, nil
	}
	switch m := strings.ToUpper(method); m {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return m, nil
	}
	return "", &domain.APIError{
		Kind:    domain.KindValidation,
		Message: fmt.Sprintf("unsupported method %q", method),
		Err:     domain.ErrInvalidInput,
	}
}

func transportError(err error) *domain.APIError {
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg = urlErr.Err.Error()
	}
	return &domain.APIError{Kind: domain.KindTransport, Message: msg, Err: err}
}
