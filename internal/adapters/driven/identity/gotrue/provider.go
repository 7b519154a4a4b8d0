// Package gotrue implements the identity provider port against a Supabase
// GoTrue auth server (email and password sign-in).
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.IdentityProvider = (*Provider)(nil)

// Name is recorded on sessions this provider issues.
const Name = "gotrue"

// Endpoint paths relative to the project URL.
const (
	pathSignUp  = "/auth/v1/signup"
	pathToken   = "/auth/v1/token"
	pathSignOut = "/auth/v1/logout"
)

// Config holds configuration for the GoTrue provider.
type Config struct {
	// URL is the Supabase project URL (required).
	URL string

	// AnonKey is the project's public anon key, sent as the apikey header (required).
	AnonKey string

	// HTTPClient overrides the transport.
	HTTPClient *http.Client
}

// Provider signs users in against GoTrue.
type Provider struct {
	client  *http.Client
	baseURL string
	anonKey string
	now     func() time.Time
}

// tokenResponse is the GoTrue session payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *user  `json:"user"`
}

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// errorResponse covers the error shapes GoTrue has used across versions.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// NewProvider creates a new GoTrue identity provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("gotrue: project URL is required: %w", domain.ErrInvalidInput)
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("gotrue: invalid project URL %q: %w", cfg.URL, domain.ErrInvalidInput)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("gotrue: anon key is required: %w", domain.ErrInvalidInput)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Provider{
		client:  cfg.HTTPClient,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		now:     time.Now,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return Name
}

// SignIn exchanges an email and password for a session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := p.post(ctx, "sign in", pathToken+"?grant_type=password", "", body, &resp); err != nil {
		return nil, err
	}
	return p.session("sign in", &resp)
}

// SignUp registers a user. A nil session means the project requires
// email confirmation first.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := p.post(ctx, "sign up", pathSignUp, "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		logger.Debug("gotrue: sign up for %s awaits email confirmation", email)
		return nil, nil
	}
	return p.session("sign up", &resp)
}

// Refresh exchanges a refresh token for a new session.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	var resp tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	err := p.post(ctx, "refresh", pathToken+"?grant_type=refresh_token", "", body, &resp)
	if err != nil {
		var idErr *domain.IdentityError
		if errors.As(err, &idErr) && idErr.Err == nil {
			idErr.Err = domain.ErrSessionExpired
		}
		return nil, err
	}
	return p.session("refresh", &resp)
}

// SignOut revokes the session's refresh tokens. A token the server no
// longer recognises is already signed out.
func (p *Provider) SignOut(ctx context.Context, session *domain.Session) error {
	if session == nil || session.AccessToken == "" {
		return nil
	}
	err := p.post(ctx, "sign out", pathSignOut, session.AccessToken, nil, nil)
	var idErr *domain.IdentityError
	if errors.As(err, &idErr) && errors.Is(idErr.Err, errTokenRejected) {
		return nil
	}
	return err
}

// errTokenRejected marks a 401/403/404 answer to an authenticated call.
var errTokenRejected = errors.New("token rejected")

// post sends one JSON request. A non-nil out receives the decoded success body.
func (p *Provider) post(ctx context.Context, op, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gotrue: encoding %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gotrue: building %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", p.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	logger.Debug("gotrue: %s -> POST %s", op, strings.SplitN(path, "?", 2)[0])

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue: %s: %w: %w", op, domain.ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gotrue: %s: %w: %w", op, domain.ErrIdentityUnavailable, err)
	}

	if transientStatus(resp.StatusCode) {
		logger.Warn("gotrue: %s failed with status %d", op, resp.StatusCode)
		return &domain.IdentityError{
			Op:      op,
			Message: errorMessage(data, resp.StatusCode),
			Err:     domain.ErrIdentityUnavailable,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		idErr := &domain.IdentityError{Op: op, Message: errorMessage(data, resp.StatusCode)}
		if bearer != "" && (resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusNotFound) {
			idErr.Err = errTokenRejected
		}
		return idErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.IdentityError{
			Op:      op,
			Message: fmt.Sprintf("unexpected %s response from identity provider", op),
			Err:     fmt.Errorf("%w: %w", domain.ErrIdentityUnavailable, err),
		}
	}
	return nil
}

// transientStatus reports answers that say nothing about the credentials:
// server failures, timeouts and rate limiting.
func transientStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

// session converts a token response into a domain session.
func (p *Provider) session(op string, resp *tokenResponse) (*domain.Session, error) {
	if resp.AccessToken == "" {
		return nil, &domain.IdentityError{
			Op:      op,
			Message: "identity provider returned no access token",
			Err:     domain.ErrContractViolation,
		}
	}

	now := p.now()
	s := &domain.Session{
		Provider:     Name,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch {
	case resp.ExpiresAt > 0:
		s.Expiry = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		s.Expiry = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	if resp.User != nil {
		s.Principal = domain.Principal{ID: resp.User.ID, Email: resp.User.Email}
	}
	return s, nil
}

// errorMessage extracts the most specific message GoTrue sent.
func errorMessage(body []byte, status int) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil {
		for _, msg := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
			if msg != "" {
				return msg
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("identity provider returned status %d", status)
}
