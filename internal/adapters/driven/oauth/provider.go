// Package oauth implements the identity provider port against a generic
// OAuth2 authorization server.
//
// Sign-in uses the resource owner password grant; browser login uses the
// authorization code grant with PKCE. The principal is read from the
// id_token (or a JWT access token) without verifying its signature: the
// backend verifies every token it receives, and the client only needs the
// subject and email for display.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Provider implements the interfaces.
var (
	_ driven.IdentityProvider = (*Provider)(nil)
	_ driven.CodeExchanger    = (*Provider)(nil)
)

// Name is recorded on sessions this provider issues.
const Name = "oauth"

// Config holds configuration for the OAuth2 provider.
type Config struct {
	ClientID     string
	ClientSecret string

	// AuthURL is the authorization endpoint. Required for browser login only.
	AuthURL string

	// TokenURL is the token endpoint (required).
	TokenURL string

	// RevokeURL is the RFC 7009 revocation endpoint. Optional.
	RevokeURL string

	Scopes []string

	// HTTPClient overrides the transport used for token calls.
	HTTPClient *http.Client
}

// Provider signs users in against an OAuth2 server.
type Provider struct {
	conf      oauth2.Config
	revokeURL string
	client    *http.Client
	now       func() time.Time
}

// NewProvider creates a new OAuth2 identity provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("oauth: client id is required: %w", domain.ErrInvalidInput)
	}
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("oauth: token url is required: %w", domain.ErrInvalidInput)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Provider{
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			Scopes: cfg.Scopes,
		},
		revokeURL: cfg.RevokeURL,
		client:    cfg.HTTPClient,
		now:       time.Now,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return Name
}

// SignIn uses the password grant.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	tok, err := p.conf.PasswordCredentialsToken(p.withClient(ctx), email, password)
	if err != nil {
		return nil, p.translate("sign in", err)
	}
	return p.session("sign in", tok)
}

// SignUp is not part of OAuth2.
func (p *Provider) SignUp(context.Context, string, string) (*domain.Session, error) {
	return nil, fmt.Errorf("oauth: sign up must happen at the authorization server: %w", domain.ErrNotSupported)
}

// Refresh exchanges a refresh token for a new session.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, &domain.IdentityError{Op: "refresh", Message: "no refresh token", Err: domain.ErrSessionExpired}
	}

	// An already-expired token forces the source to refresh.
	stale := &oauth2.Token{RefreshToken: refreshToken, Expiry: p.now().Add(-time.Minute)}
	tok, err := p.conf.TokenSource(p.withClient(ctx), stale).Token()
	if err != nil {
		err = p.translate("refresh", err)
		var idErr *domain.IdentityError
		if errors.As(err, &idErr) && idErr.Err == nil {
			idErr.Err = domain.ErrSessionExpired
		}
		return nil, err
	}
	return p.session("refresh", tok)
}

// SignOut revokes the refresh token (or the access token when there is
// none). Without a revocation endpoint there is nothing to invalidate.
func (p *Provider) SignOut(ctx context.Context, session *domain.Session) error {
	if p.revokeURL == "" || session == nil {
		return nil
	}

	token, hint := session.RefreshToken, "refresh_token"
	if token == "" {
		token, hint = session.AccessToken, "access_token"
	}
	if token == "" {
		return nil
	}

	form := url.Values{
		"token":           {token},
		"token_type_hint": {hint},
		"client_id":       {p.conf.ClientID},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("oauth: building revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if p.conf.ClientSecret != "" {
		req.SetBasicAuth(url.QueryEscape(p.conf.ClientID), url.QueryEscape(p.conf.ClientSecret))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("oauth: revoke: %w: %w", domain.ErrIdentityUnavailable, err)
	}
	defer resp.Body.Close()

	// RFC 7009: an invalid token still yields 200.
	if resp.StatusCode != http.StatusOK {
		err := &domain.IdentityError{
			Op:      "sign out",
			Message: fmt.Sprintf("token revocation failed with status %d", resp.StatusCode),
		}
		if resp.StatusCode >= 500 {
			err.Err = domain.ErrIdentityUnavailable
		}
		return err
	}
	return nil
}

// AuthorizationURL returns the browser URL for the code flow with an S256 challenge.
func (p *Provider) AuthorizationURL(state, codeChallenge, redirectURI string) string {
	conf := p.conf
	conf.RedirectURL = redirectURI
	return conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode trades an authorization code for a session.
func (p *Provider) ExchangeCode(ctx context.Context, code, codeVerifier, redirectURI string) (*domain.Session, error) {
	conf := p.conf
	conf.RedirectURL = redirectURI
	tok, err := conf.Exchange(p.withClient(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, p.translate("authorize", err)
	}
	return p.session("authorize", tok)
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// translate maps oauth2 failures onto identity errors.
func (p *Provider) translate(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return fmt.Errorf("oauth: %s: %w: %w", op, domain.ErrIdentityUnavailable, err)
	}

	msg := retrieveErr.ErrorDescription
	if msg == "" {
		msg = retrieveErr.ErrorCode
	}
	if msg == "" {
		msg = strings.TrimSpace(string(retrieveErr.Body))
	}

	idErr := &domain.IdentityError{Op: op, Message: msg}
	if retrieveErr.Response != nil {
		switch code := retrieveErr.Response.StatusCode; {
		case code >= 500, code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
			idErr.Err = domain.ErrIdentityUnavailable
		}
	}
	if idErr.Message == "" {
		idErr.Message = fmt.Sprintf("%s failed", op)
	}
	logger.Debug("oauth: %s rejected: %s", op, idErr.Message)
	return idErr
}

// session converts an oauth2 token into a domain session.
func (p *Provider) session(op string, tok *oauth2.Token) (*domain.Session, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, &domain.IdentityError{
			Op:      op,
			Message: "authorization server returned no access token",
			Err:     domain.ErrContractViolation,
		}
	}

	now := p.now()
	s := &domain.Session{
		Provider:     Name,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		Expiry:       tok.Expiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	claims := principalClaims(tok)
	if claims != nil {
		s.Principal.ID, _ = claims.GetSubject()
		if email, ok := claims["email"].(string); ok {
			s.Principal.Email = email
		}
		if s.Expiry.IsZero() {
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				s.Expiry = exp.Time
			}
		}
	}
	return s, nil
}

// principalClaims reads claims from the id_token, falling back to a JWT
// access token. Opaque tokens yield nil.
func principalClaims(tok *oauth2.Token) jwt.MapClaims {
	parser := jwt.NewParser()
	candidates := []string{tok.AccessToken}
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		candidates = append([]string{idToken}, candidates...)
	}

	for _, raw := range candidates {
		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(raw, claims); err == nil {
			return claims
		}
	}
	return nil
}
