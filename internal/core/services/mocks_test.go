package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// mockIdentity is a scriptable identity provider.
type mockIdentity struct {
	mu sync.Mutex

	signInSession  *domain.Session
	signInErr      error
	signUpSession  *domain.Session
	signUpErr      error
	refreshSession *domain.Session
	refreshErr     error
	signOutErr     error

	// block, when set, is waited on inside SignIn so tests can observe Loading.
	block chan struct{}

	// refreshStarted is closed when Refresh is entered; Refresh then waits
	// for refreshGate.
	refreshStarted chan struct{}
	refreshGate    chan struct{}

	refreshCalls int
	signOutCalls int
}

var _ driven.IdentityProvider = (*mockIdentity)(nil)

func (m *mockIdentity) Name() string { return "mock" }

func (m *mockIdentity) SignIn(ctx context.Context, _, _ string) (*domain.Session, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySession(m.signInSession), m.signInErr
}

func (m *mockIdentity) SignUp(_ context.Context, _, _ string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySession(m.signUpSession), m.signUpErr
}

func (m *mockIdentity) Refresh(_ context.Context, _ string) (*domain.Session, error) {
	if m.refreshGate != nil {
		close(m.refreshStarted)
		<-m.refreshGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	return copySession(m.refreshSession), m.refreshErr
}

func (m *mockIdentity) SignOut(_ context.Context, _ *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutCalls++
	return m.signOutErr
}

func (m *mockIdentity) refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

// mockExchanger adds browser login to mockIdentity.
type mockExchanger struct {
	*mockIdentity
	exchangeSession *domain.Session
	exchangeErr     error
	gotVerifier     string
	gotRedirect     string
}

var _ driven.CodeExchanger = (*mockExchanger)(nil)

func (m *mockExchanger) AuthorizationURL(state, challenge, redirectURI string) string {
	return "https://idp.example.com/authorize?state=" + state + "&code_challenge=" + challenge + "&redirect_uri=" + redirectURI
}

func (m *mockExchanger) ExchangeCode(_ context.Context, _, verifier, redirectURI string) (*domain.Session, error) {
	m.gotVerifier = verifier
	m.gotRedirect = redirectURI
	return copySession(m.exchangeSession), m.exchangeErr
}

func copySession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// staticTokens lends a fixed token or error.
type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) {
	return s.token, s.err
}

// recordedRequest captures one call made through mockAPI.
type recordedRequest struct {
	Path string
	Opts driven.RequestOptions
}

// mockAPI answers every request with a fixed payload or error.
type mockAPI struct {
	mu       sync.Mutex
	response json.RawMessage
	err      error
	requests []recordedRequest
}

var _ driven.APIClient = (*mockAPI)(nil)

func (m *mockAPI) Request(_ context.Context, path string, opts driven.RequestOptions) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{Path: path, Opts: opts})
	return m.response, m.err
}

func (m *mockAPI) BaseURL() string { return "http://api.test" }

func (m *mockAPI) last() recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return recordedRequest{}
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockAPI) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// failingStore is a session store whose operations fail.
type failingStore struct {
	err error
}

func (f failingStore) Load(context.Context) (*domain.Session, error) { return nil, f.err }
func (f failingStore) Save(context.Context, *domain.Session) error   { return f.err }
func (f failingStore) Delete(context.Context) error                  { return f.err }
func (f failingStore) Close() error                                  { return nil }

var errBoom = errors.New("boom")
