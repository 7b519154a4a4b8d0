package cli

import (
	"context"
	"net/url"
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// mockSessionHolder is a scriptable session holder.
type mockSessionHolder struct {
	mu sync.Mutex

	state   domain.SessionState
	initErr error

	signInErr    error
	signUpResult domain.SignUpResult
	signUpErr    error
	beginErr     error
	completeErr  error
	signOutErr   error

	initCalls     int
	signInEmail   string
	signInPass    string
	signUpEmail   string
	redirectURI   string
	completedCode string
	signOutCalls  int
	watchCalls    int
}

var _ driving.SessionHolder = (*mockSessionHolder)(nil)

func (m *mockSessionHolder) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.IsPresent() {
		return "", domain.ErrNotSignedIn
	}
	return m.state.Token, nil
}

func (m *mockSessionHolder) Init(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initCalls++
	return m.initErr
}

func (m *mockSessionHolder) Current() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockSessionHolder) Subscribe() (<-chan domain.SessionState, func()) {
	ch := make(chan domain.SessionState, 1)
	ch <- m.Current()
	return ch, func() {}
}

func (m *mockSessionHolder) SignIn(_ context.Context, email, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signInEmail, m.signInPass = email, password
	if m.signInErr != nil {
		return m.signInErr
	}
	m.state = domain.Present("tok-1", domain.Principal{ID: "user-1", Email: email})
	return nil
}

func (m *mockSessionHolder) SignUp(_ context.Context, email, _ string) (domain.SignUpResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signUpEmail = email
	return m.signUpResult, m.signUpErr
}

func (m *mockSessionHolder) BeginAuthorization(redirectURI string) (*driving.OAuthFlowState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	m.redirectURI = redirectURI
	q := url.Values{"redirect_uri": {redirectURI}, "state": {"state-1"}}
	return &driving.OAuthFlowState{
		AuthURL:      "https://idp.example.com/authorize?" + q.Encode(),
		CodeVerifier: "verifier-1",
		State:        "state-1",
		RedirectURI:  redirectURI,
	}, nil
}

func (m *mockSessionHolder) CompleteAuthorization(_ context.Context, _ *driving.OAuthFlowState, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completedCode = code
	if m.completeErr != nil {
		return m.completeErr
	}
	m.state = domain.Present("tok-2", domain.Principal{ID: "user-1", Email: "ada@example.com"})
	return nil
}

func (m *mockSessionHolder) SignOut(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutCalls++
	m.state = domain.Absent()
	return m.signOutErr
}

func (m *mockSessionHolder) Reload(context.Context) error { return nil }

func (m *mockSessionHolder) Watch(ctx context.Context, _ driven.SessionWatcher) error {
	m.mu.Lock()
	m.watchCalls++
	m.mu.Unlock()
	<-ctx.Done()
	return nil
}

func (m *mockSessionHolder) Teardown() {}

// mockCollectionService records calls and returns canned results.
type mockCollectionService struct {
	collections []domain.Collection
	created     *domain.Collection
	err         error
	createdName string
}

func (m *mockCollectionService) List(context.Context) ([]domain.Collection, error) {
	return m.collections, m.err
}

func (m *mockCollectionService) Create(_ context.Context, name string) (*domain.Collection, error) {
	m.createdName = name
	if m.err != nil {
		return nil, m.err
	}
	if _, err := domain.NormaliseCollectionName(name); err != nil {
		return nil, err
	}
	return m.created, nil
}

type mockDocumentService struct {
	submission   *domain.Submission
	document     *domain.Document
	err          error
	collectionID string
	input        domain.DocumentInput
}

func (m *mockDocumentService) Submit(_ context.Context, collectionID string, input domain.DocumentInput) (*domain.Submission, error) {
	m.collectionID, m.input = collectionID, input
	return m.submission, m.err
}

func (m *mockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return m.document, m.err
}

type mockJobService struct {
	job *domain.Job
	err error
	id  string
}

func (m *mockJobService) Get(_ context.Context, jobID string) (*domain.Job, error) {
	m.id = jobID
	return m.job, m.err
}

type mockHealthService struct {
	status *domain.HealthStatus
	err    error
}

func (m *mockHealthService) Check(context.Context) (*domain.HealthStatus, error) {
	return m.status, m.err
}

// mockWatcher never reports a change.
type mockWatcher struct {
	ch chan struct{}
}

func (w *mockWatcher) Changes() <-chan struct{} { return w.ch }
func (w *mockWatcher) Close() error              { return nil }
