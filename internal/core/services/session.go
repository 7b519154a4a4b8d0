package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure SessionHolder implements the interfaces.
var (
	_ driving.SessionHolder = (*SessionHolder)(nil)
	_ driven.TokenProvider  = (*SessionHolder)(nil)
)

// SessionHolder owns the current session and publishes its state.
//
// State and store mutations happen under mu, so Current never observes
// a state that disagrees with what was persisted. Transitions are pushed
// to subscribers while mu is held, which fixes their order.
type SessionHolder struct {
	identity driven.IdentityProvider
	store    driven.SessionStore
	now      func() time.Time

	mu      sync.RWMutex
	state   domain.SessionState
	session *domain.Session

	// refreshMu serialises token refreshes so concurrent borrowers
	// trigger at most one refresh per expired session.
	refreshMu sync.Mutex

	subMu  sync.Mutex
	subs   map[int]*subscription
	nextID int
	closed bool
}

// NewSessionHolder creates a session holder in the Loading state.
// Call Init to resolve the persisted session.
func NewSessionHolder(identity driven.IdentityProvider, store driven.SessionStore) *SessionHolder {
	return &SessionHolder{
		identity: identity,
		store:    store,
		now:      time.Now,
		state:    domain.Loading(),
		subs:     make(map[int]*subscription),
	}
}

// Init loads the persisted session and resolves the state.
//
// If the stored session has expired it is refreshed. A refresh the provider
// rejects clears the store and resolves to Absent. If the provider cannot be
// reached the state stays Loading and the error is returned.
func (h *SessionHolder) Init(ctx context.Context) error {
	logger.Section("Session")

	if h.store == nil {
		h.transition(nil)
		return nil
	}

	stored, err := h.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if stored == nil {
		logger.Debug("no stored session")
		h.transition(nil)
		return nil
	}

	if !stored.Expired(h.now()) {
		logger.Debug("restored session for %s (token %s)", stored.Principal.Email, logger.RedactToken(stored.AccessToken))
		h.transition(stored)
		return nil
	}

	logger.Debug("stored session expired at %s", stored.Expiry.Format(time.RFC3339))

	// Hold the stored session while still Loading so refresh can replace it.
	h.mu.Lock()
	h.session = stored
	h.mu.Unlock()

	_, err = h.refresh(ctx, stored)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrIdentityUnavailable):
		return err
	default:
		// The session is unusable; refresh already resolved to Absent.
		logger.Warn("discarding stored session: %v", err)
		return nil
	}
}

// Current returns the current state snapshot.
func (h *SessionHolder) Current() domain.SessionState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Subscribe returns a channel that first receives the state at subscription
// time and then every later transition, in order and without drops.
// The returned function cancels the subscription and closes the channel.
func (h *SessionHolder) Subscribe() (<-chan domain.SessionState, func()) {
	// Holding the read lock blocks transitions, so the initial value and
	// the first pushed transition cannot be reordered or missed.
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.subMu.Lock()
	defer h.subMu.Unlock()

	if h.closed {
		ch := make(chan domain.SessionState)
		close(ch)
		return ch, func() {}
	}

	sub := newSubscription(h.state)

	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	go sub.run()

	return sub.out, func() {
		h.subMu.Lock()
		delete(h.subs, id)
		h.subMu.Unlock()
		sub.stop()
	}
}

// SignIn authenticates with email and password.
// The state is Loading while the provider is consulted and returns to the
// prior state if sign-in fails.
func (h *SessionHolder) SignIn(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}
	if h.identity == nil {
		return fmt.Errorf("sign in: %w", domain.ErrNotSupported)
	}

	prior := h.beginAuthenticating()
	session, err := h.identity.SignIn(ctx, email, password)
	if err != nil {
		h.restore(prior)
		return err
	}
	if err := h.install(ctx, session); err != nil {
		h.restore(prior)
		return err
	}
	logger.Info("signed in as %s", session.Principal.Email)
	return nil
}

// SignUp registers a new user. If the provider returns a session it is
// installed; otherwise the result asks the user to confirm by email.
func (h *SessionHolder) SignUp(ctx context.Context, email, password string) (domain.SignUpResult, error) {
	if email == "" || password == "" {
		return domain.SignUpResult{}, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}
	if h.identity == nil {
		return domain.SignUpResult{}, fmt.Errorf("sign up: %w", domain.ErrNotSupported)
	}

	prior := h.beginAuthenticating()
	session, err := h.identity.SignUp(ctx, email, password)
	if err != nil {
		h.restore(prior)
		return domain.SignUpResult{}, err
	}
	if session == nil {
		h.restore(prior)
		return domain.SignUpResult{ConfirmationRequired: true}, nil
	}
	if err := h.install(ctx, session); err != nil {
		h.restore(prior)
		return domain.SignUpResult{}, err
	}
	return domain.SignUpResult{}, nil
}

// BeginAuthorization prepares a browser login with PKCE.
func (h *SessionHolder) BeginAuthorization(redirectURI string) (*driving.OAuthFlowState, error) {
	exchanger, ok := h.identity.(driven.CodeExchanger)
	if !ok {
		return nil, fmt.Errorf("browser login: %w", domain.ErrNotSupported)
	}

	params, err := newPKCEParams()
	if err != nil {
		return nil, err
	}

	return &driving.OAuthFlowState{
		AuthURL:      exchanger.AuthorizationURL(params.state, params.challenge, redirectURI),
		CodeVerifier: params.verifier,
		State:        params.state,
		RedirectURI:  redirectURI,
	}, nil
}

// CompleteAuthorization exchanges the callback code for a session.
func (h *SessionHolder) CompleteAuthorization(ctx context.Context, flow *driving.OAuthFlowState, code string) error {
	exchanger, ok := h.identity.(driven.CodeExchanger)
	if !ok {
		return fmt.Errorf("browser login: %w", domain.ErrNotSupported)
	}
	if flow == nil || code == "" {
		return fmt.Errorf("authorization code is required: %w", domain.ErrInvalidInput)
	}

	prior := h.beginAuthenticating()
	session, err := exchanger.ExchangeCode(ctx, code, flow.CodeVerifier, flow.RedirectURI)
	if err != nil {
		h.restore(prior)
		return err
	}
	if err := h.install(ctx, session); err != nil {
		h.restore(prior)
		return err
	}
	logger.Info("signed in as %s via browser", session.Principal.Email)
	return nil
}

// SignOut invalidates the session with the provider and removes it locally.
// The state is Absent afterwards even if the provider could not be reached;
// that failure is still returned.
func (h *SessionHolder) SignOut(ctx context.Context) error {
	h.mu.RLock()
	session := h.session
	h.mu.RUnlock()

	var remoteErr error
	if session != nil && h.identity != nil {
		if err := h.identity.SignOut(ctx, session); err != nil {
			logger.Warn("remote sign-out failed: %v", err)
			remoteErr = fmt.Errorf("sign out: %w", err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var storeErr error
	if h.store != nil {
		if err := h.store.Delete(ctx); err != nil {
			storeErr = fmt.Errorf("delete session: %w", err)
		}
	}
	h.session = nil
	h.setStateLocked(domain.Absent())

	return errors.Join(remoteErr, storeErr)
}

// Token returns a valid access token for one backend call.
// An expired token is refreshed first. A refresh the provider rejects
// signs the user out and returns domain.ErrSessionExpired.
func (h *SessionHolder) Token(ctx context.Context) (string, error) {
	h.mu.RLock()
	session := h.session
	h.mu.RUnlock()

	if session == nil {
		return "", domain.ErrNotSignedIn
	}
	if !session.Expired(h.now()) {
		return session.AccessToken, nil
	}

	refreshed, err := h.refresh(ctx, session)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Reload re-reads the persisted session, publishing only if it changed.
func (h *SessionHolder) Reload(ctx context.Context) error {
	if h.store == nil {
		return nil
	}

	stored, err := h.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload session: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if sameSession(h.session, stored) {
		return nil
	}
	logger.Debug("session changed on disk")
	h.session = stored
	h.setStateLocked(domain.StateOf(stored))
	return nil
}

// Watch reloads the session every time watcher reports a change.
// It returns when ctx is done or the watcher stops.
func (h *SessionHolder) Watch(ctx context.Context, watcher driven.SessionWatcher) error {
	if watcher == nil {
		<-ctx.Done()
		return nil
	}

	changes := watcher.Changes()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := h.Reload(ctx); err != nil {
				logger.Warn("reload after change: %v", err)
			}
		}
	}
}

// Teardown closes every subscription. Later subscriptions are closed immediately.
func (h *SessionHolder) Teardown() {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	h.closed = true
	for id, sub := range h.subs {
		sub.stop()
		delete(h.subs, id)
	}
}

// refresh exchanges the session's refresh token, installing the result.
// Rejected refreshes clear the session; an unreachable provider leaves it alone.
func (h *SessionHolder) refresh(ctx context.Context, expired *domain.Session) (*domain.Session, error) {
	h.refreshMu.Lock()
	defer h.refreshMu.Unlock()

	// Another borrower may have refreshed while we waited.
	h.mu.RLock()
	current := h.session
	h.mu.RUnlock()
	if current == nil {
		return nil, domain.ErrNotSignedIn
	}
	if current != expired {
		if !current.Expired(h.now()) {
			return current, nil
		}
		expired = current
	}

	if !expired.CanRefresh() || h.identity == nil {
		h.clearIf(ctx, expired)
		return nil, domain.ErrSessionExpired
	}

	logger.Debug("refreshing session for %s", expired.Principal.Email)
	refreshed, err := h.identity.Refresh(ctx, expired.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityUnavailable) {
			return nil, err
		}
		h.clearIf(ctx, expired)
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}

	if refreshed.CreatedAt.IsZero() {
		refreshed.CreatedAt = expired.CreatedAt
	}
	if refreshed.Principal.ID == "" {
		refreshed.Principal = expired.Principal
	}
	return h.replace(ctx, expired, refreshed)
}

// install persists a new session and publishes Present.
func (h *SessionHolder) install(ctx context.Context, session *domain.Session) error {
	if err := h.stamp(session); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.installLocked(ctx, session)
}

// replace installs next only if prev is still the held session. A sign-out,
// sign-in or reload that happened during the refresh wins; the refreshed
// token is discarded.
func (h *SessionHolder) replace(ctx context.Context, prev, next *domain.Session) (*domain.Session, error) {
	if err := h.stamp(next); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session != prev {
		logger.Debug("session changed during refresh; dropping refreshed token")
		if h.session == nil {
			return nil, domain.ErrNotSignedIn
		}
		if h.session.Expired(h.now()) {
			return nil, domain.ErrSessionExpired
		}
		return h.session, nil
	}
	if err := h.installLocked(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (h *SessionHolder) stamp(session *domain.Session) error {
	if session == nil || session.AccessToken == "" {
		return fmt.Errorf("identity provider returned no access token: %w", domain.ErrContractViolation)
	}
	now := h.now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Provider == "" && h.identity != nil {
		session.Provider = h.identity.Name()
	}
	return nil
}

// installLocked saves and publishes session (caller must hold mu).
func (h *SessionHolder) installLocked(ctx context.Context, session *domain.Session) error {
	if h.store != nil {
		if err := h.store.Save(ctx, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	h.session = session
	h.setStateLocked(domain.StateOf(session))
	return nil
}

// clearIf removes rejected when it is still the held session.
func (h *SessionHolder) clearIf(ctx context.Context, rejected *domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session != rejected {
		return
	}
	if h.store != nil {
		if err := h.store.Delete(ctx); err != nil {
			logger.Warn("delete session: %v", err)
		}
	}
	h.session = nil
	h.setStateLocked(domain.Absent())
}

// transition sets the in-memory session without touching the store.
func (h *SessionHolder) transition(session *domain.Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session = session
	h.setStateLocked(domain.StateOf(session))
}

// beginAuthenticating publishes Loading and returns the prior state.
func (h *SessionHolder) beginAuthenticating() domain.SessionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	prior := h.state
	h.setStateLocked(domain.Loading())
	return prior
}

// restore publishes prior again unless the state moved on meanwhile.
func (h *SessionHolder) restore(prior domain.SessionState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.Status == domain.StatusLoading {
		h.setStateLocked(prior)
	}
}

// setStateLocked records and publishes a transition. Caller holds mu.
func (h *SessionHolder) setStateLocked(next domain.SessionState) {
	if next == h.state {
		return
	}
	logger.Debug("session state %s -> %s", h.state.Status, next.Status)
	h.state = next

	h.subMu.Lock()
	defer h.subMu.Unlock()
	for _, sub := range h.subs {
		sub.push(next)
	}
}

func sameSession(a, b *domain.Session) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.AccessToken == b.AccessToken && a.Principal == b.Principal
}

// subscription delivers states to one subscriber through an unbounded queue,
// so a slow reader never blocks the holder and never loses a transition.
type subscription struct {
	mu     sync.Mutex
	queue  []domain.SessionState
	signal chan struct{}
	out    chan domain.SessionState
	done   chan struct{}
	once   sync.Once
}

func newSubscription(initial domain.SessionState) *subscription {
	return &subscription{
		queue:  []domain.SessionState{initial},
		signal: make(chan struct{}, 1),
		out:    make(chan domain.SessionState),
		done:   make(chan struct{}),
	}
}

func (s *subscription) push(state domain.SessionState) {
	s.mu.Lock()
	s.queue = append(s.queue, state)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.signal:
				continue
			case <-s.done:
				return
			}
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- next:
		case <-s.done:
			return
		}
	}
}

func (s *subscription) stop() {
	s.once.Do(func() {
		close(s.done)
	})
}
