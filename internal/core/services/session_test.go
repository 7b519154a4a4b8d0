package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

var alice = domain.Principal{ID: "u-1", Email: "alice@example.com"}

func validSession(token string) *domain.Session {
	return &domain.Session{
		Principal:    alice,
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		TokenType:    "bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
}

func expiredSession(token string) *domain.Session {
	s := validSession(token)
	s.Expiry = time.Now().Add(-time.Minute)
	return s
}

func recv(t *testing.T, ch <-chan domain.SessionState) domain.SessionState {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "subscription closed unexpectedly")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session state")
		return domain.SessionState{}
	}
}

func assertNoState(t *testing.T, ch <-chan domain.SessionState) {
	t.Helper()
	select {
	case s := <-ch:
		t.Fatalf("unexpected session state %v", s)
	case <-time.After(50 * time.Millisecond):
	}
}

func newHolder(t *testing.T, identity *mockIdentity) (*SessionHolder, *memory.SessionStore) {
	t.Helper()
	store := memory.NewSessionStore()
	holder := NewSessionHolder(identity, store)
	t.Cleanup(holder.Teardown)
	return holder, store
}

func TestNewSessionHolder_StartsLoading(t *testing.T) {
	holder, _ := newHolder(t, &mockIdentity{})

	assert.Equal(t, domain.Loading(), holder.Current())
}

func TestSessionHolder_Init(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored session resolves to absent", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{})

		require.NoError(t, holder.Init(ctx))
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("valid stored session resolves to present", func(t *testing.T) {
		holder, store := newHolder(t, &mockIdentity{})
		require.NoError(t, store.Save(ctx, validSession("tok")))

		require.NoError(t, holder.Init(ctx))
		assert.Equal(t, domain.Present("tok", alice), holder.Current())
	})

	t.Run("expired session is refreshed", func(t *testing.T) {
		identity := &mockIdentity{refreshSession: validSession("fresh")}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, expiredSession("stale")))

		require.NoError(t, holder.Init(ctx))

		assert.Equal(t, domain.Present("fresh", alice), holder.Current())
		stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh", stored.AccessToken)
		assert.Equal(t, 1, identity.refreshes())
	})

	t.Run("rejected refresh clears the session", func(t *testing.T) {
		identity := &mockIdentity{refreshErr: &domain.IdentityError{Op: "refresh", Message: "Invalid Refresh Token"}}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, expiredSession("stale")))

		require.NoError(t, holder.Init(ctx))

		assert.Equal(t, domain.Absent(), holder.Current())
		stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("unreachable provider stays loading", func(t *testing.T) {
		identity := &mockIdentity{refreshErr: domain.ErrIdentityUnavailable}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, expiredSession("stale")))

		err := holder.Init(ctx)

		assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)
		assert.Equal(t, domain.Loading(), holder.Current())
		stored, loadErr := store.Load(ctx)
		require.NoError(t, loadErr)
		assert.NotNil(t, stored, "session must survive an unreachable provider")
	})

	t.Run("expired session without refresh token resolves to absent", func(t *testing.T) {
		holder, store := newHolder(t, &mockIdentity{})
		s := expiredSession("stale")
		s.RefreshToken = ""
		require.NoError(t, store.Save(ctx, s))

		require.NoError(t, holder.Init(ctx))
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("store failure is returned and state stays loading", func(t *testing.T) {
		holder := NewSessionHolder(&mockIdentity{}, failingStore{err: errBoom})
		defer holder.Teardown()

		err := holder.Init(ctx)

		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, domain.Loading(), holder.Current())
	})

	t.Run("nil store resolves to absent", func(t *testing.T) {
		holder := NewSessionHolder(&mockIdentity{}, nil)
		defer holder.Teardown()

		require.NoError(t, holder.Init(ctx))
		assert.Equal(t, domain.Absent(), holder.Current())
	})
}

func TestSessionHolder_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("success publishes loading then present", func(t *testing.T) {
		holder, store := newHolder(t, &mockIdentity{signInSession: validSession("tok")})
		require.NoError(t, holder.Init(ctx))
		states, cancel := holder.Subscribe()
		defer cancel()
		assert.Equal(t, domain.Absent(), recv(t, states))

		require.NoError(t, holder.SignIn(ctx, "alice@example.com", "secret"))

		assert.Equal(t, domain.Loading(), recv(t, states))
		assert.Equal(t, domain.Present("tok", alice), recv(t, states))
		assert.Equal(t, 1, store.Saves())

		stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mock", stored.Provider)
		assert.False(t, stored.CreatedAt.IsZero())
	})

	t.Run("failure returns to prior state with verbatim message", func(t *testing.T) {
		identity := &mockIdentity{signInErr: &domain.IdentityError{Op: "sign in", Message: "Invalid login credentials"}}
		holder, _ := newHolder(t, identity)
		require.NoError(t, holder.Init(ctx))
		states, cancel := holder.Subscribe()
		defer cancel()
		recv(t, states)

		err := holder.SignIn(ctx, "alice@example.com", "wrong")

		require.Error(t, err)
		assert.Equal(t, "Invalid login credentials", err.Error())
		assert.Equal(t, domain.Loading(), recv(t, states))
		assert.Equal(t, domain.Absent(), recv(t, states))
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("loading is observable while the provider is consulted", func(t *testing.T) {
		identity := &mockIdentity{signInSession: validSession("tok"), block: make(chan struct{})}
		holder, _ := newHolder(t, identity)
		require.NoError(t, holder.Init(ctx))

		done := make(chan error, 1)
		go func() { done <- holder.SignIn(ctx, "alice@example.com", "secret") }()

		assert.Eventually(t, func() bool {
			return holder.Current() == domain.Loading()
		}, time.Second, 5*time.Millisecond)

		close(identity.block)
		require.NoError(t, <-done)
		assert.Equal(t, domain.Present("tok", alice), holder.Current())
	})

	t.Run("missing credentials are rejected without calling the provider", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{})
		require.NoError(t, holder.Init(ctx))

		err := holder.SignIn(ctx, "", "secret")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("session without access token is a contract violation", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{signInSession: &domain.Session{Principal: alice}})
		require.NoError(t, holder.Init(ctx))

		err := holder.SignIn(ctx, "alice@example.com", "secret")

		assert.ErrorIs(t, err, domain.ErrContractViolation)
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("store failure is returned", func(t *testing.T) {
		holder := NewSessionHolder(&mockIdentity{signInSession: validSession("tok")}, failingStore{err: errBoom})
		defer holder.Teardown()

		err := holder.SignIn(ctx, "alice@example.com", "secret")

		assert.ErrorIs(t, err, errBoom)
		assert.False(t, holder.Current().IsPresent())
	})
}

func TestSessionHolder_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmation required when no session is issued", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{})
		require.NoError(t, holder.Init(ctx))

		result, err := holder.SignUp(ctx, "bob@example.com", "secret")

		require.NoError(t, err)
		assert.True(t, result.ConfirmationRequired)
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("issued session is installed", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{signUpSession: validSession("tok")})
		require.NoError(t, holder.Init(ctx))

		result, err := holder.SignUp(ctx, "alice@example.com", "secret")

		require.NoError(t, err)
		assert.False(t, result.ConfirmationRequired)
		assert.Equal(t, domain.Present("tok", alice), holder.Current())
	})

	t.Run("provider error is surfaced verbatim", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{signUpErr: &domain.IdentityError{Message: "User already registered"}})
		require.NoError(t, holder.Init(ctx))

		_, err := holder.SignUp(ctx, "alice@example.com", "secret")

		require.Error(t, err)
		assert.Equal(t, "User already registered", err.Error())
		assert.Equal(t, domain.Absent(), holder.Current())
	})
}

func TestSessionHolder_SignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("from present", func(t *testing.T) {
		identity := &mockIdentity{}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, validSession("tok")))
		require.NoError(t, holder.Init(ctx))

		require.NoError(t, holder.SignOut(ctx))

		assert.Equal(t, domain.Absent(), holder.Current())
		assert.Equal(t, 1, identity.signOutCalls)
		stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("remote failure still signs out locally", func(t *testing.T) {
		holder, store := newHolder(t, &mockIdentity{signOutErr: errBoom})
		require.NoError(t, store.Save(ctx, validSession("tok")))
		require.NoError(t, holder.Init(ctx))

		err := holder.SignOut(ctx)

		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("from loading", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{})

		require.NoError(t, holder.SignOut(ctx))
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("from absent", func(t *testing.T) {
		identity := &mockIdentity{}
		holder, _ := newHolder(t, identity)
		require.NoError(t, holder.Init(ctx))

		require.NoError(t, holder.SignOut(ctx))
		assert.Equal(t, domain.Absent(), holder.Current())
		assert.Zero(t, identity.signOutCalls)
	})
}

func TestSessionHolder_Token(t *testing.T) {
	ctx := context.Background()

	t.Run("absent is not signed in", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{})
		require.NoError(t, holder.Init(ctx))

		_, err := holder.Token(ctx)

		assert.ErrorIs(t, err, domain.ErrNotSignedIn)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	})

	t.Run("valid token is lent as is", func(t *testing.T) {
		holder, store := newHolder(t, &mockIdentity{})
		require.NoError(t, store.Save(ctx, validSession("tok")))
		require.NoError(t, holder.Init(ctx))

		token, err := holder.Token(ctx)

		require.NoError(t, err)
		assert.Equal(t, "tok", token)
	})

	t.Run("expired token is refreshed once for concurrent borrowers", func(t *testing.T) {
		now := time.Now()
		identity := &mockIdentity{}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, validSession("tok")))
		require.NoError(t, holder.Init(ctx))

		fresh := validSession("fresh")
		fresh.Expiry = now.Add(2 * time.Hour)
		identity.refreshSession = fresh
		holder.now = func() time.Time { return now.Add(90 * time.Minute) }

		var wg sync.WaitGroup
		tokens := make([]string, 10)
		for i := range tokens {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tok, err := holder.Token(ctx)
				assert.NoError(t, err)
				tokens[i] = tok
			}(i)
		}
		wg.Wait()

		for _, tok := range tokens {
			assert.Equal(t, "fresh", tok)
		}
		assert.Equal(t, 1, identity.refreshes())
		assert.Equal(t, domain.Present("fresh", alice), holder.Current())
	})

	t.Run("rejected refresh signs out", func(t *testing.T) {
		identity := &mockIdentity{}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, validSession("tok")))
		require.NoError(t, holder.Init(ctx))

		identity.refreshErr = &domain.IdentityError{Message: "Invalid Refresh Token"}
		holder.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := holder.Token(ctx)

		assert.ErrorIs(t, err, domain.ErrSessionExpired)
		assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
		assert.Equal(t, domain.Absent(), holder.Current())
	})

	t.Run("unreachable provider keeps the session", func(t *testing.T) {
		identity := &mockIdentity{}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, validSession("tok")))
		require.NoError(t, holder.Init(ctx))

		identity.refreshErr = domain.ErrIdentityUnavailable
		holder.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := holder.Token(ctx)

		assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)
		assert.Equal(t, domain.Present("tok", alice), holder.Current())
	})

	t.Run("sign-out during refresh discards the refreshed token", func(t *testing.T) {
		identity := &mockIdentity{
			refreshSession: validSession("new"),
			refreshStarted: make(chan struct{}),
			refreshGate:    make(chan struct{}),
		}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, validSession("tok")))
		require.NoError(t, holder.Init(ctx))
		later := time.Now().Add(2 * time.Hour)
		holder.now = func() time.Time { return later }

		errc := make(chan error, 1)
		go func() {
			_, err := holder.Token(ctx)
			errc <- err
		}()
		<-identity.refreshStarted

		require.NoError(t, holder.SignOut(ctx))
		require.Equal(t, domain.Absent(), holder.Current())
		close(identity.refreshGate)

		assert.ErrorIs(t, <-errc, domain.ErrNotSignedIn)
		assert.Equal(t, domain.Absent(), holder.Current())
		assert.Equal(t, 1, store.Saves(), "refreshed session must not be persisted")
		stored, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, stored)

		_, err = holder.Token(ctx)
		assert.ErrorIs(t, err, domain.ErrNotSignedIn)
	})

	t.Run("rejected refresh does not clear a newer session", func(t *testing.T) {
		identity := &mockIdentity{
			refreshErr:     &domain.IdentityError{Message: "Invalid Refresh Token"},
			refreshStarted: make(chan struct{}),
			refreshGate:    make(chan struct{}),
		}
		holder, store := newHolder(t, identity)
		require.NoError(t, store.Save(ctx, validSession("tok")))
		require.NoError(t, holder.Init(ctx))
		later := time.Now().Add(90 * time.Minute)
		holder.now = func() time.Time { return later }

		errc := make(chan error, 1)
		go func() {
			_, err := holder.Token(ctx)
			errc <- err
		}()
		<-identity.refreshStarted

		identity.mu.Lock()
		identity.signInSession = validSession("second")
		identity.mu.Unlock()
		require.NoError(t, holder.SignIn(ctx, "alice@example.com", "pw"))
		close(identity.refreshGate)

		assert.ErrorIs(t, <-errc, domain.ErrSessionExpired)
		assert.Equal(t, domain.Present("second", alice), holder.Current())
	})
}

func TestSessionHolder_Subscribe(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers every transition in order without drops", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{signInSession: validSession("tok")})
		require.NoError(t, holder.Init(ctx))
		states, cancel := holder.Subscribe()
		defer cancel()

		// Transitions happen while nobody reads the channel.
		const rounds = 25
		for i := 0; i < rounds; i++ {
			require.NoError(t, holder.SignIn(ctx, "alice@example.com", "secret"))
			require.NoError(t, holder.SignOut(ctx))
		}

		assert.Equal(t, domain.Absent(), recv(t, states))
		for i := 0; i < rounds; i++ {
			assert.Equal(t, domain.Loading(), recv(t, states))
			assert.Equal(t, domain.Present("tok", alice), recv(t, states))
			assert.Equal(t, domain.Absent(), recv(t, states))
		}
		assertNoState(t, states)
	})

	t.Run("same state is not republished", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{})
		require.NoError(t, holder.Init(ctx))
		states, cancel := holder.Subscribe()
		defer cancel()
		recv(t, states)

		require.NoError(t, holder.Reload(ctx))
		require.NoError(t, holder.SignOut(ctx))

		assertNoState(t, states)
	})

	t.Run("every subscriber sees every transition", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{signInSession: validSession("tok")})
		require.NoError(t, holder.Init(ctx))
		a, cancelA := holder.Subscribe()
		defer cancelA()
		b, cancelB := holder.Subscribe()
		defer cancelB()

		require.NoError(t, holder.SignIn(ctx, "alice@example.com", "secret"))

		for _, ch := range []<-chan domain.SessionState{a, b} {
			assert.Equal(t, domain.Absent(), recv(t, ch))
			assert.Equal(t, domain.Loading(), recv(t, ch))
			assert.Equal(t, domain.Present("tok", alice), recv(t, ch))
		}
	})

	t.Run("cancel closes the channel", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{})
		states, cancel := holder.Subscribe()

		cancel()
		cancel()

		assert.Eventually(t, func() bool {
			select {
			case _, ok := <-states:
				return !ok
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("teardown closes all subscriptions", func(t *testing.T) {
		holder := NewSessionHolder(&mockIdentity{}, memory.NewSessionStore())
		states, cancel := holder.Subscribe()
		defer cancel()

		holder.Teardown()

		assert.Eventually(t, func() bool {
			select {
			case _, ok := <-states:
				return !ok
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)

		late, lateCancel := holder.Subscribe()
		defer lateCancel()
		_, ok := <-late
		assert.False(t, ok)
	})
}

func TestSessionHolder_Reload(t *testing.T) {
	ctx := context.Background()
	holder, store := newHolder(t, &mockIdentity{})
	require.NoError(t, holder.Init(ctx))

	// Another process signs in.
	require.NoError(t, store.Save(ctx, validSession("other")))
	require.NoError(t, holder.Reload(ctx))
	assert.Equal(t, domain.Present("other", alice), holder.Current())

	// Another process signs out.
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, holder.Reload(ctx))
	assert.Equal(t, domain.Absent(), holder.Current())
}

type fakeWatcher struct {
	ch chan struct{}
}

func (f *fakeWatcher) Changes() <-chan struct{} { return f.ch }
func (f *fakeWatcher) Close() error             { close(f.ch); return nil }

func TestSessionHolder_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	holder, store := newHolder(t, &mockIdentity{})
	require.NoError(t, holder.Init(ctx))
	watcher := &fakeWatcher{ch: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- holder.Watch(ctx, watcher) }()

	require.NoError(t, store.Save(ctx, validSession("other")))
	watcher.ch <- struct{}{}

	assert.Eventually(t, func() bool {
		return holder.Current() == domain.Present("other", alice)
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestSessionHolder_Watch_StopsWhenWatcherCloses(t *testing.T) {
	holder, _ := newHolder(t, &mockIdentity{})
	watcher := &fakeWatcher{ch: make(chan struct{})}
	require.NoError(t, watcher.Close())

	assert.NoError(t, holder.Watch(context.Background(), watcher))
}

func TestSessionHolder_BrowserLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("not supported without a code exchanger", func(t *testing.T) {
		holder, _ := newHolder(t, &mockIdentity{})

		_, err := holder.BeginAuthorization("http://localhost:18080/callback")
		assert.ErrorIs(t, err, domain.ErrNotSupported)

		err = holder.CompleteAuthorization(ctx, &driving.OAuthFlowState{CodeVerifier: "v"}, "code")
		assert.ErrorIs(t, err, domain.ErrNotSupported)
	})

	t.Run("code exchange installs the session", func(t *testing.T) {
		exchanger := &mockExchanger{mockIdentity: &mockIdentity{}, exchangeSession: validSession("tok")}
		holder := NewSessionHolder(exchanger, memory.NewSessionStore())
		defer holder.Teardown()
		require.NoError(t, holder.Init(ctx))

		flow, err := holder.BeginAuthorization("http://localhost:18080/callback")
		require.NoError(t, err)
		assert.Contains(t, flow.AuthURL, "state="+flow.State)
		assert.Contains(t, flow.AuthURL, "code_challenge="+oauth2.S256ChallengeFromVerifier(flow.CodeVerifier))
		assert.Equal(t, "http://localhost:18080/callback", flow.RedirectURI)

		require.NoError(t, holder.CompleteAuthorization(ctx, flow, "the-code"))

		assert.Equal(t, flow.CodeVerifier, exchanger.gotVerifier)
		assert.Equal(t, flow.RedirectURI, exchanger.gotRedirect)
		assert.Equal(t, domain.Present("tok", alice), holder.Current())
	})

	t.Run("failed exchange restores prior state", func(t *testing.T) {
		exchanger := &mockExchanger{mockIdentity: &mockIdentity{}, exchangeErr: &domain.IdentityError{Message: "invalid_grant"}}
		holder := NewSessionHolder(exchanger, memory.NewSessionStore())
		defer holder.Teardown()
		require.NoError(t, holder.Init(ctx))

		flow, err := holder.BeginAuthorization("http://localhost:18080/callback")
		require.NoError(t, err)

		err = holder.CompleteAuthorization(ctx, flow, "the-code")
		require.Error(t, err)
		assert.Equal(t, "invalid_grant", err.Error())
		assert.Equal(t, domain.Absent(), holder.Current())
	})
}
