package domain

import "time"

// ExpiryLeeway is how early a session is treated as expired, so a token
// is never handed out moments before the backend would reject it.
const ExpiryLeeway = 30 * time.Second

// Principal identifies the signed-in user.
type Principal struct {
	// ID is the opaque user identifier issued by the identity provider.
	ID string `json:"id"`
	// Email is the user's email address.
	Email string `json:"email"`
}

// Session is an authenticated session issued by the identity provider.
// It is owned by the session holder; other components only borrow AccessToken.
type Session struct {
	// Provider names the identity provider that issued the session.
	Provider string `json:"provider"`
	// Principal is the signed-in user.
	Principal Principal `json:"principal"`
	// AccessToken is the bearer credential for API calls.
	AccessToken string `json:"access_token"`
	// RefreshToken obtains a new access token. Optional.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "bearer".
	TokenType string `json:"token_type"`
	// Expiry is when AccessToken stops being valid. Zero means unknown.
	Expiry time.Time `json:"expiry,omitempty"`
	// CreatedAt is when the session was established.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the tokens were last replaced.
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired reports whether the access token is expired, or about to be, at now.
func (s *Session) Expired(now time.Time) bool {
	if s.Expiry.IsZero() {
		return false
	}
	return !now.Before(s.Expiry.Add(-ExpiryLeeway))
}

// CanRefresh reports whether the session carries a refresh token.
func (s *Session) CanRefresh() bool {
	return s.RefreshToken != ""
}

// SessionStatus is the resolution state of the current session.
type SessionStatus int

const (
	// StatusLoading means the identity state is not yet resolved.
	StatusLoading SessionStatus = iota
	// StatusAbsent means there is no authenticated principal.
	StatusAbsent
	// StatusPresent means a principal is signed in.
	StatusPresent
)

// String returns the string representation of the status.
func (s SessionStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAbsent:
		return "absent"
	case StatusPresent:
		return "present"
	default:
		return "unknown"
	}
}

// SessionState is an immutable snapshot of the session holder.
// Token and Principal are only set when Status is StatusPresent.
type SessionState struct {
	Status    SessionStatus
	Token     string
	Principal Principal
}

// Loading returns the unresolved state.
func Loading() SessionState {
	return SessionState{Status: StatusLoading}
}

// Absent returns the signed-out state.
func Absent() SessionState {
	return SessionState{Status: StatusAbsent}
}

// Present returns a signed-in state.
func Present(token string, principal Principal) SessionState {
	return SessionState{Status: StatusPresent, Token: token, Principal: principal}
}

// IsPresent reports whether a principal is signed in.
func (s SessionState) IsPresent() bool {
	return s.Status == StatusPresent
}

// StateOf returns the state corresponding to a session, or Absent for nil.
func StateOf(session *Session) SessionState {
	if session == nil || session.AccessToken == "" {
		return Absent()
	}
	return Present(session.AccessToken, session.Principal)
}

// SignUpResult is the outcome of a successful sign-up.
type SignUpResult struct {
	// ConfirmationRequired is true when the user must confirm by email
	// before a session exists.
	ConfirmationRequired bool
}
