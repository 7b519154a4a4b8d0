package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotSupported indicates the configured collaborator cannot perform
	// the requested operation (e.g. sign-up against a plain OAuth2 server).
	ErrNotSupported = errors.New("not supported")

	// Session Errors.

	// ErrNotSignedIn indicates an authenticated call was attempted without a session.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrSessionExpired indicates the session expired and could not be refreshed.
	ErrSessionExpired = errors.New("session expired")

	// ErrIdentityUnavailable indicates the identity provider could not be reached.
	// The session state is left unresolved rather than guessed.
	ErrIdentityUnavailable = errors.New("identity provider unavailable")

	// API Errors. These are the targets APIError.Is maps its kind onto.

	// ErrUnauthorized indicates the backend rejected the caller's credentials or access.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates the backend rejected the request payload.
	ErrValidation = errors.New("validation failed")

	// ErrServer indicates a backend fault.
	ErrServer = errors.New("server error")

	// ErrTransport indicates the request never produced a usable response.
	ErrTransport = errors.New("transport error")

	// ErrContractViolation indicates a success response missing expected fields.
	ErrContractViolation = errors.New("contract violation")
)
