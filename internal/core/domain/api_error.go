package domain

import "errors"

// DefaultErrorMessage is used when a failed response carries no body.
const DefaultErrorMessage = "Request failed"

// ErrorKind classifies an APIError without changing its display message.
type ErrorKind int

const (
	// KindUnknown is a non-success status with no more specific kind.
	KindUnknown ErrorKind = iota
	// KindUnauthorized covers rejected or missing credentials and denied access.
	KindUnauthorized
	// KindNotFound is a missing resource (or one hidden from the caller).
	KindNotFound
	// KindValidation is a rejected request payload.
	KindValidation
	// KindServer is a backend fault.
	KindServer
	// KindTransport is a network failure or malformed response.
	KindTransport
	// KindContract is a success response missing required fields.
	KindContract
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindContract:
		return "contract"
	default:
		return "unknown"
	}
}

// KindForStatus maps a non-success HTTP status onto an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindUnauthorized
	case status == 404:
		return KindNotFound
	case status == 400 || status == 409 || status == 422:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// APIError is the single error value produced by the API access layer.
//
// Message is the human-readable text callers display; for HTTP failures it is
// the raw response body. Kind is carried alongside for programmatic checks and
// never alters Message.
type APIError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewAPIError builds an APIError, substituting DefaultErrorMessage for an empty message.
func NewAPIError(kind ErrorKind, message string) *APIError {
	if message == "" {
		message = DefaultErrorMessage
	}
	return &APIError{Kind: kind, Message: message}
}

// NewContractError reports a success response that is missing required fields.
func NewContractError(message string) *APIError {
	return &APIError{Kind: KindContract, Message: message, Err: ErrContractViolation}
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether the error's kind corresponds to target.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrServer:
		return e.Kind == KindServer
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrContractViolation:
		return e.Kind == KindContract
	}
	return false
}

// KindOf returns the ErrorKind of err, or KindUnknown if err is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, ErrNotSignedIn) || errors.Is(err, ErrSessionExpired) {
		return KindUnauthorized
	}
	return KindUnknown
}

// IdentityError is a failure reported by the identity provider.
// Message is surfaced to the user verbatim.
type IdentityError struct {
	Op      string
	Message string
	Err     error
}

func (e *IdentityError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *IdentityError) Unwrap() error {
	return e.Err
}
