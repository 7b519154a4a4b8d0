package domain

const unknownDescription = "Unknown"

// DefaultAPIBaseURL is the backend address used when nothing else is configured.
const DefaultAPIBaseURL = "http://localhost:8080"

// IdentityKind selects the identity provider implementation.
type IdentityKind string

// Available identity providers.
const (
	// IdentityGoTrue is a Supabase GoTrue auth server.
	IdentityGoTrue IdentityKind = "gotrue"

	// IdentityOAuth is any OAuth2 authorization server.
	IdentityOAuth IdentityKind = "oauth"
)

// IsValid returns true if the identity kind is recognised.
func (k IdentityKind) IsValid() bool {
	switch k {
	case IdentityGoTrue, IdentityOAuth:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k IdentityKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the provider kind.
func (k IdentityKind) Description() string {
	switch k {
	case IdentityGoTrue:
		return "Supabase GoTrue (email + password)"
	case IdentityOAuth:
		return "OAuth2 (password grant or browser login)"
	default:
		return unknownDescription
	}
}

// APISettings holds backend API configuration.
type APISettings struct {
	// BaseURL is the backend address. Resolved once at client construction.
	BaseURL string

	// RateLimit caps client-side requests per second. Zero disables it.
	RateLimit int
}

// IdentitySettings holds identity provider configuration.
type IdentitySettings struct {
	// Provider selects the implementation.
	Provider IdentityKind

	// URL is the GoTrue project URL (e.g. https://xyz.supabase.co).
	URL string

	// AnonKey is the GoTrue public API key.
	AnonKey string

	// ClientID and ClientSecret identify the OAuth2 client.
	ClientID     string
	ClientSecret string

	// AuthURL, TokenURL and RevokeURL are the OAuth2 endpoints.
	AuthURL   string
	TokenURL  string
	RevokeURL string

	// Scopes requested during OAuth2 sign-in.
	Scopes []string
}

// IsConfigured returns true if enough is set to talk to the provider.
func (i IdentitySettings) IsConfigured() bool {
	switch i.Provider {
	case IdentityGoTrue:
		return i.URL != "" && i.AnonKey != ""
	case IdentityOAuth:
		return i.ClientID != "" && i.TokenURL != ""
	default:
		return false
	}
}

// SupportsBrowserLogin returns true if an authorization endpoint is configured.
func (i IdentitySettings) SupportsBrowserLogin() bool {
	return i.Provider == IdentityOAuth && i.AuthURL != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	// API holds backend settings.
	API APISettings

	// Identity holds identity provider settings.
	Identity IdentitySettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The identity provider is left unconfigured; users supply its URL and key.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		API: APISettings{
			BaseURL: DefaultAPIBaseURL,
		},
		Identity: IdentitySettings{
			Provider: IdentityGoTrue,
		},
	}
}
