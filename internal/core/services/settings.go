package services

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyAPIBaseURL     = "api.base_url"
	KeyAPIRateLimit   = "api.rate_limit"
	KeyIdentityKind   = "identity.provider"
	KeyIdentityURL    = "identity.url"
	KeyAnonKey        = "identity.anon_key"
	KeyClientID       = "identity.client_id"
	KeyClientSecret   = "identity.client_secret"
	KeyAuthURL        = "identity.auth_url"
	KeyTokenURL       = "identity.token_url"
	KeyRevokeURL      = "identity.revoke_url"
	KeyIdentityScopes = "identity.scopes"
)

// Environment variables that take precedence over the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvAPIBaseURL      = "RAGDESK_API_BASE_URL"
	EnvIdentityURL     = "RAGDESK_IDENTITY_URL"
	EnvIdentityAnonKey = "RAGDESK_IDENTITY_ANON_KEY"
)

// SettingsService resolves effective settings from the config store
// and the environment.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// Environment variables override the stored values.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		API: domain.APISettings{
			BaseURL:   s.resolve(EnvAPIBaseURL, KeyAPIBaseURL, defaults.API.BaseURL),
			RateLimit: s.configStore.GetInt(KeyAPIRateLimit),
		},
		Identity: domain.IdentitySettings{
			Provider:     s.getIdentityKind(defaults.Identity.Provider),
			URL:          s.resolve(EnvIdentityURL, KeyIdentityURL, ""),
			AnonKey:      s.resolve(EnvIdentityAnonKey, KeyAnonKey, ""),
			ClientID:     s.configStore.GetString(KeyClientID),
			ClientSecret: s.configStore.GetString(KeyClientSecret),
			AuthURL:      s.configStore.GetString(KeyAuthURL),
			TokenURL:     s.configStore.GetString(KeyTokenURL),
			RevokeURL:    s.configStore.GetString(KeyRevokeURL),
			Scopes:       s.configStore.GetStringSlice(KeyIdentityScopes),
		},
	}
	settings.API.BaseURL = strings.TrimRight(settings.API.BaseURL, "/")

	return settings, nil
}

// Set validates and stores a single key given as text.
func (s *SettingsService) Set(key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case KeyAPIBaseURL, KeyIdentityURL, KeyAuthURL, KeyTokenURL, KeyRevokeURL:
		if err := validateURL(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return s.configStore.Set(key, strings.TrimRight(value, "/"))

	case KeyAPIRateLimit:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer: %w", key, domain.ErrInvalidInput)
		}
		return s.configStore.Set(key, n)

	case KeyIdentityKind:
		kind := domain.IdentityKind(value)
		if !kind.IsValid() {
			return fmt.Errorf("invalid identity provider %q: %w", value, domain.ErrInvalidInput)
		}
		return s.configStore.Set(key, kind.String())

	case KeyIdentityScopes:
		scopes := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
		return s.configStore.Set(key, scopes)

	case KeyAnonKey, KeyClientID, KeyClientSecret:
		return s.configStore.Set(key, value)

	default:
		return fmt.Errorf("unknown config key %q: %w", key, domain.ErrInvalidInput)
	}
}

// Unset removes a stored key so the environment or default applies again.
func (s *SettingsService) Unset(key string) error {
	if !slices.Contains(s.Keys(), key) {
		return fmt.Errorf("unknown config key %q: %w", key, domain.ErrInvalidInput)
	}
	return s.configStore.Unset(key)
}

// Keys returns the supported configuration keys in display order.
func (s *SettingsService) Keys() []string {
	return []string{
		KeyAPIBaseURL,
		KeyAPIRateLimit,
		KeyIdentityKind,
		KeyIdentityURL,
		KeyAnonKey,
		KeyClientID,
		KeyClientSecret,
		KeyAuthURL,
		KeyTokenURL,
		KeyRevokeURL,
		KeyIdentityScopes,
	}
}

// Validate checks that the identity provider is configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Identity.Provider.IsValid() {
		return fmt.Errorf("invalid identity provider: %s", settings.Identity.Provider)
	}
	if !settings.Identity.IsConfigured() {
		switch settings.Identity.Provider {
		case domain.IdentityOAuth:
			return fmt.Errorf("identity provider %q requires %s and %s to be configured",
				settings.Identity.Provider.Description(), KeyClientID, KeyTokenURL)
		default:
			return fmt.Errorf("identity provider %q requires %s and %s to be configured",
				settings.Identity.Provider.Description(), KeyIdentityURL, KeyAnonKey)
		}
	}

	return nil
}

// ConfigPath returns the configuration file path.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) resolve(env, key, defaultVal string) string {
	if v := strings.TrimSpace(s.getenv(env)); v != "" {
		return v
	}
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return defaultVal
}

func (s *SettingsService) getIdentityKind(defaultVal domain.IdentityKind) domain.IdentityKind {
	val := s.configStore.GetString(KeyIdentityKind)
	if val == "" {
		return defaultVal
	}
	kind := domain.IdentityKind(val)
	if !kind.IsValid() {
		return defaultVal
	}
	return kind
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an http(s) URL: %w", raw, domain.ErrInvalidInput)
	}
	return nil
}
