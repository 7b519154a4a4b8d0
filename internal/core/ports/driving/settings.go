package driving

import "github.com/custodia-labs/ragdesk/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves the effective settings, with environment overrides applied.
	Get() (*domain.AppSettings, error)

	// Set stores a single dot-notation key after validating it.
	Set(key, value string) error

	// Unset removes a stored key so its environment or default value applies.
	Unset(key string) error

	// Keys returns the supported configuration keys.
	Keys() []string

	// Validate checks that the identity provider is configured.
	Validate() error

	// ConfigPath returns the configuration file path.
	ConfigPath() string
}
