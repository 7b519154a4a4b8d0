package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/services"
)

func TestConfigShow_Defaults(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "Config file: :memory:")
	assert.Contains(t, out, domain.DefaultAPIBaseURL)
	assert.Contains(t, out, "identity.url")
	assert.Contains(t, out, "(not set)")
	assert.Contains(t, out, "Warning:", "an unconfigured identity provider is reported")
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	ts := setupTestServices(t)
	require.NoError(t, ts.config.Set(services.KeyIdentityURL, "https://xyz.supabase.co"))
	require.NoError(t, ts.config.Set(services.KeyAnonKey, "eyJhbGciOiJIUzI1NiJ9.secret"))

	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "https://xyz.supabase.co")
	assert.Contains(t, out, "eyJh****")
	assert.NotContains(t, out, "J9.secret")
	assert.NotContains(t, out, "Warning:")
}

func TestConfigShow_EnvOverride(t *testing.T) {
	setupTestServices(t)
	t.Setenv(services.EnvAPIBaseURL, "https://api.example.com/")

	out, err := execute(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "https://api.example.com")
}

func TestConfigSet(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "", "config", "set", "api.base_url", "https://api.example.com/")
	require.NoError(t, err)
	assert.Contains(t, out, "Set api.base_url")
	assert.Equal(t, "https://api.example.com", ts.config.GetString(services.KeyAPIBaseURL))
}

func TestConfigSet_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "api.nope", "x"},
		{"bad url", "api.base_url", "ftp://example.com"},
		{"bad provider", "identity.provider", "ldap"},
		{"negative rate", "api.rate_limit", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestServices(t)

			_, err := execute(t, "", "config", "set", tt.key, tt.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestConfigUnset(t *testing.T) {
	ts := setupTestServices(t)
	require.NoError(t, ts.config.Set(services.KeyAPIBaseURL, "https://api.example.com"))

	out, err := execute(t, "", "config", "unset", "api.base_url")
	require.NoError(t, err)
	assert.Contains(t, out, "Unset api.base_url")

	_, ok := ts.config.Get(services.KeyAPIBaseURL)
	assert.False(t, ok)
}

func TestConfigUnset_UnknownKey(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "config", "unset", "api.nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConfigKeys(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "", "config", "keys")
	require.NoError(t, err)
	for _, key := range ts.settings.Keys() {
		assert.Contains(t, out, key)
	}
}

func TestConfig_NotConfigured(t *testing.T) {
	setupTestServices(t)
	settingsService = nil

	_, err := execute(t, "", "config", "show")
	require.Error(t, err)
	assert.Equal(t, "settings service not configured", err.Error())
}
