package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/services"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
	Long: `Show and change ragdesk settings. Settings live in a TOML file; the
environment variables RAGDESK_API_BASE_URL, RAGDESK_IDENTITY_URL and
RAGDESK_IDENTITY_ANON_KEY take precedence over it.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Example: `  ragdesk config set api.base_url https://ragdesk.example.com
  ragdesk config set identity.provider gotrue
  ragdesk config set identity.scopes "openid,email"`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a setting so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported setting keys",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Printf("Config file: %s\n\n", settingsService.ConfigPath())
	values := settingValues(settings)
	for _, key := range settingsService.Keys() {
		v := values[key]
		if v == "" {
			v = "(not set)"
		}
		cmd.Printf("  %-24s %s\n", key, v)
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("\nWarning: %v\n", err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	success(cmd, fmt.Sprintf("Set %s", key))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Unset(args[0]); err != nil {
		return err
	}
	success(cmd, "Unset "+args[0])
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

// settingValues renders settings by key, masking secrets.
func settingValues(s *domain.AppSettings) map[string]string {
	rate := ""
	if s.API.RateLimit > 0 {
		rate = strconv.Itoa(s.API.RateLimit)
	}
	return map[string]string{
		services.KeyAPIBaseURL:     s.API.BaseURL,
		services.KeyAPIRateLimit:   rate,
		services.KeyIdentityKind:   s.Identity.Provider.String(),
		services.KeyIdentityURL:    s.Identity.URL,
		services.KeyAnonKey:        maskSecret(s.Identity.AnonKey),
		services.KeyClientID:       s.Identity.ClientID,
		services.KeyClientSecret:   maskSecret(s.Identity.ClientSecret),
		services.KeyAuthURL:        s.Identity.AuthURL,
		services.KeyTokenURL:       s.Identity.TokenURL,
		services.KeyRevokeURL:      s.Identity.RevokeURL,
		services.KeyIdentityScopes: strings.Join(s.Identity.Scopes, ","),
	}
}

func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	return logger.RedactToken(v)
}
