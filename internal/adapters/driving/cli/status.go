package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend health and session state",
	Long: `Probe the backend health endpoint (no sign-in needed) and report the
configured identity provider and the current session.`,
	Args:        cobra.NoArgs,
	Annotations: withSession(),
	RunE:        runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			cmd.Printf("API:      %s\n", settings.API.BaseURL)
			cmd.Printf("Identity: %s\n", settings.Identity.Provider.Description())
		}
	}

	switch {
	case healthService == nil:
		cmd.Println("Backend:  health check not configured")
	default:
		health, err := healthService.Check(commandContext(cmd))
		switch {
		case err != nil:
			cmd.Printf("Backend:  unreachable (%v)\n", err)
		case health.Status == "":
			cmd.Println("Backend:  reachable")
		default:
			cmd.Printf("Backend:  %s\n", health.Status)
		}
	}

	state := sessionHolder.Current()
	switch state.Status {
	case domain.StatusPresent:
		cmd.Printf("Session:  signed in as %s\n", displayName(state.Principal))
	case domain.StatusAbsent:
		cmd.Println("Session:  not signed in")
	default:
		if sessionInitErr != nil {
			cmd.Printf("Session:  unresolved (%v)\n", sessionInitErr)
		} else {
			cmd.Println("Session:  loading")
		}
	}
	return nil
}
