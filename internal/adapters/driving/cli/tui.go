package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for ragdesk.

The TUI signs you in, lists and creates collections, and submits documents.
Every screen except sign-in needs a signed-in user; signing out in another
terminal returns the TUI to the sign-in screen.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Select / Sign in
  Tab      - Next field
  n        - New collection
  u        - Upload to the selected collection
  ctrl+s   - Submit the document
  ctrl+t   - View the submitted document's job
  ctrl+o   - Sign out
  Esc      - Back / Cancel
  ctrl+c   - Quit`,
	Annotations: withSession(),
	RunE:        runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// newTeaProgram is replaced in tests.
var newTeaProgram = func(model tea.Model) interface{ Run() (tea.Model, error) } {
	return tea.NewProgram(model, tea.WithAltScreen())
}

func runTUI(cmd *cobra.Command, _ []string) error {
	ports := &tui.Ports{
		Session:     sessionHolder,
		Guard:       guard,
		Collections: collectionService,
		Documents:   documentService,
		Jobs:        jobService,
	}

	return runFollowingSession(commandContext(cmd), func(ctx context.Context) error {
		// Recover here: with a session watcher this runs on its own goroutine.
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
				fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			}
		}()

		app, err := tui.NewApp(ports)
		if err != nil {
			return fmt.Errorf("failed to create TUI: %w", err)
		}
		app.WithContext(ctx)
		defer app.Close()

		if _, err := newTeaProgram(app).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
