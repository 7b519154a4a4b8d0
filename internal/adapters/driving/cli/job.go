package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect ingestion jobs",
}

var jobGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show an ingestion job",
	Long: `Show the current state of an ingestion job. This is a single read;
run it again to see progress.`,
	Args:        cobra.ExactArgs(1),
	Annotations: routed(domain.RouteJob),
	RunE:        runJobGet,
}

func init() {
	jobGetCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	jobCmd.AddCommand(jobGetCmd)
	rootCmd.AddCommand(jobCmd)
}

func runJobGet(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	job, err := jobService.Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd, job)
	}

	cmd.Printf("Job: %s\n\n", job.ID)
	cmd.Printf("  Document: %s\n", job.DocumentID)
	cmd.Printf("  Status:   %s\n", job.Status)
	cmd.Printf("  Progress: %d%%\n", job.Progress)
	if job.Failed() {
		cmd.Printf("  Error:    %s\n", *job.Error)
	}
	if !job.UpdatedAt.IsZero() {
		cmd.Printf("  Updated:  %s\n", job.UpdatedAt.Local().Format(timeLayout))
	}

	if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintln(f)
		if err := renderProgress(f, job); err != nil {
			logger.Debug("rendering progress: %v", err)
		}
		fmt.Fprintln(f)
	}
	return nil
}

// renderProgress draws a one-shot progress bar for job.
func renderProgress(w io.Writer, job *domain.Job) error {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString("  %s", job.Status)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
	)
	return bar.Set(clampProgress(job.Progress))
}

func clampProgress(p int) int {
	return max(0, min(p, 100))
}
