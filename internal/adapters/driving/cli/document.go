package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Submit and inspect documents",
	Long:    `Submit documents into a collection for ingestion, or look one up by ID.`,
}

var documentSubmitCmd = &cobra.Command{
	Use:   "submit <collection-id>",
	Short: "Submit a document for ingestion",
	Long: `Submit a document into a collection. The backend stores it and queues an
ingestion job; use 'ragdesk job get <job-id>' to check on it.

Content comes from --content, or from --file (use - for stdin). When --file
is given without --title, the file name is used as the title.`,
	Example: `  ragdesk document submit abc-123 --title Notes --content hello
  ragdesk document submit abc-123 --file notes.md
  cat notes.md | ragdesk document submit abc-123 --title Notes --file -`,
	Args:        cobra.ExactArgs(1),
	Annotations: routed(domain.RouteUpload),
	RunE:        runDocumentSubmit,
}

var documentGetCmd = &cobra.Command{
	Use:         "get <doc-id>",
	Short:       "Show a document",
	Args:        cobra.ExactArgs(1),
	Annotations: routed(domain.RouteDocument),
	RunE:        runDocumentGet,
}

// Flags for document submit.
var (
	submitTitle   string
	submitContent string
	submitFile    string
)

func init() {
	documentSubmitCmd.Flags().StringVarP(&submitTitle, "title", "t", "", "Document title")
	documentSubmitCmd.Flags().StringVarP(&submitContent, "content", "c", "", "Document content")
	documentSubmitCmd.Flags().StringVarP(&submitFile, "file", "f", "", "Read content from a file (- for stdin)")
	documentSubmitCmd.MarkFlagsMutuallyExclusive("content", "file")
	documentGetCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	documentCmd.AddCommand(documentSubmitCmd)
	documentCmd.AddCommand(documentGetCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentSubmit(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	input, err := documentInput(cmd)
	if err != nil {
		return err
	}

	sub, err := documentService.Submit(commandContext(cmd), args[0], input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("invalid submission: %w", err)
		}
		return err
	}

	success(cmd, fmt.Sprintf("Created doc %s, job %s", sub.Document.ID, sub.Job.ID))
	return nil
}

// documentInput assembles the submission from flags.
func documentInput(cmd *cobra.Command) (domain.DocumentInput, error) {
	input := domain.DocumentInput{Title: strings.TrimSpace(submitTitle), Content: submitContent}
	if submitFile == "" {
		return input, nil
	}

	var (
		data []byte
		err  error
	)
	if submitFile == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(submitFile)
		if input.Title == "" {
			input.Title = filepath.Base(submitFile)
		}
	}
	if err != nil {
		return input, fmt.Errorf("reading content: %w", err)
	}
	input.Content = string(data)
	return input, nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd, doc)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:      %s\n", doc.Title)
	cmd.Printf("  Collection: %s\n", doc.CollectionID)
	cmd.Printf("  Status:     %s\n", doc.Status)
	if !doc.CreatedAt.IsZero() {
		cmd.Printf("  Created:    %s\n", doc.CreatedAt.Local().Format(timeLayout))
	}
	return nil
}
