package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// timeLayout is used for every timestamp the CLI prints.
const timeLayout = "2006-01-02 15:04:05"

// jsonOutput is shared by the read commands.
var jsonOutput bool

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"collections", "col"},
	Short:   "Manage collections",
	Long:    `List and create the collections documents are ingested into.`,
}

var collectionListCmd = &cobra.Command{
	Use:         "list",
	Short:       "List your collections",
	Args:        cobra.NoArgs,
	Annotations: routed(domain.RouteCollections),
	RunE:        runCollectionList,
}

var collectionCreateCmd = &cobra.Command{
	Use:         "create <name>",
	Short:       "Create a collection",
	Long:        `Create a collection. The name is trimmed and must not be blank.`,
	Args:        cobra.MinimumNArgs(1),
	Annotations: routed(domain.RouteCollections),
	RunE:        runCollectionCreate,
}

func init() {
	collectionListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	collectionCreateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionCreateCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	collections, err := collectionService.List(commandContext(cmd))
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd, collections)
	}

	if len(collections) == 0 {
		cmd.Println("No collections yet. Create one with 'ragdesk collection create <name>'.")
		return nil
	}

	for i := range collections {
		c := &collections[i]
		cmd.Printf("  %s\n", c.ID)
		cmd.Printf("    Name: %s\n", c.Name)
		if !c.CreatedAt.IsZero() {
			cmd.Printf("    Created: %s\n", c.CreatedAt.Local().Format(timeLayout))
		}
		cmd.Println()
	}
	cmd.Printf("Total: %d collections\n", len(collections))
	return nil
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	name := strings.Join(args, " ")
	created, err := collectionService.Create(commandContext(cmd), name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return errors.New("collection name must not be blank")
		}
		return err
	}

	if jsonOutput {
		return printJSON(cmd, created)
	}
	if created == nil {
		success(cmd, "Collection created.")
		return nil
	}
	success(cmd, fmt.Sprintf("Created collection %s (%s)", created.Name, created.ID))
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
