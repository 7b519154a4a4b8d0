package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdesk/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose ragdesk to AI assistants over MCP",
}

var mcpServePort int

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run a Model Context Protocol server whose tools list and create
collections, submit documents and read ingestion jobs as the signed-in user.
A login or logout in another terminal applies to the running server at once.

The server speaks JSON-RPC on stdin/stdout unless --port is given, in which
case it serves streamable HTTP on that port.

To register it with a desktop assistant:

  {"mcpServers": {"ragdesk": {"command": "ragdesk", "args": ["mcp", "serve"]}}}`,
	Example: `  ragdesk mcp serve
  ragdesk mcp serve --port 8090`,
	Args:        cobra.NoArgs,
	Annotations: withSession(),
	RunE:        runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpServePort, "port", "p", 0, "Serve HTTP on this port instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Session:     sessionHolder,
		Collections: collectionService,
		Documents:   documentService,
		Jobs:        jobService,
		Health:      healthService,
	}, version)
	if err != nil {
		return err
	}

	serve := server.Run
	if mcpServePort > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", mcpServePort)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", addr)
		serve = func(ctx context.Context) error { return server.RunHTTP(ctx, addr) }
	}
	return runFollowingSession(commandContext(cmd), serve)
}
