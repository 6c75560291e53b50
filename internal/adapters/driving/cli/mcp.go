package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/briefcast/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an AI assistant can read and
generate briefings for the user selected by --user.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  briefcast mcp serve --user alice

  # HTTP mode (for MCP Inspector, remote access)
  briefcast mcp serve --user alice --port 8081

Assistant configuration:
  {
    "mcpServers": {
      "briefcast": {
        "command": "/path/to/briefcast",
        "args": ["mcp", "serve", "--user", "alice"]
      }
    }
  }`,
	PreRunE: requireServices,
	RunE:    runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		UserID:     currentUser(),
		Briefings:  briefingService,
		Pipeline:   pipelineService,
		Connectors: connectorService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(commandContext(cmd), addr)
	}

	return server.Run(commandContext(cmd))
}
