package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-chat/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Serve the local index to Model Context Protocol clients.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Starts an MCP server with two tools: "search" returns ranked documents and
"ask" returns an answer with numbered citations and its sources.

Without --port the server speaks JSON-RPC on stdio, which is how desktop
assistants launch it. With --port it serves streamable HTTP, plus Prometheus
metrics at /metrics and a health check at /healthz.

Examples:
  sercha-chat mcp serve
  sercha-chat mcp serve --port 8080
  sercha-chat mcp serve --port 8080 --host 0.0.0.0

Client configuration:
  {
    "mcpServers": {
      "sercha-chat": {
        "command": "/path/to/sercha-chat",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP bind address, used with --port")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchService,
		Answer:   answerService,
		Settings: settingsService,
	})
	if err != nil {
		return err
	}

	watchPrompts(cmd.Context())

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server on http://%s (metrics at %s)\n", addr, mcp.MetricsPath)
	return server.RunHTTP(cmd.Context(), addr)
}
