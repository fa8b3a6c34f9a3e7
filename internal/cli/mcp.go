package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lineguard/internal/mcp"
)

var mcpCaller string

func init() {
	mcpCmd.Flags().StringVar(&mcpCaller, "caller", "", "Identity every tool call acts as (required)")
	mcpCmd.MarkFlagRequired("caller")
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the guardian's tools over MCP stdio",
	Long: "Runs a Model Context Protocol server on stdio so agent tooling can\n" +
		"call wipe, check, status, and ilks. The whole session acts as the\n" +
		"single identity given by --caller; owner-gated configuration is not\n" +
		"exposed.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := mcp.New(mcp.Config{Dir: flagDir, Caller: mcpCaller})
		if err != nil {
			return err
		}
		defer srv.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(os.Stderr, "lineguard mcp: serving on stdio as %s\n", mcpCaller)
		return srv.Run(ctx)
	},
}
