// Package mcp exposes the guardian to agent tooling over the Model
// Context Protocol. Tools map one-to-one onto the guardian's risk
// surface: wipe, dry-run check, and read-only status. Configuration
// stays CLI-only; an agent session never gets owner powers.
package mcp

import (
	"context"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/lineguard/internal/authority"
	"github.com/ppiankov/lineguard/internal/guard"
	"github.com/ppiankov/lineguard/internal/model"
)

// Config holds MCP server configuration.
type Config struct {
	// Dir is the lineguard config directory. Empty uses the default.
	Dir string
	// Caller is the identity every tool call acts as.
	Caller string
}

// Server wraps the MCP SDK server around an opened guardian.
type Server struct {
	mcpServer *mcpsdk.Server
	guard     *guard.Guard
	caller    model.Address
	reloader  *authority.Reloader
}

// New opens the guardian and registers the tools.
func New(cfg Config) (*Server, error) {
	caller, err := model.ParseAddress(cfg.Caller)
	if err != nil {
		return nil, fmt.Errorf("mcp: caller: %w", err)
	}

	g, err := guard.Open(cfg.Dir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		guard:  g,
		caller: caller,
	}

	// Hot-reload delegation rules while the session runs, so revoking a
	// delegate takes effect without restarting the agent.
	if g.Resolver != nil && g.RulesPath() != "" {
		reloader, err := authority.NewReloader(g.Resolver, g.RulesPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "mcp: rules hot-reload disabled: %v\n", err)
		} else {
			s.reloader = reloader
		}
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "lineguard",
			Version: "0.1.0",
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.reloader != nil {
		go func() {
			if err := s.reloader.Run(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "mcp: rules watcher stopped: %v\n", err)
			}
		}()
	}
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the guardian's resources.
func (s *Server) Close() error {
	return s.guard.Close()
}

// registerTools adds the lineguard tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "lineguard_wipe",
		Description: "Zero a collateral type's debt ceiling in the vat and remove its autoline record, atomically. Refused callers get the reason back.",
	}, s.handleWipe)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "lineguard_check",
		Description: "Dry-run a wipe: report whether the session identity is authorized and the ilk is in the managed set, without touching the registries.",
	}, s.handleCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "lineguard_status",
		Description: "Read the guardian's configuration and both registries' current state.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "lineguard_ilks",
		Description: "List the collateral types eligible for wiping.",
	}, s.handleIlks)
}
