// Package tools exposes the prompt library as a catalog of MCP tools.
// Each tool maps its JSON-schema arguments onto one service call and
// answers with a text block.
package tools

import (
	"context"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/JaimeStill/prombank/internal/categories"
	"github.com/JaimeStill/prombank/internal/prompts"
	"github.com/JaimeStill/prombank/internal/tags"
	"github.com/JaimeStill/prombank/internal/transfer"
)

const serverName = "prombank"

// Deps are the services the tools call into.
type Deps struct {
	Prompts    prompts.System
	Categories categories.System
	Tags       tags.System
	Transfer   transfer.System
}

// Server serves the tool catalog over the MCP protocol.
type Server struct {
	deps   Deps
	mcp    *server.MCPServer
	logger *slog.Logger
}

// New builds a Server with every tool in the catalog registered.
func New(deps Deps, version string, logger *slog.Logger) *Server {
	s := &Server{
		deps:   deps,
		logger: logger.With("system", "tools"),
		mcp: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	for _, t := range s.catalog() {
		s.mcp.AddTool(t.tool, s.wrap(t.tool.Name, t.handle))
	}

	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve runs the protocol over the given streams until ctx is cancelled
// or the input is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.Info("tool server listening", "tools", len(s.catalog()))
	return stdio.Listen(ctx, in, out)
}

type handlerFunc func(ctx context.Context, args arguments) (string, error)

type entry struct {
	tool   mcp.Tool
	handle handlerFunc
}

// wrap converts handler errors into tool error results so the caller
// sees the failure as text rather than a protocol error.
func (s *Server) wrap(name string, fn handlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := fn(ctx, arguments(req.GetArguments()))
		if err != nil {
			s.logger.Error("tool call failed", "tool", name, "error", err)
			return mcp.NewToolResultError("Error: " + err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}
