// Package server exposes an extracted catalog to MCP clients over stdio.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pqgraph-dev/pqgraph/internal/nav"
	"github.com/pqgraph-dev/pqgraph/internal/search"
	"github.com/pqgraph-dev/pqgraph/internal/storage"
)

// Server answers dependency questions about one catalog output directory. Indexes are
// reloaded on every call so a concurrent watch run is picked up.
type Server struct {
	dir       string
	mcpServer *mcp.Server
}

func New(dir, version string) *Server {
	s := &Server{
		dir: dir,
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "pqgraph",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves over stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("serving MCP over stdio", "dir", s.dir)
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over an arbitrary transport.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}

func (s *Server) lookup() (*nav.Lookup, error) {
	return nav.LoadLookup(s.dir)
}

func (s *Server) searchIndex() (*search.Index, error) {
	return search.Load(s.dir)
}

// openStore returns the SQLite export when one was written, or nil.
func (s *Server) openStore() (*storage.DB, error) {
	path := filepath.Join(s.dir, storage.FileName)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	return storage.Open(path)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(value any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode result: %v", err))
	}
	return textResult(string(data))
}
