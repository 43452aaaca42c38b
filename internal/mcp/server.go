package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/infinityhardik/shiftPaste/internal/query"
	"github.com/infinityhardik/shiftPaste/internal/store"
	syncpkg "github.com/infinityhardik/shiftPaste/internal/sync"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"paste_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"paste_capture": {
		def:     captureToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCapture },
	},
	"paste_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"paste_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"paste_deactivate": {
		def:     deactivateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDeactivate },
	},
	"paste_sync": {
		def:     syncToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSync },
	},
	"paste_purge": {
		def:     purgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with the paste tools registered.
// The synchronizer and source may be nil when no collections directory is
// configured; paste_sync then reports an invalid request.
func NewServer(st *store.Store, facade *query.Facade, synchronizer *syncpkg.Synchronizer, source CollectionSource, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"shiftpaste",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(st, facade, synchronizer, source)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(st *store.Store, facade *query.Facade, synchronizer *syncpkg.Synchronizer, source CollectionSource, version string) error {
	return server.ServeStdio(NewServer(st, facade, synchronizer, source, version))
}
