package mcp

import (
	"context"
	"database/sql"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/sparetime/internal/config"
	"github.com/hpungsan/sparetime/internal/logger"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"match", "frame", "score"}

// toolEntry pairs a tool definition with its handler method.
type toolEntry struct {
	def    mcp.Tool
	handle func(*Handlers, context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// toolRegistry maps tool names to their entries.
var toolRegistry = newRegistry(
	toolEntry{scoreCardToolDef, (*Handlers).HandleScoreCard},
	toolEntry{createToolDef, (*Handlers).HandleCreate},
	toolEntry{fetchToolDef, (*Handlers).HandleFetch},
	toolEntry{listToolDef, (*Handlers).HandleList},
	toolEntry{updateToolDef, (*Handlers).HandleUpdate},
	toolEntry{deleteToolDef, (*Handlers).HandleDelete},
	toolEntry{purgeToolDef, (*Handlers).HandlePurge},
	toolEntry{exportToolDef, (*Handlers).HandleExport},
	toolEntry{importToolDef, (*Handlers).HandleImport},
	toolEntry{recordToolDef, (*Handlers).HandleRecord},
	toolEntry{keyToolDef, (*Handlers).HandleKey},
)

func newRegistry(entries ...toolEntry) map[string]toolEntry {
	m := make(map[string]toolEntry, len(entries))
	for _, e := range entries {
		m[e.def.Name] = e
	}
	return m
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "frame_record" → "frame").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with the scoring tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(ctx context.Context, db *sql.DB, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"sparetime",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	h := NewHandlers(db, cfg, *logger.From(ctx))

	// Expand types first, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return entry.handle(h, ctx, req)
		})
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(ctx context.Context, db *sql.DB, cfg *config.Config, version string) error {
	s := NewServer(ctx, db, cfg, version)
	logger.From(ctx).Debug().Str("version", version).Msg("serving MCP over stdio")
	return server.ServeStdio(s)
}
