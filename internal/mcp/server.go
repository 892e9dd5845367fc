package mcp

import (
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/store"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"contact", "category"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"contact_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"contact_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"contact_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"contact_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"contact_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"contact_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
	"category_tree": {
		def:     treeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTree },
	},
	"category_path": {
		def:     pathToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePath },
	},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
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
	unknown := make([]string, 0)
	for _, name := range names {
		if !slices.Contains(KnownTypes, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "contact_save" → "contact").
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

	tools := make([]string, 0)
	for name := range toolRegistry {
		if slices.Contains(types, GetTypeForTool(name)) {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates an MCP server with the rolodex tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration.
func NewServer(s *store.Store, tree *category.Tree, cfg *config.Config, logger *zap.Logger, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"rolodex",
		version,
		server.WithToolCapabilities(true),
	)

	if logger == nil {
		logger = zap.NewNop()
	}
	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}
	if unknown := ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("unknown types in disabled_types", zap.Strings("types", unknown))
	}

	h := NewHandlers(s, tree, cfg)

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
		srv.AddTool(entry.def, entry.handler(h))
	}

	return srv
}

// Run serves MCP over stdio until stdin closes.
func Run(s *store.Store, tree *category.Tree, cfg *config.Config, logger *zap.Logger, version string) error {
	return server.ServeStdio(NewServer(s, tree, cfg, logger, version))
}
