package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/rolodex/internal/category"
	"github.com/hpungsan/rolodex/internal/config"
	"github.com/hpungsan/rolodex/internal/errors"
	"github.com/hpungsan/rolodex/internal/ops"
	"github.com/hpungsan/rolodex/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *store.Store
	tree  *category.Tree
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s *store.Store, tree *category.Tree, cfg *config.Config) *Handlers {
	return &Handlers{store: s, tree: tree, cfg: cfg}
}

// Request types for each tool

// SaveRequest represents the arguments for contact_save.
type SaveRequest struct {
	Level1    string `json:"level1,omitempty"`
	Level2    string `json:"level2,omitempty"`
	Level3    string `json:"level3,omitempty"`
	Comment   string `json:"comment,omitempty"`
	ID        string `json:"id,omitempty"`
	CreatedAt *int64 `json:"created_at,omitempty"`
}

// IDRequest represents the arguments for contact_get and contact_delete.
type IDRequest struct {
	ID string `json:"id"`
}

// ExportRequest represents the arguments for contact_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for contact_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// PathRequest represents the arguments for category_path.
type PathRequest struct {
	ID     string `json:"id,omitempty"`
	Level1 string `json:"level1,omitempty"`
	Level2 string `json:"level2,omitempty"`
	Level3 string `json:"level3,omitempty"`
}

// Response types

// TreeResponse is returned by category_tree.
type TreeResponse struct {
	Categories []category.Node `json:"categories"`
}

// PathResponse is returned by category_path.
type PathResponse struct {
	Name string `json:"name,omitempty"`
	Path string `json:"path,omitempty"`
}

// Handler implementations

// HandleSave handles the contact_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Save(ctx, h.store, h.tree, store.SaveInput{
		Level1:    input.Level1,
		Level2:    input.Level2,
		Level3:    input.Level3,
		Comment:   input.Comment,
		ID:        input.ID,
		CreatedAt: input.CreatedAt,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDelete handles the contact_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.store, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the contact_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.List(h.store, h.tree))
}

// HandleGet handles the contact_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	view, err := ops.Get(h.store, h.tree, id)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(view)
}

// HandleExport handles the contact_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.store, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the contact_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.store, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: store.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTree handles the category_tree tool call.
func (h *Handlers) HandleTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(TreeResponse{Categories: h.tree.Roots()})
}

// HandlePath handles the category_path tool call.
func (h *Handlers) HandlePath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PathRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	sel := category.Selection{Level1: input.Level1, Level2: input.Level2, Level3: input.Level3}
	if input.ID == "" && sel.IsEmpty() {
		return errorResult(errors.NewInvalidRequest("id or at least one level is required")), nil
	}

	var resp PathResponse
	if input.ID != "" {
		resp.Name = h.tree.Name(input.ID)
	}
	if !sel.IsEmpty() {
		resp.Path = h.tree.Path(sel)
	}
	return successResult(resp)
}

// errorResult creates an MCP error result with a JSON error object.
func errorResult(err error) *mcp.CallToolResult {
	rErr := errors.As(err)

	message := rErr.Message
	if rErr.Code == errors.ErrInternal {
		message = "an internal error occurred"
	} else if prefix, ok := strings.CutSuffix(err.Error(), rErr.Error()); ok {
		// Keep wrapping context such as "line 3: "
		message = prefix + rErr.Message
	}

	errorObj := map[string]any{
		"code":    rErr.Code,
		"message": message,
		"status":  rErr.Status,
	}
	// Details may carry file paths; never for INTERNAL
	if rErr.Code != errors.ErrInternal && rErr.Details != nil {
		errorObj["details"] = rErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
