package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/ingest"
	"github.com/infinityhardik/shiftPaste/internal/query"
	"github.com/infinityhardik/shiftPaste/internal/store"
	syncpkg "github.com/infinityhardik/shiftPaste/internal/sync"
)

// CollectionSource enumerates the collections available for syncing.
type CollectionSource interface {
	Collections() ([]string, error)
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store        *store.Store
	facade       *query.Facade
	ingestor     *ingest.Ingestor
	synchronizer *syncpkg.Synchronizer
	source       CollectionSource
}

// NewHandlers creates a new Handlers instance. The synchronizer and source
// may be nil when no collections directory is configured.
func NewHandlers(st *store.Store, facade *query.Facade, synchronizer *syncpkg.Synchronizer, source CollectionSource) *Handlers {
	return &Handlers{
		store:        st,
		facade:       facade,
		ingestor:     ingest.New(st),
		synchronizer: synchronizer,
		source:       source,
	}
}

// Request types for each tool

// SearchRequest represents the arguments for paste_search.
type SearchRequest struct {
	Query       string   `json:"query,omitempty"`
	MaxResults  int      `json:"max_results,omitempty"`
	Scope       string   `json:"scope,omitempty"`
	Collections []string `json:"collections,omitempty"`
}

// CaptureRequest represents the arguments for paste_capture.
type CaptureRequest struct {
	Content   string `json:"content"`
	SourceApp string `json:"source_app,omitempty"`
}

// ListRequest represents the arguments for paste_list.
type ListRequest struct {
	Limit int `json:"limit,omitempty"`
}

// DeleteRequest represents the arguments for paste_delete.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// DeactivateRequest represents the arguments for paste_deactivate.
type DeactivateRequest struct {
	ID int64 `json:"id"`
}

// SyncRequest represents the arguments for paste_sync.
type SyncRequest struct {
	Collection string `json:"collection,omitempty"`
}

// Handler implementations

// HandleSearch handles the paste_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := h.facade.Query(query.Input{
		Query:       input.Query,
		MaxResults:  input.MaxResults,
		Scope:       store.Scope(input.Scope),
		Collections: input.Collections,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(out)
}

// HandleCapture handles the paste_capture tool call.
func (h *Handlers) HandleCapture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CaptureRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.ingestor.Observe(ingest.Observation{
		Content:   input.Content,
		SourceApp: input.SourceApp,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the paste_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = query.DefaultMaxResults
	}
	if limit > query.MaxMaxResults {
		limit = query.MaxMaxResults
	}

	records, err := h.store.RecentClipboard(limit)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"records": records})
}

// HandleDelete handles the paste_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.store.DeleteClipboard(input.ID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deleted": input.ID})
}

// HandleDeactivate handles the paste_deactivate tool call.
func (h *Handlers) HandleDeactivate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeactivateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID <= 0 {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	if err := h.store.DeactivateMaster(input.ID); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"deactivated": input.ID})
}

// HandleSync handles the paste_sync tool call.
func (h *Handlers) HandleSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SyncRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if h.synchronizer == nil {
		return errorResult(errors.NewInvalidRequest("no collections directory configured")), nil
	}

	if input.Collection != "" {
		result, err := h.synchronizer.SyncCollection(ctx, input.Collection)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(result)
	}

	names, err := h.source.Collections()
	if err != nil {
		return errorResult(err), nil
	}
	results, err := h.synchronizer.SyncAll(ctx, names)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"results": results})
}

// HandlePurge handles the paste_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deleted, err := h.store.PurgeClipboard()
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(map[string]any{"purged": deleted})
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed to avoid leaking paths or SQL text.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if storeErr, ok := err.(*errors.StoreError); ok {
		errorObj := map[string]any{
			"code":    storeErr.Code,
			"message": storeErr.Message,
			"status":  storeErr.Status,
		}
		if storeErr.Code != errors.ErrInternal && storeErr.Details != nil {
			errorObj["details"] = storeErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
