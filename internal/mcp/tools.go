package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions for the paste surface.

var searchToolDef = mcp.NewTool("paste_search",
	mcp.WithDescription("Fuzzy-search clipboard history and collection entries. Matches query characters as an in-order subsequence and ranks by match quality and recency."),
	mcp.WithString("query",
		mcp.Description("Search text. Spaces are ignored; matching is case-insensitive. Empty returns the most recent records."),
	),
	mcp.WithNumber("max_results",
		mcp.Description("Maximum number of results to return (default 20, max 100)."),
	),
	mcp.WithString("scope",
		mcp.Description("Which partitions to search."),
		mcp.Enum("all", "clipboard", "master"),
	),
	mcp.WithArray("collections",
		mcp.Description("Restrict master results to these collection names. Ignored for clipboard records."),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var captureToolDef = mcp.NewTool("paste_capture",
	mcp.WithDescription("Record a clipboard observation. Whitespace-only content and exact repeats of the newest record are rejected; accepting a record may evict the oldest entries to stay under the retention cap."),
	mcp.WithString("content",
		mcp.Description("The clipboard text to record."),
		mcp.Required(),
	),
	mcp.WithString("source_app",
		mcp.Description("Name of the application the content was copied from, if known."),
	),
)

var listToolDef = mcp.NewTool("paste_list",
	mcp.WithDescription("List the most recent clipboard records, newest first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of records to return (default 20, max 100)."),
	),
)

var deleteToolDef = mcp.NewTool("paste_delete",
	mcp.WithDescription("Delete a clipboard record by id. Deleting an absent id is a no-op."),
	mcp.WithNumber("id",
		mcp.Description("Clipboard record id."),
		mcp.Required(),
	),
)

var deactivateToolDef = mcp.NewTool("paste_deactivate",
	mcp.WithDescription("Deactivate a collection entry by id. Deactivated entries are excluded from search but retained until their content leaves the collection file."),
	mcp.WithNumber("id",
		mcp.Description("Collection entry id."),
		mcp.Required(),
	),
)

var syncToolDef = mcp.NewTool("paste_sync",
	mcp.WithDescription("Resynchronize collection entries from the configured collections directory. Without a collection name, all discovered collections are synced."),
	mcp.WithString("collection",
		mcp.Description("Sync only this collection."),
	),
)

var purgeToolDef = mcp.NewTool("paste_purge",
	mcp.WithDescription("Delete all clipboard records. Collection entries are not affected."),
)
