package mcp

import "github.com/mark3labs/mcp-go/mcp"

var saveToolDef = mcp.NewTool("contact_save",
	mcp.WithDescription("Save a contact entry. Without an id (or with an unknown id) a new entry is created "+
		"with a fresh id and timestamp. With an existing id the entry is fully replaced and keeps its id and timestamp. "+
		"Levels are category ids from category_tree; leave a level empty to stop the path there."),
	mcp.WithString("level1", mcp.Description("Top-level category id")),
	mcp.WithString("level2", mcp.Description("Second-level category id, a child of level1")),
	mcp.WithString("level3", mcp.Description("Third-level category id, a child of level2")),
	mcp.WithString("comment", mcp.Description("Free-text note; may span several lines")),
	mcp.WithString("id", mcp.Description("Id of the entry to replace")),
	mcp.WithNumber("created_at", mcp.Description("Override the kept timestamp on replace (epoch milliseconds)")),
)

var deleteToolDef = mcp.NewTool("contact_delete",
	mcp.WithDescription("Delete a contact entry by id. Deleting an unknown id is a no-op and reports deleted=false."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var listToolDef = mcp.NewTool("contact_list",
	mcp.WithDescription("List every contact entry, oldest first, with its resolved category path."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var getToolDef = mcp.NewTool("contact_get",
	mcp.WithDescription("Get one contact entry by id, with its resolved category path."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("contact_export",
	mcp.WithDescription("Write all entries to a .json file in the persisted format. "+
		"Defaults to ~/.rolodex/exports/<key>-<timestamp>.json."),
	mcp.WithString("path", mcp.Description("Destination file; must end in .json")),
)

var importToolDef = mcp.NewTool("contact_import",
	mcp.WithDescription("Import entries from a .json export. merge upserts by id; replace swaps out the whole list."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source file; must end in .json")),
	mcp.WithString("mode", mcp.Enum("merge", "replace"), mcp.Description("Default: merge")),
)

var treeToolDef = mcp.NewTool("category_tree",
	mcp.WithDescription("Return the category forest (id, name, children) used for level1..level3."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var pathToolDef = mcp.NewTool("category_path",
	mcp.WithDescription("Resolve category ids to names. With id, returns that node's name; "+
		"with levels, returns the display path (e.g. \"Business > Finance\"). Unknown ids resolve to \"Unknown\"."),
	mcp.WithString("id", mcp.Description("Single category id to resolve")),
	mcp.WithString("level1", mcp.Description("Top-level category id")),
	mcp.WithString("level2", mcp.Description("Second-level category id")),
	mcp.WithString("level3", mcp.Description("Third-level category id")),
	mcp.WithReadOnlyHintAnnotation(true),
)
