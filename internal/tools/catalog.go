package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultLimit    = 10
	defaultTagLimit = 20
	maxLimit        = 100
)

var stringItems = mcp.Items(map[string]any{"type": "string"})

func limitParam(def int) mcp.ToolOption {
	return mcp.WithNumber("limit",
		mcp.Description("Maximum number of results"),
		mcp.DefaultNumber(float64(def)),
		mcp.Min(1),
		mcp.Max(maxLimit),
	)
}

func (s *Server) catalog() []entry {
	return []entry{
		{
			tool: mcp.NewTool("search_prompts",
				mcp.WithDescription("Search for prompts by title, description, or content"),
				mcp.WithString("query", mcp.Required(), mcp.Description("Search query to find prompts")),
				mcp.WithString("category", mcp.Description("Filter by category name")),
				mcp.WithArray("tags", mcp.Description("Filter by tag names; prompts must carry all of them"), stringItems),
				limitParam(defaultLimit),
			),
			handle: s.searchPrompts,
		},
		{
			tool: mcp.NewTool("get_prompt",
				mcp.WithDescription("Get a prompt by ID with full details and record its use"),
				mcp.WithString("prompt_id", mcp.Required(), mcp.Description("The ID of the prompt to retrieve")),
			),
			handle: s.getPrompt,
		},
		{
			tool: mcp.NewTool("create_prompt",
				mcp.WithDescription("Create a new prompt"),
				mcp.WithString("title", mcp.Required(), mcp.Description("Title of the prompt")),
				mcp.WithString("content", mcp.Required(), mcp.Description("Content of the prompt")),
				mcp.WithString("description", mcp.Description("Description of the prompt")),
				mcp.WithString("category", mcp.Description("Category name, created when missing")),
				mcp.WithArray("tags", mcp.Description("Tag names"), stringItems),
				mcp.WithBoolean("is_public", mcp.Description("Whether the prompt is public"), mcp.DefaultBool(false)),
				mcp.WithBoolean("is_template", mcp.Description("Whether the prompt is a template"), mcp.DefaultBool(false)),
			),
			handle: s.createPrompt,
		},
		{
			tool: mcp.NewTool("update_prompt",
				mcp.WithDescription("Update an existing prompt; omitted fields are unchanged"),
				mcp.WithString("prompt_id", mcp.Required(), mcp.Description("ID of the prompt to update")),
				mcp.WithString("title", mcp.Description("New title")),
				mcp.WithString("content", mcp.Description("New content")),
				mcp.WithString("description", mcp.Description("New description")),
				mcp.WithString("category", mcp.Description("New category name, created when missing")),
				mcp.WithArray("tags", mcp.Description("Replacement tag names"), stringItems),
				mcp.WithBoolean("create_version", mcp.Description("Record a major version"), mcp.DefaultBool(false)),
			),
			handle: s.updatePrompt,
		},
		{
			tool: mcp.NewTool("delete_prompt",
				mcp.WithDescription("Delete a prompt by ID"),
				mcp.WithString("prompt_id", mcp.Required(), mcp.Description("ID of the prompt to delete")),
			),
			handle: s.deletePrompt,
		},
		{
			tool: mcp.NewTool("list_categories",
				mcp.WithDescription("List categories"),
				mcp.WithBoolean("active_only", mcp.Description("Only return active categories"), mcp.DefaultBool(true)),
			),
			handle: s.listCategories,
		},
		{
			tool: mcp.NewTool("list_tags",
				mcp.WithDescription("List or search tags"),
				mcp.WithString("search", mcp.Description("Search query for tag names")),
				mcp.WithBoolean("popular", mcp.Description("Order by usage with counts"), mcp.DefaultBool(false)),
				limitParam(defaultTagLimit),
			),
			handle: s.listTags,
		},
		{
			tool: mcp.NewTool("import_prompts",
				mcp.WithDescription("Import prompts from text content, skipping duplicates"),
				mcp.WithString("content", mcp.Required(), mcp.Description("Content to import")),
				mcp.WithString("format_type",
					mcp.Description("Format of the content"),
					mcp.Enum("json", "markdown", "yaml", "csv", "fabric"),
					mcp.DefaultString("markdown"),
				),
				mcp.WithString("title", mcp.Description("Title for a single prompt import")),
				mcp.WithString("category", mcp.Description("Default category for imported prompts")),
			),
			handle: s.importPrompts,
		},
		{
			tool: mcp.NewTool("export_prompts",
				mcp.WithDescription("Export prompts in the given format"),
				mcp.WithString("format_type",
					mcp.Description("Export format"),
					mcp.Enum("json", "markdown", "yaml", "csv"),
					mcp.DefaultString("json"),
				),
				mcp.WithArray("prompt_ids", mcp.Description("Prompt IDs to export; all prompts when omitted"), stringItems),
				mcp.WithBoolean("include_metadata", mcp.Description("Include metadata"), mcp.DefaultBool(true)),
			),
			handle: s.exportPrompts,
		},
		{
			tool: mcp.NewTool("get_popular_prompts",
				mcp.WithDescription("Get the most frequently used prompts"),
				limitParam(defaultLimit),
			),
			handle: s.popularPrompts,
		},
		{
			tool: mcp.NewTool("get_recent_prompts",
				mcp.WithDescription("Get recently created prompts"),
				limitParam(defaultLimit),
			),
			handle: s.recentPrompts,
		},
	}
}
