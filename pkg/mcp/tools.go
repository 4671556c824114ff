package mcp

import "github.com/mark3labs/mcp-go/mcp"

func listComponentsTool() mcp.Tool {
	return mcp.NewTool("list_components",
		mcp.WithDescription("List extracted components with their import path and prop and event counts, sorted by name."),
		mcp.WithString("query",
			mcp.Description("Only components whose name contains this text (case-insensitive)."),
		),
	)
}

func getComponentTool() mcp.Tool {
	return mcp.NewTool("get_component",
		mcp.WithDescription("Full extracted contract of one component: props with types, required flags, defaults and descriptions, plus its events."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Component name, e.g. Button. Matched exactly, then case-insensitively."),
		),
	)
}

func getIndexTool() mcp.Tool {
	return mcp.NewTool("get_index",
		mcp.WithDescription("The library index of the last extraction run: description, version, extraction date and per-component summaries."),
	)
}

func searchPropsTool() mcp.Tool {
	return mcp.NewTool("search_props",
		mcp.WithDescription("Find props across all components whose name contains the query (case-insensitive)."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to look for in prop names, e.g. color or onChange."),
		),
	)
}
