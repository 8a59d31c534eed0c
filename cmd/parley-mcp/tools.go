package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAskTool returns the ask tool definition
func createAskTool() mcp.Tool {
	return mcp.NewTool("ask",
		mcp.WithDescription("Ask the Parley knowledge base a question. The query is routed to a persona (developer, writer, tester, sales) and answered with retrieved document context."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to ask"),
		),
		mcp.WithString("persona",
			mcp.Description("Persona override: developer, writer, tester, or sales (default: routed automatically)"),
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation session identifier (default: a shared default session)"),
		),
	)
}

// createReviewTool returns the review tool definition
func createReviewTool() mcp.Tool {
	return mcp.NewTool("review",
		mcp.WithDescription("Ask a question and have the tester persona validate the answer for accuracy"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to ask and validate"),
		),
		mcp.WithString("session_id",
			mcp.Description("Conversation session identifier"),
		),
	)
}

// createSearchDocumentsTool returns the search_documents tool definition
func createSearchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Search the Parley document corpus and return ranked text fragments"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (keyword match against document content and titles)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum fragments to return (default: 4, max: 20)"),
		),
	)
}

// createListFunctionsTool returns the list_functions tool definition
func createListFunctionsTool() mcp.Tool {
	return mcp.NewTool("list_functions",
		mcp.WithDescription("List the functions that can be invoked inline in responses, e.g. premOp(4, 1)"),
	)
}
