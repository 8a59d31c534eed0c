package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/interfaces"
	"github.com/ternarybob/parley/internal/services/functions"
)

// handleAsk implements the ask tool
func handleAsk(queryService interfaces.QueryService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		result, err := queryService.Execute(ctx, &interfaces.QueryRequest{
			Query:          query,
			Persona:        request.GetString("persona", ""),
			SessionID:      request.GetString("session_id", ""),
			IncludeHistory: true,
		})
		if err != nil {
			logger.Error().Err(err).Msg("Query failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Query error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatExecutionResult(result)),
			},
		}, nil
	}
}

// handleReview implements the review tool
func handleReview(queryService interfaces.QueryService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		result, err := queryService.ExecuteWithReview(ctx, &interfaces.QueryRequest{
			Query:          query,
			SessionID:      request.GetString("session_id", ""),
			IncludeHistory: true,
		})
		if err != nil {
			logger.Error().Err(err).Msg("Review failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Review error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatExecutionResult(result)),
			},
		}, nil
	}
}

// handleSearchDocuments implements the search_documents tool
func handleSearchDocuments(store interfaces.DocumentStore, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: query parameter is required"),
				},
			}, nil
		}

		limit := request.GetInt("limit", 4)
		if limit > 20 {
			limit = 20
		}

		docs, err := store.Search(ctx, query, limit)
		if err != nil {
			logger.Error().Err(err).Msg("Search failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Search error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatSearchResults(query, docs)),
			},
		}, nil
	}
}

// handleListFunctions implements the list_functions tool
func handleListFunctions(registry *functions.Registry, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatFunctionCatalog(registry.Descriptions())),
			},
		}, nil
	}
}
