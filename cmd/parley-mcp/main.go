package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/parley/internal/app"
	"github.com/ternarybob/parley/internal/common"
)

func main() {
	// Load configuration
	configPath := os.Getenv("PARLEY_CONFIG")
	if configPath == "" {
		configPath = "parley.toml"
	}

	config, err := common.LoadFromFiles(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"parley",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register query tools
	mcpServer.AddTool(createAskTool(), handleAsk(application.QueryService, logger))
	mcpServer.AddTool(createReviewTool(), handleReview(application.QueryService, logger))

	// Register retrieval and catalog tools
	mcpServer.AddTool(createSearchDocumentsTool(), handleSearchDocuments(application.DocumentStore, logger))
	mcpServer.AddTool(createListFunctionsTool(), handleListFunctions(application.FunctionRegistry, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
