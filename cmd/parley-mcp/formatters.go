package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/parley/internal/models"
)

// formatExecutionResult formats a query result as markdown
func formatExecutionResult(result *models.ExecutionResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Answer (%s)\n\n", result.Persona.DisplayName()))
	sb.WriteString(result.Response)
	sb.WriteString("\n")

	if result.Validation != "" {
		sb.WriteString("\n## Validation (Tester)\n\n")
		sb.WriteString(result.Validation)
		sb.WriteString("\n")
	}

	if result.Metrics != nil {
		sb.WriteString(fmt.Sprintf("\n---\nQuery %s completed in %s\n", result.Metrics.QueryID, result.Metrics.TotalLatency))
	}

	return sb.String()
}

// formatSearchResults formats retrieved fragments as markdown
func formatSearchResults(query string, docs []models.RetrievedDocument) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for %q (%d results)\n\n", query, len(docs)))

	if len(docs) == 0 {
		sb.WriteString("No results found.\n")
		return sb.String()
	}

	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, doc.Source))
		if doc.Score > 0 {
			sb.WriteString(fmt.Sprintf("**Score:** %.3f\n", doc.Score))
		}
		sb.WriteString("\n")
		sb.WriteString(doc.Text)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// formatFunctionCatalog formats the inline function catalog as markdown
func formatFunctionCatalog(descriptions map[string]string) string {
	names := make([]string, 0, len(descriptions))
	for name := range descriptions {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Callable Functions (%d)\n\n", len(names)))
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", name, descriptions[name]))
	}

	return sb.String()
}
