package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

// componentKindNames lists the UI component kinds accepted by the
// component_type filter.
func componentKindNames() []string {
	names := make([]string, 0, len(types.ComponentKinds))
	for _, kind := range types.ComponentKinds {
		names = append(names, string(kind))
	}
	return names
}

// indexProceduresTool returns the tool definition for index_procedures
func indexProceduresTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_procedures",
		Description: "Analyze and index stored procedures from the catalog for semantic search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"ui_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, only index procedures that reference the sp_api_* UI surface",
					"default":     true,
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Concurrent catalog readers (0 uses one per CPU)",
					"default":     0,
				},
				"save": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, write an index snapshot to the data directory after indexing",
					"default":     true,
				},
			},
		},
	}
}

// searchProceduresTool returns the tool definition for search_procedures
func searchProceduresTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_procedures",
		Description: "Search indexed T-SQL stored procedures with a natural language query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or T-SQL fragment)",
				},
				"k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"component_type": map[string]interface{}{
					"type":        "string",
					"description": "Only return procedures containing this UI component kind",
					"enum":        componentKindNames(),
				},
			},
			Required: []string{"query"},
		},
	}
}

// generateProcedureTool returns the tool definition for generate_procedure
func generateProcedureTool() mcp.Tool {
	return mcp.Tool{
		Name:        "generate_procedure",
		Description: "Generate a new UI stored procedure from a description, grounded on similar indexed procedures",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"description": map[string]interface{}{
					"type":        "string",
					"description": "What the procedure's UI should do",
				},
				"k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of similar procedures to use as references (1-10)",
					"default":     3,
					"minimum":     1,
					"maximum":     10,
				},
			},
			Required: []string{"description"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report catalog, index, and provider status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
