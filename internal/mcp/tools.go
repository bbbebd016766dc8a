package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rhodelta66/rag-tsql-agent/internal/pipeline"
	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed        = -32001 // Index is empty
	ErrorCodeEmptyQuery        = -32002 // Query parameter is empty
	ErrorCodeGeneratorDisabled = -32003 // No API key for code generation
)

// handleIndexProcedures handles the index_procedures tool invocation
func (s *Server) handleIndexProcedures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArguments(request)

	cfg := &pipeline.Config{
		UIOnly:  getBoolDefault(args, "ui_only", true),
		Workers: getIntDefault(args, "workers", 0),
	}
	if getBoolDefault(args, "save", true) {
		cfg.SaveDir = s.cfg.IndexDir()
	}

	s.mu.Lock()
	stats, err := s.pipeline.IndexAll(ctx, cfg)
	s.mu.Unlock()
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":     stats.Indexed,
		"skipped":     stats.Skipped,
		"failed":      stats.Failed,
		"saved":       stats.Saved,
		"duration_ms": stats.Duration.Milliseconds(),
	}
	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchProcedures handles the search_procedures tool invocation
func (s *Server) handleSearchProcedures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := toolArguments(request)

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	k := getIntDefault(args, "k", 5)
	if k < 1 || k > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "k must be between 1 and 100", map[string]interface{}{
			"param": "k",
			"value": k,
		})
	}

	componentType := getStringDefault(args, "component_type", "")
	kind := types.ComponentKind(componentType)
	if componentType != "" && !kind.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid component_type", map[string]interface{}{
			"param":   "component_type",
			"value":   componentType,
			"allowed": componentKindNames(),
		})
	}

	if s.index.Len() == 0 {
		return nil, newMCPError(ErrorCodeNotIndexed, "index is empty; run index_procedures first", nil)
	}

	s.mu.Lock()
	results, err := s.retriever.RetrieveUIComponents(ctx, query, kind, k)
	s.mu.Unlock()
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	formatted := make([]map[string]interface{}, len(results))
	for i, result := range results {
		formatted[i] = map[string]interface{}{
			"rank":     i + 1,
			"id":       result.ID,
			"name":     result.Name,
			"distance": result.Distance,
			"summary":  result.Metadata.Summary,
			"text":     result.Text,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"results": formatted,
	})), nil
}

// handleGenerateProcedure handles the generate_procedure tool invocation
func (s *Server) handleGenerateProcedure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.generator == nil {
		return nil, newMCPError(ErrorCodeGeneratorDisabled, "code generation requires OPENAI_API_KEY", nil)
	}

	args := toolArguments(request)

	description, ok := args["description"].(string)
	if !ok || description == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "description parameter is required", map[string]interface{}{
			"param":  "description",
			"reason": "missing or empty",
		})
	}

	k := getIntDefault(args, "k", 3)
	if k < 1 || k > 10 {
		return nil, newMCPError(ErrorCodeInvalidParams, "k must be between 1 and 10", map[string]interface{}{
			"param": "k",
			"value": k,
		})
	}

	s.mu.Lock()
	similar, err := s.retriever.Retrieve(ctx, description, k)
	s.mu.Unlock()
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "retrieval failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	code, err := s.generator.GenerateProcedure(ctx, description, similar)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "generation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	references := make([]string, len(similar))
	for i, result := range similar {
		references[i] = result.ID
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"code":       code,
		"references": references,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.catalog.Count(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to query catalog", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"catalog": map[string]interface{}{
			"path":       s.cfg.CatalogPath,
			"procedures": count,
		},
		"index": map[string]interface{}{
			"procedures": s.index.Len(),
			"dimension":  s.index.Dimension(),
			"data_dir":   s.cfg.IndexDir(),
		},
		"embedding": map[string]interface{}{
			"provider": s.embedder.Provider(),
			"model":    s.embedder.Model(),
		},
		"generation_enabled": s.generator != nil,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// toolArguments extracts the argument map from a request; tools with no
// arguments get an empty map.
func toolArguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
