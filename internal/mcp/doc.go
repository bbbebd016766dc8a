// Package mcp implements the Model Context Protocol (MCP) server for the
// T-SQL procedure RAG agent.
//
// The server exposes four tools to MCP clients:
//   - index_procedures: Analyze and index catalog procedures for search
//   - search_procedures: Semantic search over indexed procedures, with an
//     optional UI component filter
//   - generate_procedure: Generate a new UI stored procedure grounded on
//     retrieved references (requires OPENAI_API_KEY)
//   - get_status: Report catalog, index, and provider status
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport; the server reads
// requests from stdin and writes responses to stdout. All logging goes to
// stderr so the protocol stream stays clean.
//
// # Tool: search_procedures
//
//	Request:
//	{
//	  "name": "search_procedures",
//	  "arguments": {
//	    "query": "login dialog with username and password",
//	    "k": 5,
//	    "component_type": "modal_input"
//	  }
//	}
//
//	Response:
//	{
//	  "query": "login dialog with username and password",
//	  "results": [
//	    {
//	      "rank": 1,
//	      "id": "dbo.usp_login",
//	      "name": "usp_login",
//	      "distance": 0.4183,
//	      "summary": "UI procedure with 4 UI components, 2 variables, and 1 control flow structures.",
//	      "text": "CREATE PROCEDURE dbo.usp_login AS ..."
//	    }
//	  ]
//	}
//
// # Error Handling
//
// Errors are standard JSON-RPC error responses:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (catalog, embedding provider, etc.)
//   - -32001: Index is empty
//   - -32002: Query parameter is empty
//   - -32003: Code generation disabled (no API key)
package mcp
