// Package types provides shared type definitions for the T-SQL RAG agent.
//
// This package defines the domain types passed between the analyzer, the
// embedding index, the retriever, and the code generator.
//
// # Core Types
//
// Procedure represents one stored procedure as ingested from the catalog:
//
//	proc := types.Procedure{
//	    ID:   "dbo.usp_login_modal",
//	    Name: "usp_login_modal",
//	    Text: definition,
//	}
//
// Metadata holds the structural facts the analyzer extracts from a procedure
// definition via pattern matching: declared variables, UI component call
// sites, control flow structures, distinct sp_api_* call names, and a derived
// summary string.
//
// # UI Component Kinds
//
// UI components are grouped into a fixed set of kind buckets matching the
// sp_api_* call shapes the analyzer recognizes:
//
//	types.KindModalText   // EXEC sp_api_modal_text
//	types.KindModalInput  // EXEC sp_api_modal_input
//	types.KindModalButton // EXEC sp_api_modal_button
//	types.KindToast       // EXEC sp_api_toast
//	types.KindOther       // schema placeholder, not populated by the analyzer
//
// # Retrieval Results
//
// RetrievalResult pairs a stored procedure record with its distance to the
// query embedding. Distances are squared L2 over unit vectors, so lower is
// more similar and values fall in [0, 4].
package types
