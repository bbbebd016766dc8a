package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/rhodelta66/rag-tsql-agent/internal/catalog"
	"github.com/rhodelta66/rag-tsql-agent/internal/config"
	"github.com/rhodelta66/rag-tsql-agent/internal/embedder"
	"github.com/rhodelta66/rag-tsql-agent/internal/generator"
	"github.com/rhodelta66/rag-tsql-agent/internal/index"
	"github.com/rhodelta66/rag-tsql-agent/internal/pipeline"
	"github.com/rhodelta66/rag-tsql-agent/internal/retriever"
)

const (
	// ServerName is the MCP server name
	ServerName = "tsqlrag-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	cfg       *config.Config
	catalog   *catalog.Catalog
	embedder  embedder.Embedder
	index     *index.Index
	retriever *retriever.Retriever
	pipeline  *pipeline.Pipeline
	generator *generator.Generator // nil when no API key is configured
	log       *slog.Logger

	// mu serializes tool calls that touch the index; it has no
	// internal locking of its own.
	mu sync.Mutex
}

// NewServer creates a new MCP server instance. A previously saved index
// snapshot under the configured data directory is loaded for a warm start.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(cfg.CatalogPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	cat, err := catalog.Open(cfg.CatalogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	// One embedder instance feeds both indexing and search so the
	// embedding cache is shared.
	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = cat.Close()
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}

	ix := index.New(emb, logger)
	if ix.Load(cfg.IndexDir()) {
		logger.Info("loaded index snapshot", "dir", cfg.IndexDir(), "procedures", ix.Len())
	}

	var gen *generator.Generator
	gen, err = generator.New(cfg.OpenAIAPIKey, logger)
	if err != nil {
		logger.Info("code generation disabled", "reason", err)
		gen = nil
	}

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		cfg:       cfg,
		catalog:   cat,
		embedder:  emb,
		index:     ix,
		retriever: retriever.New(ix, logger),
		pipeline:  pipeline.New(cat, ix, logger),
		generator: gen,
		log:       logger,
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.catalog.Close()
		_ = s.embedder.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexProceduresTool(), s.handleIndexProcedures)
	s.mcp.AddTool(searchProceduresTool(), s.handleSearchProcedures)
	s.mcp.AddTool(generateProcedureTool(), s.handleGenerateProcedure)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
