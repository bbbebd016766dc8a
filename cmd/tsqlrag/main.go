// Package main provides the tsqlrag CLI for indexing, searching, and
// generating T-SQL UI stored procedures.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rhodelta66/rag-tsql-agent/internal/catalog"
	"github.com/rhodelta66/rag-tsql-agent/internal/config"
	"github.com/rhodelta66/rag-tsql-agent/internal/embedder"
	"github.com/rhodelta66/rag-tsql-agent/internal/generator"
	"github.com/rhodelta66/rag-tsql-agent/internal/index"
	"github.com/rhodelta66/rag-tsql-agent/internal/mcp"
	"github.com/rhodelta66/rag-tsql-agent/internal/pipeline"
	"github.com/rhodelta66/rag-tsql-agent/internal/retriever"
	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configPath string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tsqlrag",
	Short: "RAG agent for T-SQL UI stored procedures",
	Long: `tsqlrag analyzes T-SQL stored procedures that build UIs through the
sp_api_* surface, indexes them for semantic search, and generates new
procedures grounded on the indexed ones.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tsqlrag %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", catalog.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", catalog.DriverName)
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Initialize the data directory, config file, and catalog database",
	RunE:  runSetup,
}

var importCmd = &cobra.Command{
	Use:   "import <directory>",
	Short: "Import .sql procedure files into the catalog",
	Long: `Imports every .sql file in the directory into the catalog. File names
carry the procedure identity: dbo.usp_login.sql becomes dbo.usp_login.
Files without a schema prefix default to the dbo schema.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Analyze and index catalog procedures for semantic search",
	RunE:  runIndex,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed procedures",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var generateCmd = &cobra.Command{
	Use:   "generate <description>",
	Short: "Generate a new UI stored procedure from a description",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

var modifyCmd = &cobra.Command{
	Use:   "modify <schema.procedure> <request>",
	Short: "Modify an existing catalog procedure",
	Args:  cobra.ExactArgs(2),
	RunE:  runModify,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE:  runServe,
}

var (
	indexUIOnly  bool
	indexWorkers int

	searchK         int
	searchComponent string

	generateK      int
	generateOutput string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to JSON config file")

	indexCmd.Flags().BoolVar(&indexUIOnly, "ui-only", true, "only index procedures using the sp_api_* surface")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "concurrent catalog readers (0 = one per CPU)")

	searchCmd.Flags().IntVarP(&searchK, "limit", "k", retriever.DefaultK, "number of results")
	searchCmd.Flags().StringVar(&searchComponent, "component", "", "filter by UI component kind (modal_text, modal_input, modal_button, toast)")

	generateCmd.Flags().IntVarP(&generateK, "limit", "k", 3, "number of reference procedures")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write generated code to this file instead of stdout")

	rootCmd.AddCommand(versionCmd, setupCmd, importCmd, indexCmd, searchCmd, generateCmd, modifyCmd, serveCmd)
}

func main() {
	// Load .env if present; missing is fine outside local development.
	_ = godotenv.Load()

	// Log to stderr so stdout stays clean for command output and the
	// MCP protocol stream.
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	return config.Load(configPath, logger)
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	cat, err := catalog.Open(cfg.CatalogPath, logger)
	if err != nil {
		return fmt.Errorf("initialize catalog: %w", err)
	}
	defer func() { _ = cat.Close() }()

	savePath := configPath
	if savePath == "" {
		savePath = filepath.Join(cfg.DataDir, "config.json")
	}
	if err := cfg.Save(savePath); err != nil {
		return err
	}

	fmt.Printf("Data directory: %s\n", cfg.DataDir)
	fmt.Printf("Catalog:        %s\n", cfg.CatalogPath)
	fmt.Printf("Config:         %s\n", savePath)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()

	cat, err := catalog.Open(cfg.CatalogPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	entries, err := os.ReadDir(args[0])
	if err != nil {
		return fmt.Errorf("read import directory: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(args[0], entry.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		schemaName, procedureName := splitProcedureFileName(entry.Name())
		if err := cat.Upsert(ctx, schemaName, procedureName, string(data)); err != nil {
			return err
		}
		imported++
	}

	fmt.Printf("Imported %d procedures into %s\n", imported, cfg.CatalogPath)
	return nil
}

// splitProcedureFileName maps "dbo.usp_login.sql" to (dbo, usp_login) and
// "usp_login.sql" to (dbo, usp_login).
func splitProcedureFileName(name string) (string, string) {
	base := strings.TrimSuffix(name, ".sql")
	if schemaName, procedureName, found := strings.Cut(base, "."); found {
		return schemaName, procedureName
	}
	return "dbo", base
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	start := time.Now()

	cat, err := catalog.Open(cfg.CatalogPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	emb, err := embedder.NewFromEnv()
	if err != nil {
		return fmt.Errorf("initialize embedder: %w", err)
	}
	defer func() { _ = emb.Close() }()

	fmt.Printf("Embedding provider: %s (%s)\n", emb.Provider(), emb.Model())

	ix := index.New(emb, logger)
	p := pipeline.New(cat, ix, logger)

	stats, err := p.IndexAll(cmd.Context(), &pipeline.Config{
		UIOnly:  indexUIOnly,
		Workers: indexWorkers,
		SaveDir: cfg.IndexDir(),
	})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Indexing complete!")
	fmt.Printf("  Indexed:  %d\n", stats.Indexed)
	fmt.Printf("  Skipped:  %d\n", stats.Skipped)
	fmt.Printf("  Failed:   %d\n", stats.Failed)
	fmt.Printf("  Saved:    %v\n", stats.Saved)
	fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Millisecond))

	if len(stats.ErrorMessages) > 0 {
		fmt.Println()
		fmt.Println("Problems:")
		for _, msg := range stats.ErrorMessages {
			fmt.Printf("  - %s\n", msg)
		}
	}
	return nil
}

// loadIndex restores the saved index snapshot for read-only commands.
func loadIndex(cfg *config.Config) (embedder.Embedder, *index.Index, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("initialize embedder: %w", err)
	}

	ix := index.New(emb, logger)
	if !ix.Load(cfg.IndexDir()) {
		_ = emb.Close()
		return nil, nil, errors.New("no index snapshot found; run 'tsqlrag index' first")
	}
	return emb, ix, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	emb, ix, err := loadIndex(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	r := retriever.New(ix, logger)
	results, err := r.RetrieveUIComponents(cmd.Context(), args[0], types.ComponentKind(searchComponent), searchK)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No matching procedures.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%d. %s (distance %.4f)\n", i+1, result.ID, result.Distance)
		fmt.Printf("   %s\n", result.Metadata.Summary)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	emb, ix, err := loadIndex(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	r := retriever.New(ix, logger)
	similar, err := r.Retrieve(cmd.Context(), args[0], generateK)
	if err != nil {
		return err
	}

	gen, err := generator.New(cfg.OpenAIAPIKey, logger)
	if err != nil {
		return err
	}

	code, err := gen.GenerateProcedure(cmd.Context(), args[0], similar)
	if err != nil {
		return err
	}

	if generateOutput != "" {
		if err := os.WriteFile(generateOutput, []byte(code+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("Wrote generated procedure to %s\n", generateOutput)
		return nil
	}

	fmt.Println(code)
	return nil
}

func runModify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ctx := cmd.Context()

	schemaName, procedureName, found := strings.Cut(args[0], ".")
	if !found {
		return fmt.Errorf("procedure must be schema-qualified, e.g. dbo.usp_login: %q", args[0])
	}

	cat, err := catalog.Open(cfg.CatalogPath, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	original, err := cat.GetDefinition(ctx, schemaName, procedureName)
	if err != nil {
		return err
	}

	gen, err := generator.New(cfg.OpenAIAPIKey, logger)
	if err != nil {
		return err
	}

	code, err := gen.ModifyProcedure(ctx, original, args[1])
	if err != nil {
		return err
	}

	fmt.Println(code)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	logger.Info("starting MCP server",
		"version", version, "build_mode", catalog.BuildMode, "driver", catalog.DriverName)

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
		return nil
	case err := <-errChan:
		return err
	}
}
