// Package pipeline coordinates bulk indexing: catalog -> analyzer -> index.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rhodelta66/rag-tsql-agent/internal/analyzer"
	"github.com/rhodelta66/rag-tsql-agent/internal/catalog"
	"github.com/rhodelta66/rag-tsql-agent/internal/index"
	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

// Config contains configuration for an indexing pass.
type Config struct {
	UIOnly  bool   // Only index UI-related procedures (default in the CLI)
	Workers int    // Concurrent catalog readers (default: runtime.NumCPU())
	SaveDir string // Snapshot directory written after the pass; empty skips saving
}

// Statistics describes the outcome of one indexing pass.
type Statistics struct {
	Indexed       int
	Skipped       int
	Failed        int
	Saved         bool
	Duration      time.Duration
	ErrorMessages []string
}

// Pipeline runs bulk indexing passes. Definition fetch and analysis fan out
// across workers, but index mutation stays on the calling goroutine — the
// index has no internal locking.
type Pipeline struct {
	catalog  *catalog.Catalog
	analyzer *analyzer.Analyzer
	index    *index.Index
	log      *slog.Logger
}

// New creates a pipeline over the given catalog and index.
func New(cat *catalog.Catalog, ix *index.Index, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		catalog:  cat,
		analyzer: analyzer.New(),
		index:    ix,
		log:      logger,
	}
}

// analyzed is one procedure ready for the index.
type analyzed struct {
	id         string
	name       string
	definition string
	metadata   types.Metadata
}

// IndexAll fetches, analyzes, and indexes every catalog procedure. A single
// failing procedure is logged and skipped; the pass continues. The returned
// error covers only structural failures (catalog unavailable, context
// cancelled), not per-procedure ones.
func (p *Pipeline) IndexAll(ctx context.Context, cfg *Config) (*Statistics, error) {
	if cfg == nil {
		cfg = &Config{UIOnly: true}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	stats := &Statistics{ErrorMessages: []string{}}

	procedures, err := p.catalog.List(ctx, cfg.UIOnly)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	if len(procedures) == 0 {
		p.log.Warn("no procedures found in catalog", "ui_only", cfg.UIOnly)
		stats.Duration = time.Since(start)
		return stats, nil
	}

	p.log.Info("indexing procedures", "count", len(procedures), "workers", workers)

	out := make(chan analyzed, len(procedures))
	skipped := make(chan string, len(procedures))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, info := range procedures {
		g.Go(func() error {
			definition, err := p.catalog.GetDefinition(gctx, info.Schema, info.Name)
			if err != nil {
				p.log.Warn("no definition found, skipping",
					"procedure", info.QualifiedName(), "error", err)
				skipped <- fmt.Sprintf("%s: %v", info.QualifiedName(), err)
				return nil
			}
			out <- analyzed{
				id:         info.QualifiedName(),
				name:       info.Name,
				definition: definition,
				metadata:   p.analyzer.Analyze(definition),
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
		close(skipped)
	}()

	// Single consumer: the index is mutated from this goroutine only.
	for item := range out {
		if err := p.index.Add(ctx, item.id, item.name, item.definition, item.metadata); err != nil {
			p.log.Warn("failed to index procedure, skipping", "procedure", item.id, "error", err)
			stats.Failed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", item.id, err))
			continue
		}
		stats.Indexed++
	}
	for msg := range skipped {
		stats.Skipped++
		stats.ErrorMessages = append(stats.ErrorMessages, msg)
	}

	if err := ctx.Err(); err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}

	if cfg.SaveDir != "" && stats.Indexed > 0 {
		stats.Saved = p.index.Save(cfg.SaveDir)
	}

	stats.Duration = time.Since(start)
	p.log.Info("indexing pass complete",
		"indexed", stats.Indexed, "skipped", stats.Skipped, "failed", stats.Failed,
		"duration", stats.Duration)
	return stats, nil
}
