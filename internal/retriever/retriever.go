// Package retriever shapes queries against the embedding index: plain
// top-k retrieval, predicate-filtered retrieval, and a UI-component
// convenience filter.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhodelta66/rag-tsql-agent/internal/index"
	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

// DefaultK is used when a caller passes a non-positive result count.
const DefaultK = 5

// Retriever wraps one embedding index. It holds no state of its own beyond
// the non-owning index reference and must not outlive it.
type Retriever struct {
	index *index.Index
	log   *slog.Logger
}

// New creates a retriever over the given index.
func New(ix *index.Index, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{index: ix, log: logger}
}

// Retrieve returns the k procedures most similar to the query.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]types.RetrievalResult, error) {
	if k <= 0 {
		k = DefaultK
	}

	results, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	r.log.Info("retrieved procedures", "query", query, "count", len(results))
	return results, nil
}

// RetrieveWithFilter fetches 2k candidates, applies the predicate, and
// truncates to the first k survivors in search order. This is a bounded
// over-fetch, not exhaustive filtering: when the predicate rejects more than
// half the candidate pool, fewer than k results come back even though more
// matches may exist deeper in the index.
func (r *Retriever) RetrieveWithFilter(ctx context.Context, query string, filter types.FilterFunc, k int) ([]types.RetrievalResult, error) {
	if k <= 0 {
		k = DefaultK
	}

	candidates, err := r.index.Search(ctx, query, k*2)
	if err != nil {
		return nil, fmt.Errorf("retrieve with filter: %w", err)
	}

	filtered := []types.RetrievalResult{}
	for _, candidate := range candidates {
		if filter(candidate) {
			filtered = append(filtered, candidate)
			if len(filtered) == k {
				break
			}
		}
	}

	r.log.Info("retrieved procedures after filtering",
		"query", query, "candidates", len(candidates), "count", len(filtered))
	return filtered, nil
}

// RetrieveUIComponents returns procedures whose metadata carries at least
// one component of the given kind. An empty kind falls back to plain
// retrieval.
func (r *Retriever) RetrieveUIComponents(ctx context.Context, query string, kind types.ComponentKind, k int) ([]types.RetrievalResult, error) {
	if kind == "" {
		return r.Retrieve(ctx, query, k)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownComponent, kind)
	}

	return r.RetrieveWithFilter(ctx, query, func(result types.RetrievalResult) bool {
		return result.Metadata.UIComponents.CountByKind(kind) > 0
	}, k)
}
