// Package index provides the in-memory embedding index over stored
// procedure records: add, brute-force nearest-neighbor search, and
// save/load persistence.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/rhodelta66/rag-tsql-agent/internal/embedder"
	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

var (
	// ErrDimensionMismatch is returned when a vector of the wrong dimension
	// would enter the index. The dimension is pinned at construction.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// entry pairs one normalized embedding with its procedure record. Keeping
// the pair in a single slice makes positional alignment structural instead
// of an invariant to maintain across two collections.
type entry struct {
	vector []float32
	record types.Procedure
}

// Index is an append-only embedding index. It owns its entries exclusively;
// Add, Search, Save, and Load are not safe for concurrent use and callers
// must serialize mutating access.
type Index struct {
	embedder embedder.Embedder
	dim      int
	entries  []entry
	log      *slog.Logger
}

// New creates an empty index bound to the given embedder. The embedder's
// dimension becomes the index dimension for the index's lifetime.
func New(emb embedder.Embedder, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		embedder: emb,
		dim:      emb.Dimension(),
		log:      logger,
	}
}

// Len returns the number of stored entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Dimension returns the fixed embedding dimension.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Add embeds text, normalizes the vector, and appends the record. ID
// uniqueness is not enforced; a duplicate id is retrievable but not
// distinguishable from the first by identifier alone.
func (ix *Index) Add(ctx context.Context, id, name, text string, metadata types.Metadata) error {
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed procedure %s: %w", id, err)
	}
	if len(vec) != ix.dim {
		return fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(vec), ix.dim)
	}

	ix.entries = append(ix.entries, entry{
		vector: normalize(vec),
		record: types.Procedure{
			ID:       id,
			Name:     name,
			Text:     text,
			Metadata: metadata,
		},
	})

	ix.log.Debug("added procedure to index", "id", id, "name", name, "entries", len(ix.entries))
	return nil
}

// Search embeds the query and returns the min(k, n) closest entries ordered
// by non-decreasing squared L2 distance over unit vectors. An empty index
// yields an empty result, not an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]types.RetrievalResult, error) {
	if len(ix.entries) == 0 {
		ix.log.Warn("search on empty index", "query", query)
		return []types.RetrievalResult{}, nil
	}

	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(vec), ix.dim)
	}
	qvec := normalize(vec)

	type candidate struct {
		pos      int
		distance float64
	}
	candidates := make([]candidate, len(ix.entries))
	for i := range ix.entries {
		candidates[i] = candidate{pos: i, distance: squaredL2(qvec, ix.entries[i].vector)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	if k < 0 {
		k = 0
	}

	results := make([]types.RetrievalResult, k)
	for i := 0; i < k; i++ {
		results[i] = types.RetrievalResult{
			Procedure: ix.entries[candidates[i].pos].record,
			Distance:  candidates[i].distance,
		}
	}
	return results, nil
}

// normalize returns v scaled to unit L2 length. A zero vector is returned
// unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, val := range v {
		out[i] = val / norm
	}
	return out
}

// squaredL2 computes the squared Euclidean distance between two vectors of
// equal length. Over unit vectors this orders results identically to cosine
// similarity.
func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
