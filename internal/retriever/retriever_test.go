package retriever

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhodelta66/rag-tsql-agent/internal/analyzer"
	"github.com/rhodelta66/rag-tsql-agent/internal/embedder"
	"github.com/rhodelta66/rag-tsql-agent/internal/index"
	"github.com/rhodelta66/rag-tsql-agent/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// indexProcedure runs the definition through the analyzer so metadata-based
// filters see what production sees.
func indexProcedure(t *testing.T, ix *index.Index, id, definition string) {
	t.Helper()
	meta := analyzer.New().Analyze(definition)
	require.NoError(t, ix.Add(context.Background(), id, id, definition, meta))
}

func setupRetriever(t *testing.T) (*Retriever, *index.Index) {
	t.Helper()
	emb, err := embedder.NewLocalProvider(nil)
	require.NoError(t, err)
	ix := index.New(emb, testLogger())
	return New(ix, testLogger()), ix
}

func TestRetrieveDelegatesToSearch(t *testing.T) {
	r, ix := setupRetriever(t)
	indexProcedure(t, ix, "dbo.usp_login", "EXEC sp_api_modal_text @text = N'Sign in'")
	indexProcedure(t, ix, "dbo.usp_notify", "EXEC sp_api_toast @text = N'Saved'")

	results, err := r.Retrieve(context.Background(), "EXEC sp_api_toast @text = N'Saved'", 5)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "dbo.usp_notify", results[0].ID)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	r, _ := setupRetriever(t)

	results, err := r.Retrieve(context.Background(), "anything", 3)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveWithFilterNeverExceedsK(t *testing.T) {
	r, ix := setupRetriever(t)
	for i := 0; i < 8; i++ {
		indexProcedure(t, ix, fmt.Sprintf("dbo.usp_toast_%d", i),
			fmt.Sprintf("EXEC sp_api_toast @text = N'message %d'", i))
	}

	accept := func(types.RetrievalResult) bool { return true }
	results, err := r.RetrieveWithFilter(context.Background(), "toast", accept, 3)

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRetrieveWithFilterUnderFills(t *testing.T) {
	r, ix := setupRetriever(t)
	// Ten entries, k=4: the candidate pool holds 8, and a predicate that
	// rejects most of it legitimately returns fewer than k.
	for i := 0; i < 10; i++ {
		definition := fmt.Sprintf("EXEC sp_api_modal_text @text = N'screen %d'", i)
		if i == 9 {
			definition = "EXEC sp_api_toast @text = N'only toast'"
		}
		indexProcedure(t, ix, fmt.Sprintf("dbo.usp_%d", i), definition)
	}

	hasToast := func(result types.RetrievalResult) bool {
		return result.Metadata.UIComponents.CountByKind(types.KindToast) > 0
	}
	results, err := r.RetrieveWithFilter(context.Background(), "modal screen", hasToast, 4)

	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 1,
		"at most the single toast procedure can survive the filter")
}

func TestRetrieveUIComponents(t *testing.T) {
	r, ix := setupRetriever(t)
	indexProcedure(t, ix, "dbo.usp_with_toast",
		"EXEC sp_api_toast @text = N'Saved', @seconds = 5")
	indexProcedure(t, ix, "dbo.usp_without_toast",
		"EXEC sp_api_modal_text @text = N'Settings'")

	results, err := r.RetrieveUIComponents(context.Background(), "notification", types.KindToast, 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "dbo.usp_with_toast", results[0].ID)
}

func TestRetrieveUIComponentsEmptyKind(t *testing.T) {
	r, ix := setupRetriever(t)
	indexProcedure(t, ix, "dbo.usp_login", "EXEC sp_api_modal_text @text = N'Sign in'")

	results, err := r.RetrieveUIComponents(context.Background(), "login", "", 5)

	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRetrieveUIComponentsUnknownKind(t *testing.T) {
	r, _ := setupRetriever(t)

	_, err := r.RetrieveUIComponents(context.Background(), "login", "sidebar", 5)

	assert.ErrorIs(t, err, types.ErrUnknownComponent)
}
