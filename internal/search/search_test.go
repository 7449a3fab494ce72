package search_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
	"github.com/halcyonlabs/markd/internal/search"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

// axisEmbedder maps known texts onto fixed vectors so similarity is
// controlled by the test, not by an embedding model.
type axisEmbedder struct {
	vectors map[string][]float32
}

func (e *axisEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (e *axisEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *axisEmbedder) Dimension() int { return 3 }
func (e *axisEmbedder) Close() error   { return nil }

func newTestEngine(t *testing.T) (*search.Engine, *vectorstore.MemoryStore) {
	t.Helper()

	store := vectorstore.NewMemoryStore()
	embedder := &axisEmbedder{vectors: map[string][]float32{
		"databases": {1, 0, 0},
		"cooking":   {0, 1, 0},
		"nearby":    {0.95, 0.05, 0},
	}}

	seed := []struct {
		content   string
		embedding []float32
	}{
		{"postgres internals", []float32{1, 0, 0}},
		{"sqlite write-ahead log", []float32{0.9, 0.1, 0}},
		{"sourdough starter guide", []float32{0, 1, 0}},
	}
	ctx := context.Background()
	for _, s := range seed {
		_, err := store.Insert(ctx, &bookmark.Record{Content: s.content, Embedding: s.embedding})
		require.NoError(t, err)
	}

	engine, err := search.NewEngine(store, embedder, zap.NewNop())
	require.NoError(t, err)
	return engine, store
}

func TestEngine_Search(t *testing.T) {
	engine, _ := newTestEngine(t)

	results, err := engine.Search(context.Background(), "databases", 0.3, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "postgres internals", results[0].Content)
	assert.Equal(t, "sqlite write-ahead log", results[1].Content)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestEngine_Search_EmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Search(context.Background(), "", 0.3, 10)
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
}

func TestEngine_Search_ThresholdFiltersUnrelated(t *testing.T) {
	engine, _ := newTestEngine(t)

	results, err := engine.Search(context.Background(), "cooking", 0.5, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sourdough starter guide", results[0].Content)
}

func TestEngine_Search_LimitCapsResults(t *testing.T) {
	engine, _ := newTestEngine(t)

	results, err := engine.Search(context.Background(), "databases", 0, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "postgres internals", results[0].Content)
}

func TestEngine_Search_NoMatches(t *testing.T) {
	engine, _ := newTestEngine(t)

	results, err := engine.Search(context.Background(), "cooking", 0.99, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = engine.Search(context.Background(), "nearby", 0.999, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_Search_EmbedderError(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	embedder := &axisEmbedder{vectors: map[string][]float32{}}

	engine, err := search.NewEngine(store, embedder, zap.NewNop())
	require.NoError(t, err)

	_, err = engine.Search(context.Background(), "unknown text", 0.3, 10)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, search.ErrEmptyQuery))
}
