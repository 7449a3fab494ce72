package vectorstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

func newTestSQLiteStore(t *testing.T) *vectorstore.SQLiteStore {
	t.Helper()

	store, err := vectorstore.NewSQLiteStore(vectorstore.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "bookmarks.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_InsertAndCount(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, &bookmark.Record{
		Content:   "an article about B-trees",
		Embedding: []float32{0.1, 0.2, 0.3},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_Insert_DuplicateExternalID(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, &bookmark.Record{
		ExternalID: "tweet-42",
		Content:    "first",
		Embedding:  []float32{1, 0},
	})
	require.NoError(t, err)

	_, err = store.Insert(ctx, &bookmark.Record{
		ExternalID: "tweet-42",
		Content:    "second",
		Embedding:  []float32{0, 1},
	})
	assert.ErrorIs(t, err, vectorstore.ErrDuplicateExternalID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_Insert_MultipleWithoutExternalID(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Insert(ctx, &bookmark.Record{
			Content:   "manual bookmark",
			Embedding: []float32{1, 0},
		})
		require.NoError(t, err)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteStore_Insert_Validation(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, &bookmark.Record{Embedding: []float32{1}})
	assert.ErrorIs(t, err, vectorstore.ErrEmptyContent)

	_, err = store.Insert(ctx, &bookmark.Record{Content: "no vector"})
	assert.ErrorIs(t, err, vectorstore.ErrEmptyEmbedding)
}

func TestSQLiteStore_ListExternalIDs(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, &bookmark.Record{ExternalID: "a", Content: "a", Embedding: []float32{1}})
	require.NoError(t, err)
	_, err = store.Insert(ctx, &bookmark.Record{Content: "manual", Embedding: []float32{1}})
	require.NoError(t, err)
	_, err = store.Insert(ctx, &bookmark.Record{ExternalID: "b", Content: "b", Embedding: []float32{1}})
	require.NoError(t, err)

	ids, err := store.ListExternalIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, ids)
}

func TestSQLiteStore_SimilaritySearch(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	docs := []struct {
		content   string
		embedding []float32
	}{
		{"exact match", []float32{1, 0, 0}},
		{"close match", []float32{0.9, 0.1, 0}},
		{"orthogonal", []float32{0, 1, 0}},
	}
	for _, d := range docs {
		_, err := store.Insert(ctx, &bookmark.Record{Content: d.content, Embedding: d.embedding})
		require.NoError(t, err)
	}

	results, err := store.SimilaritySearch(ctx, []float32{1, 0, 0}, 0.3, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact match", results[0].Content)
	assert.Equal(t, "close match", results[1].Content)

	results, err = store.SimilaritySearch(ctx, []float32{1, 0, 0}, 0.3, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "exact match", results[0].Content)
}

func TestSQLiteStore_SimilaritySearch_Empty(t *testing.T) {
	store := newTestSQLiteStore(t)

	results, err := store.SimilaritySearch(context.Background(), []float32{1, 0}, 0.3, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bookmarks.db")

	store, err := vectorstore.NewSQLiteStore(vectorstore.SQLiteConfig{Path: path}, zap.NewNop())
	require.NoError(t, err)
	_, err = store.Insert(ctx, &bookmark.Record{ExternalID: "x", Content: "persisted", Embedding: []float32{1, 0}})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := vectorstore.NewSQLiteStore(vectorstore.SQLiteConfig{Path: path}, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	ids, err := reopened.ListExternalIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, "x")
}
