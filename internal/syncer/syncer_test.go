package syncer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
	"github.com/halcyonlabs/markd/internal/syncer"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

// stubSource returns a fixed item list or an error.
type stubSource struct {
	items []bookmark.Item
	err   error
}

func (s *stubSource) ListAll(ctx context.Context) ([]bookmark.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

// recordingIngester writes straight to the store with a canned embedding,
// optionally failing for selected external IDs.
type recordingIngester struct {
	store   vectorstore.Store
	failIDs map[string]bool

	mu       sync.Mutex
	ingested []string
}

func (r *recordingIngester) Ingest(ctx context.Context, content, externalID string) (*bookmark.Record, error) {
	if r.failIDs[externalID] {
		return nil, errors.New("embedding provider down")
	}

	rec := &bookmark.Record{ExternalID: externalID, Content: content, Embedding: []float32{1, 0}}
	id, err := r.store.Insert(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	r.mu.Lock()
	r.ingested = append(r.ingested, externalID)
	r.mu.Unlock()
	return rec, nil
}

func items(ids ...string) []bookmark.Item {
	out := make([]bookmark.Item, len(ids))
	for i, id := range ids {
		out[i] = bookmark.Item{ExternalID: id, Text: "text for " + id}
	}
	return out
}

func newEngine(t *testing.T, source syncer.Source, store vectorstore.Store, ing syncer.Ingester) *syncer.Engine {
	t.Helper()
	engine, err := syncer.NewEngine(source, store, ing, 2, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func TestEngine_Sync_IngestsOnlyMissing(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()

	// "a" is already stored from a previous run.
	_, err := store.Insert(ctx, &bookmark.Record{ExternalID: "a", Content: "old", Embedding: []float32{1}})
	require.NoError(t, err)

	ing := &recordingIngester{store: store}
	engine := newEngine(t, &stubSource{items: items("a", "b", "c")}, store, ing)

	result, err := engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Empty(t, result.Failures)
	assert.ElementsMatch(t, []string{"b", "c"}, ing.ingested)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestEngine_Sync_NothingToDo(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := store.Insert(ctx, &bookmark.Record{ExternalID: id, Content: id, Embedding: []float32{1}})
		require.NoError(t, err)
	}

	ing := &recordingIngester{store: store}
	engine := newEngine(t, &stubSource{items: items("a", "b")}, store, ing)

	result, err := engine.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	assert.Empty(t, ing.ingested)
}

func TestEngine_Sync_Idempotent(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()

	ing := &recordingIngester{store: store}
	engine := newEngine(t, &stubSource{items: items("a", "b")}, store, ing)

	result, err := engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)

	result, err = engine.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Added, "second run over the same source must add nothing")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEngine_Sync_SourceFailureAbortsBeforeWrites(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ing := &recordingIngester{store: store}
	engine := newEngine(t, &stubSource{err: errors.New("source down")}, store, ing)

	_, err := engine.Sync(context.Background())
	require.Error(t, err)
	assert.Empty(t, ing.ingested)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngine_Sync_PartialFailureKeepsSuccesses(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()

	ing := &recordingIngester{store: store, failIDs: map[string]bool{"b": true}}
	engine := newEngine(t, &stubSource{items: items("a", "b", "c")}, store, ing)

	result, err := engine.Sync(ctx)
	require.NoError(t, err, "per-item failures must not fail the run")
	assert.Equal(t, 2, result.Added)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "b", result.Failures[0].ExternalID)
	assert.Error(t, result.Failures[0].Err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEngine_Sync_FailedItemRetriedNextRun(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()

	ing := &recordingIngester{store: store, failIDs: map[string]bool{"b": true}}
	engine := newEngine(t, &stubSource{items: items("a", "b")}, store, ing)

	result, err := engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	require.Len(t, result.Failures, 1)

	// The provider recovers; the next run picks up only the missing item.
	ing.failIDs = nil
	result, err = engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Empty(t, result.Failures)

	ids, err := store.ListExternalIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, ids)
}

func TestEngine_Sync_DuplicateRaceIsBenign(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ctx := context.Background()

	// The source reports the same item twice; both copies land in the
	// delta and race to insert. One wins, the other hits the store's
	// uniqueness check.
	ing := &recordingIngester{store: store}
	engine := newEngine(t, &stubSource{items: append(items("a"), items("a")...)}, store, ing)

	result, err := engine.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Empty(t, result.Failures, "duplicate insert is idempotency, not failure")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEngine_Sync_SkipsItemsWithoutExternalID(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	ing := &recordingIngester{store: store}
	engine := newEngine(t, &stubSource{items: []bookmark.Item{
		{ExternalID: "", Text: "malformed"},
		{ExternalID: "a", Text: "fine"},
	}}, store, ing)

	result, err := engine.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, []string{"a"}, ing.ingested)
}
