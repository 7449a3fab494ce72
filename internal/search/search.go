// Package search turns free-text queries into ranked similarity results.
package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
	"github.com/halcyonlabs/markd/internal/embeddings"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

// ErrEmptyQuery indicates a search request with no query. Caller error;
// never retried.
var ErrEmptyQuery = errors.New("query is required")

// Engine embeds a query and runs a thresholded nearest-neighbor lookup.
// Read-only; no stored state is touched.
type Engine struct {
	store    vectorstore.Store
	embedder embeddings.Provider
	logger   *zap.Logger
}

// NewEngine creates a search engine.
func NewEngine(store vectorstore.Store, embedder embeddings.Provider, logger *zap.Logger) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, embedder: embedder, logger: logger}, nil
}

// Search returns up to limit records whose similarity to the query is at
// least threshold, ordered by descending similarity. No matches is an
// empty slice, not an error.
func (e *Engine) Search(ctx context.Context, query string, threshold float32, limit int) ([]bookmark.SearchResult, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := e.store.SimilaritySearch(ctx, embedding, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("searching store: %w", err)
	}

	e.logger.Debug("search completed",
		zap.Int("query_length", len(query)),
		zap.Float32("threshold", threshold),
		zap.Int("limit", limit),
		zap.Int("results", len(results)),
	)
	return results, nil
}
