// Package ingest turns raw bookmark content into stored, embedded records.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
	"github.com/halcyonlabs/markd/internal/embeddings"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

// ErrEmptyContent indicates an ingest request with no content. Caller
// error; never retried.
var ErrEmptyContent = errors.New("content is required")

// Service ingests bookmark content: embed once, write once.
//
// Failure ordering guarantees no partial records: if embedding fails
// nothing is written, and a duplicate external ID is rejected by the store
// before anything is overwritten.
type Service struct {
	store    vectorstore.Store
	embedder embeddings.Provider
	logger   *zap.Logger
}

// NewService creates an ingestion service.
func NewService(store vectorstore.Store, embedder embeddings.Provider, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embedder: embedder, logger: logger}, nil
}

// Ingest embeds content and persists it as a new record. externalID may be
// empty for directly submitted bookmarks; when set it must be unique, and a
// collision returns vectorstore.ErrDuplicateExternalID.
//
// Exactly one embedding call and one store write happen per successful
// ingest; zero writes happen on any failure path.
func (s *Service) Ingest(ctx context.Context, content, externalID string) (*bookmark.Record, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	embedding, err := s.embedder.EmbedQuery(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("embedding content: %w", err)
	}

	rec := &bookmark.Record{
		ExternalID: externalID,
		Content:    content,
		Embedding:  embedding,
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("storing record: %w", err)
	}
	rec.ID = id

	s.logger.Info("ingested bookmark",
		zap.String("id", id),
		zap.String("external_id", externalID),
		zap.Int("content_length", len(content)),
	)
	return rec, nil
}
