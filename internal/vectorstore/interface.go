package vectorstore

import (
	"context"
	"errors"

	"github.com/halcyonlabs/markd/internal/bookmark"
)

// Sentinel errors for vector store operations.
var (
	// ErrDuplicateExternalID is returned when inserting a record whose
	// external ID is already present. Callers treat this as an idempotency
	// signal, not a failure.
	ErrDuplicateExternalID = errors.New("external id already exists")

	// ErrEmptyContent indicates a record with no content.
	ErrEmptyContent = errors.New("record content is empty")

	// ErrEmptyEmbedding indicates a record with no embedding vector.
	ErrEmptyEmbedding = errors.New("record embedding is empty")

	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnavailable indicates the backing store could not be reached or
	// the operation failed for infrastructure reasons. Safe to retry later.
	ErrUnavailable = errors.New("vector store unavailable")
)

// Store is the interface for bookmark record storage.
//
// Implementations are transport-agnostic: embedded databases, SQL, or a
// remote vector service. The interface covers exactly what the ingestion,
// sync and search engines need.
//
// Uniqueness: Insert must reject a record whose non-empty ExternalID is
// already stored, returning an error that matches ErrDuplicateExternalID
// via errors.Is. Records without an ExternalID are never deduplicated.
type Store interface {
	// Insert persists a record and returns its store-assigned ID.
	//
	// The record's ID field is ignored; implementations assign their own.
	// Content and Embedding must be non-empty.
	Insert(ctx context.Context, rec *bookmark.Record) (string, error)

	// ListExternalIDs returns the set of non-empty external IDs currently
	// stored. Used by the sync engine to compute the delta.
	ListExternalIDs(ctx context.Context) (map[string]struct{}, error)

	// SimilaritySearch returns up to limit records whose cosine similarity
	// to the query embedding is >= threshold, ordered by descending
	// similarity. An empty result is not an error.
	SimilaritySearch(ctx context.Context, embedding []float32, threshold float32, limit int) ([]bookmark.SearchResult, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// validateRecord checks the parts of the Insert contract that are common to
// every implementation.
func validateRecord(rec *bookmark.Record) error {
	if rec == nil || rec.Content == "" {
		return ErrEmptyContent
	}
	if len(rec.Embedding) == 0 {
		return ErrEmptyEmbedding
	}
	return nil
}
