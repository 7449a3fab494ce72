// Package bookmark defines the core domain types shared across markd.
package bookmark

import "time"

// Record is the durable unit of storage: a piece of bookmarked text plus
// its embedding vector.
type Record struct {
	// ID is the store-assigned unique identifier, immutable after creation.
	ID string

	// ExternalID is the identifier assigned by the bookmark source.
	// Present for synced items, empty for directly submitted ones.
	// Non-empty ExternalIDs are unique across the store and act as the
	// dedup key during sync.
	ExternalID string

	// Content is the bookmarked text. Never empty, immutable.
	Content string

	// Embedding is the fixed-dimension vector derived from Content at
	// ingestion time. Immutable.
	Embedding []float32

	// CreatedAt is when the record was persisted.
	CreatedAt time.Time
}

// Item is a bookmark as reported by the external source, before ingestion.
type Item struct {
	// ExternalID is the source-side identifier for the bookmark.
	ExternalID string

	// Text is the bookmark content.
	Text string
}

// SearchResult is a single hit from a similarity search. It is ephemeral
// and never persisted.
type SearchResult struct {
	// Content is copied from the matching Record.
	Content string `json:"content"`

	// Similarity is the cosine similarity between the query embedding and
	// the record embedding. Higher means more semantically related.
	Similarity float32 `json:"similarity"`
}
