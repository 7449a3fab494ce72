package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonlabs/markd/internal/bookmark"
)

// MemoryStore is an in-process Store implementation.
//
// It backs tests for the engines that depend on the Store contract and
// doubles as a throwaway provider for local experiments. Nothing is
// persisted across restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records []bookmark.Record
	extIDs  map[string]string // external ID -> record ID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		extIDs: make(map[string]string),
	}
}

// Insert persists a record in memory and returns its assigned ID.
func (s *MemoryStore) Insert(ctx context.Context, rec *bookmark.Record) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ExternalID != "" {
		if _, ok := s.extIDs[rec.ExternalID]; ok {
			return "", fmt.Errorf("%w: %s", ErrDuplicateExternalID, rec.ExternalID)
		}
	}

	stored := bookmark.Record{
		ID:         uuid.New().String(),
		ExternalID: rec.ExternalID,
		Content:    rec.Content,
		Embedding:  append([]float32(nil), rec.Embedding...),
		CreatedAt:  time.Now().UTC(),
	}
	s.records = append(s.records, stored)
	if stored.ExternalID != "" {
		s.extIDs[stored.ExternalID] = stored.ID
	}

	return stored.ID, nil
}

// ListExternalIDs returns the set of non-empty external IDs stored.
func (s *MemoryStore) ListExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(s.extIDs))
	for id := range s.extIDs {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// SimilaritySearch scores every record against the query embedding and
// returns the top matches at or above the threshold.
func (s *MemoryStore) SimilaritySearch(ctx context.Context, embedding []float32, threshold float32, limit int) ([]bookmark.SearchResult, error) {
	if limit <= 0 {
		return []bookmark.SearchResult{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]bookmark.SearchResult, 0, len(s.records))
	for i := range s.records {
		sim := cosineSimilarity(embedding, s.records[i].Embedding)
		if sim >= threshold {
			results = append(results, bookmark.SearchResult{
				Content:    s.records[i].Content,
				Similarity: sim,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
