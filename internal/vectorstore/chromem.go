package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("markd.vectorstore.chromem")

// externalIDIndexFile is the sidecar file tracking external IDs. chromem
// has no document enumeration API, so the store keeps its own index and
// persists it next to the database.
const externalIDIndexFile = "external_ids.json"

// ChromemConfig holds configuration for the chromem-go embedded store.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "~/.config/markd/vectorstore"
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection name.
	// Default: "bookmarks"
	Collection string
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.config/markd/vectorstore"
	}
	if c.Collection == "" {
		c.Collection = "bookmarks"
	}
}

// ChromemStore implements Store using chromem-go.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies: pure Go, no external service, persistence to gob files.
// All records are inserted with precomputed embeddings; the store never
// asks chromem to embed anything itself.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
	logger     *zap.Logger
	path       string

	mu     sync.Mutex
	extIDs map[string]string // external ID -> record ID
}

// NewChromemStore creates a ChromemStore rooted at config.Path.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()

	path, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}

	db, err := chromem.NewPersistentDB(path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	// Embeddings are always supplied by the caller; this func exists only
	// to satisfy chromem's API and fails loudly if ever reached.
	noEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("chromem store does not embed; records carry embeddings")
	}

	collection, err := db.GetOrCreateCollection(config.Collection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}

	store := &ChromemStore{
		db:         db,
		collection: collection,
		config:     config,
		logger:     logger,
		path:       path,
		extIDs:     make(map[string]string),
	}

	if err := store.loadExternalIDs(); err != nil {
		return nil, fmt.Errorf("loading external id index: %w", err)
	}

	logger.Info("ChromemStore initialized",
		zap.String("path", path),
		zap.Bool("compress", config.Compress),
		zap.String("collection", config.Collection),
		zap.Int("external_ids", len(store.extIDs)),
	)

	return store, nil
}

// loadExternalIDs reads the sidecar index. A missing file means an empty store.
func (s *ChromemStore) loadExternalIDs() error {
	data, err := os.ReadFile(filepath.Join(s.path, externalIDIndexFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &s.extIDs)
}

// saveExternalIDs persists the sidecar index. Callers hold s.mu.
func (s *ChromemStore) saveExternalIDs() error {
	data, err := json.Marshal(s.extIDs)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.path, externalIDIndexFile), data, 0o644)
}

// Insert persists a record and returns its assigned ID.
func (s *ChromemStore) Insert(ctx context.Context, rec *bookmark.Record) (string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Insert")
	defer span.End()

	if err := validateRecord(rec); err != nil {
		span.RecordError(err)
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ExternalID != "" {
		if _, ok := s.extIDs[rec.ExternalID]; ok {
			return "", fmt.Errorf("%w: %s", ErrDuplicateExternalID, rec.ExternalID)
		}
	}

	id := uuid.New().String()
	doc := chromem.Document{
		ID:      id,
		Content: rec.Content,
		Metadata: map[string]string{
			"external_id": rec.ExternalID,
			"created_at":  time.Now().UTC().Format(time.RFC3339Nano),
		},
		Embedding: rec.Embedding,
	}

	// Concurrency of 1: the embedding is already computed.
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%w: adding document: %v", ErrUnavailable, err)
	}

	if rec.ExternalID != "" {
		s.extIDs[rec.ExternalID] = id
		if err := s.saveExternalIDs(); err != nil {
			// The document is stored but the index entry was lost, so the
			// next sync will not see this external ID and can re-ingest the
			// item as a second document. Accepted crash-window trade-off on
			// this backend; the in-memory index still guards this process.
			s.logger.Error("failed to persist external id index", zap.Error(err))
		}
	}

	span.SetAttributes(attribute.String("record_id", id))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("inserted bookmark",
		zap.String("id", id),
		zap.String("external_id", rec.ExternalID),
	)
	return id, nil
}

// ListExternalIDs returns the set of non-empty external IDs stored.
func (s *ChromemStore) ListExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{}, len(s.extIDs))
	for id := range s.extIDs {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// SimilaritySearch queries the collection with the given embedding and
// filters the results by threshold.
func (s *ChromemStore) SimilaritySearch(ctx context.Context, embedding []float32, threshold float32, limit int) ([]bookmark.SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.SimilaritySearch")
	defer span.End()

	if limit <= 0 {
		return []bookmark.SearchResult{}, nil
	}

	// chromem requires nResults <= document count.
	docCount := s.collection.Count()
	if docCount == 0 {
		return []bookmark.SearchResult{}, nil
	}
	n := limit
	if n > docCount {
		n = docCount
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: querying collection: %v", ErrUnavailable, err)
	}

	searchResults := make([]bookmark.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			searchResults = append(searchResults, bookmark.SearchResult{
				Content:    r.Content,
				Similarity: r.Similarity,
			})
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")
	return searchResults, nil
}

// Count returns the number of stored records.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Close is a no-op; chromem persists on every write.
func (s *ChromemStore) Close() error {
	return nil
}
