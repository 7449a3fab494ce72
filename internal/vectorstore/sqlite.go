package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/halcyonlabs/markd/internal/bookmark"
)

// sqliteTracer for OpenTelemetry instrumentation.
var sqliteTracer = otel.Tracer("markd.vectorstore.sqlite")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bookmarks (
    id          TEXT PRIMARY KEY,
    external_id TEXT NOT NULL DEFAULT '',
    content     TEXT NOT NULL,
    embedding   BLOB NOT NULL,
    created_at  TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_bookmarks_external_id
    ON bookmarks(external_id) WHERE external_id <> '';
`

// SQLiteConfig holds configuration for the SQLite-backed store.
type SQLiteConfig struct {
	// Path is the database file location.
	// Default: "~/.config/markd/bookmarks.db"
	Path string
}

// ApplyDefaults sets default values for unset fields.
func (c *SQLiteConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.config/markd/bookmarks.db"
	}
}

// SQLiteStore implements Store on an embedded SQLite database.
//
// Records live in a single bookmarks table with the embedding serialized as
// a float32 blob. A partial UNIQUE index on external_id enforces the dedup
// invariant at the storage layer; Insert additionally checks it up front so
// the duplicate path does not depend on driver error text.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at config.Path and
// ensures the schema exists.
func NewSQLiteStore(config SQLiteConfig, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()

	path, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", filepath.Dir(path), err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	logger.Info("SQLiteStore initialized", zap.String("path", path))

	return &SQLiteStore{db: db, logger: logger}, nil
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Insert persists a record and returns its assigned ID.
func (s *SQLiteStore) Insert(ctx context.Context, rec *bookmark.Record) (string, error) {
	ctx, span := sqliteTracer.Start(ctx, "SQLiteStore.Insert")
	defer span.End()

	if err := validateRecord(rec); err != nil {
		span.RecordError(err)
		return "", err
	}

	if rec.ExternalID != "" {
		var exists bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM bookmarks WHERE external_id = ?)`, rec.ExternalID,
		).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("%w: checking external id: %v", ErrUnavailable, err)
		}
		if exists {
			return "", fmt.Errorf("%w: %s", ErrDuplicateExternalID, rec.ExternalID)
		}
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, external_id, content, embedding, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, rec.ExternalID, rec.Content, encodeEmbedding(rec.Embedding), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		// Concurrent inserts can still race past the check above; the
		// unique index is authoritative.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", fmt.Errorf("%w: %s", ErrDuplicateExternalID, rec.ExternalID)
		}
		return "", fmt.Errorf("%w: inserting record: %v", ErrUnavailable, err)
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
func (s *SQLiteStore) ListExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	ctx, span := sqliteTracer.Start(ctx, "SQLiteStore.ListExternalIDs")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT external_id FROM bookmarks WHERE external_id <> ''`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: listing external ids: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: scanning external id: %v", ErrUnavailable, err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: listing external ids: %v", ErrUnavailable, err)
	}

	span.SetAttributes(attribute.Int("external_id_count", len(ids)))
	return ids, nil
}

// SimilaritySearch scans all records, scores them against the query
// embedding and returns the top matches at or above the threshold.
//
// This is a full table scan, the same shape as a pgvector match function
// without an index. Fine for personal bookmark volumes; use the qdrant
// provider beyond that.
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, embedding []float32, threshold float32, limit int) ([]bookmark.SearchResult, error) {
	ctx, span := sqliteTracer.Start(ctx, "SQLiteStore.SimilaritySearch")
	defer span.End()

	if limit <= 0 {
		return []bookmark.SearchResult{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT content, embedding FROM bookmarks`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: querying records: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	results := make([]bookmark.SearchResult, 0, limit)
	for rows.Next() {
		var content string
		var blob []byte
		if err := rows.Scan(&content, &blob); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: scanning record: %v", ErrUnavailable, err)
		}
		vec, err := decodeEmbedding(blob)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("decoding embedding: %w", err)
		}
		sim := cosineSimilarity(embedding, vec)
		if sim >= threshold {
			results = append(results, bookmark.SearchResult{Content: content, Similarity: sim})
		}
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: scanning records: %v", ErrUnavailable, err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}

	span.SetAttributes(attribute.Int("results_count", len(results)))
	span.SetStatus(codes.Ok, "success")
	return results, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting records: %v", ErrUnavailable, err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
