package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/halcyonlabs/markd/internal/bookmark"
)

// qdrantTracer for OpenTelemetry instrumentation.
var qdrantTracer = otel.Tracer("markd.vectorstore.qdrant")

// qdrantIDNamespace is the UUIDv5 namespace for deriving point IDs from
// external IDs. Never change it; stored point IDs depend on it.
var qdrantIDNamespace = uuid.MustParse("b7a8f2c4-3d5e-4f6a-9b1c-2e8d7f0a4c91")

// scrollPageSize is the page size for external-id listing.
const scrollPageSize = 256

// QdrantConfig holds configuration for the Qdrant gRPC client.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (NOT the HTTP REST port).
	// Default: 6334
	Port int

	// Collection is the collection holding bookmark records.
	// Default: "bookmarks"
	Collection string

	// VectorSize is the dimensionality of embeddings. MUST match the
	// embedding provider's output dimension.
	VectorSize uint64

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "bookmarks"
	}
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	if c.VectorSize == 0 {
		return fmt.Errorf("%w: vector size required", ErrInvalidConfig)
	}
	return nil
}

// QdrantStore implements Store against an external Qdrant server over gRPC.
//
// Record content and external IDs live in the point payload; the point ID is
// the store-assigned record UUID. Score thresholding happens server-side.
type QdrantStore struct {
	client *qdrant.Client
	config QdrantConfig
	logger *zap.Logger
}

// NewQdrantStore connects to Qdrant and ensures the bookmarks collection
// exists with the configured vector size.
func NewQdrantStore(config QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", ErrUnavailable, err)
	}

	store := &QdrantStore{
		client: client,
		config: config,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("QdrantStore initialized",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("collection", config.Collection),
		zap.Uint64("vector_size", config.VectorSize),
	)

	return store, nil
}

// ensureCollection creates the collection if it does not exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	_, err := s.client.GetCollectionInfo(ctx, s.config.Collection)
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); !ok || st.Code() != grpccodes.NotFound {
		return fmt.Errorf("%w: checking collection %s: %v", ErrUnavailable, s.config.Collection, err)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.config.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %s: %v", ErrUnavailable, s.config.Collection, err)
	}
	return nil
}

// pointID returns the point ID for a record. Records with an external ID
// map to a deterministic UUID so that inserts racing past the duplicate
// check converge on a single point instead of storing two copies; records
// without one get a random UUID.
func pointID(externalID string) string {
	if externalID == "" {
		return uuid.New().String()
	}
	return uuid.NewSHA1(qdrantIDNamespace, []byte(externalID)).String()
}

// externalIDFilter builds a payload filter matching one external ID.
func externalIDFilter(externalID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "external_id",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: externalID},
						},
					},
				},
			},
		},
	}
}

// Insert persists a record and returns its assigned ID.
func (s *QdrantStore) Insert(ctx context.Context, rec *bookmark.Record) (string, error) {
	ctx, span := qdrantTracer.Start(ctx, "QdrantStore.Insert")
	defer span.End()

	if err := validateRecord(rec); err != nil {
		span.RecordError(err)
		return "", err
	}

	if rec.ExternalID != "" {
		existing, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.config.Collection,
			Filter:         externalIDFilter(rec.ExternalID),
			Limit:          qdrant.PtrOf(uint32(1)),
		})
		if err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("%w: checking external id: %v", ErrUnavailable, err)
		}
		if len(existing) > 0 {
			return "", fmt.Errorf("%w: %s", ErrDuplicateExternalID, rec.ExternalID)
		}
	}

	id := pointID(rec.ExternalID)
	payload := map[string]*qdrant.Value{
		"content":     {Kind: &qdrant.Value_StringValue{StringValue: rec.Content}},
		"external_id": {Kind: &qdrant.Value_StringValue{StringValue: rec.ExternalID}},
		"created_at":  {Kind: &qdrant.Value_StringValue{StringValue: time.Now().UTC().Format(time.RFC3339Nano)}},
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.config.Collection,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(id),
				Vectors: qdrant.NewVectors(rec.Embedding...),
				Payload: payload,
			},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%w: upserting point: %v", ErrUnavailable, err)
	}

	span.SetAttributes(attribute.String("record_id", id))
	span.SetStatus(codes.Ok, "success")
	return id, nil
}

// ListExternalIDs pages through the collection and collects non-empty
// external IDs from point payloads.
func (s *QdrantStore) ListExternalIDs(ctx context.Context) (map[string]struct{}, error) {
	ctx, span := qdrantTracer.Start(ctx, "QdrantStore.ListExternalIDs")
	defer span.End()

	ids := make(map[string]struct{})
	seen := make(map[string]struct{})
	var offset *qdrant.PointId

	for {
		points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.config.Collection,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("%w: scrolling collection: %v", ErrUnavailable, err)
		}

		progressed := false
		for _, point := range points {
			pointID := point.Id.GetUuid()
			if _, ok := seen[pointID]; ok {
				continue
			}
			seen[pointID] = struct{}{}
			progressed = true

			if v, ok := point.Payload["external_id"]; ok {
				if extID := v.GetStringValue(); extID != "" {
					ids[extID] = struct{}{}
				}
			}
			offset = point.Id
		}

		// The scroll offset is inclusive, so a page that yields nothing new
		// means we have walked the whole collection.
		if !progressed || len(points) < scrollPageSize {
			break
		}
	}

	span.SetAttributes(attribute.Int("external_id_count", len(ids)))
	return ids, nil
}

// SimilaritySearch queries the collection with server-side score
// thresholding.
func (s *QdrantStore) SimilaritySearch(ctx context.Context, embedding []float32, threshold float32, limit int) ([]bookmark.SearchResult, error) {
	ctx, span := qdrantTracer.Start(ctx, "QdrantStore.SimilaritySearch")
	defer span.End()

	if limit <= 0 {
		return []bookmark.SearchResult{}, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.config.Collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: qdrant.PtrOf(threshold),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: querying collection: %v", ErrUnavailable, err)
	}

	results := make([]bookmark.SearchResult, 0, len(points))
	for _, point := range points {
		var content string
		if v, ok := point.Payload["content"]; ok {
			content = v.GetStringValue()
		}
		results = append(results, bookmark.SearchResult{
			Content:    content,
			Similarity: point.Score,
		})
	}

	span.SetAttributes(attribute.Int("results_count", len(results)))
	span.SetStatus(codes.Ok, "success")
	return results, nil
}

// Count returns the number of stored records.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.config.Collection,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: counting points: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

// Close closes the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
