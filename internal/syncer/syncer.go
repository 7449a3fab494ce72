// Package syncer reconciles the external bookmark source with the local
// vector store.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/halcyonlabs/markd/internal/bookmark"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

// Source lists the current bookmark set on the external side.
type Source interface {
	ListAll(ctx context.Context) ([]bookmark.Item, error)
}

// Ingester persists one bookmark. Satisfied by ingest.Service.
type Ingester interface {
	Ingest(ctx context.Context, content, externalID string) (*bookmark.Record, error)
}

// ItemFailure records one delta item that could not be ingested. The item
// stays absent from the store, so the next sync retries it.
type ItemFailure struct {
	ExternalID string
	Err        error
}

// Result summarizes one sync run.
type Result struct {
	// Added is the number of records successfully ingested.
	Added int
	// Failures lists delta items that failed. Successes are kept even when
	// siblings fail; a non-empty Failures does not fail the run.
	Failures []ItemFailure
}

// Engine performs one-directional, append-only sync: items present at the
// source but missing from the store are ingested; nothing is ever updated
// or removed. Re-running after a partial failure is always safe because
// only still-missing external IDs are attempted.
type Engine struct {
	source      Source
	store       vectorstore.Store
	ingester    Ingester
	concurrency int
	logger      *zap.Logger
}

// NewEngine creates a sync engine. concurrency bounds parallel ingestion
// of delta items; values below 1 are treated as 1.
func NewEngine(source Source, store vectorstore.Store, ingester Ingester, concurrency int, logger *zap.Logger) (*Engine, error) {
	if source == nil {
		return nil, errors.New("source is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if ingester == nil {
		return nil, errors.New("ingester is required")
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		source:      source,
		store:       store,
		ingester:    ingester,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// Sync fetches the source's current bookmark set, diffs it against the
// store by external ID and ingests the delta.
//
// A source or store failure aborts the run before anything is written.
// Per-item ingestion failures do not: each delta item is attempted
// independently, failures are collected in the result, and the failed
// items are retried naturally on the next run.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	items, err := e.source.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing source bookmarks: %w", err)
	}

	existing, err := e.store.ListExternalIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stored external ids: %w", err)
	}

	delta := make([]bookmark.Item, 0)
	for _, item := range items {
		if item.ExternalID == "" {
			continue
		}
		if _, ok := existing[item.ExternalID]; !ok {
			delta = append(delta, item)
		}
	}

	e.logger.Info("computed sync delta",
		zap.Int("source_items", len(items)),
		zap.Int("existing", len(existing)),
		zap.Int("delta", len(delta)),
	)

	var (
		mu     sync.Mutex
		result Result
	)

	g := &errgroup.Group{}
	g.SetLimit(e.concurrency)
	for _, item := range delta {
		g.Go(func() error {
			_, err := e.ingester.Ingest(ctx, item.Text, item.ExternalID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Added++
			case errors.Is(err, vectorstore.ErrDuplicateExternalID):
				// A concurrent writer beat this sync to the item. The goal
				// state is reached either way.
				e.logger.Debug("delta item already stored",
					zap.String("external_id", item.ExternalID))
			default:
				e.logger.Warn("failed to ingest delta item",
					zap.String("external_id", item.ExternalID),
					zap.Error(err))
				result.Failures = append(result.Failures, ItemFailure{
					ExternalID: item.ExternalID,
					Err:        err,
				})
			}
			// Never short-circuit siblings.
			return nil
		})
	}
	_ = g.Wait()

	e.logger.Info("sync completed",
		zap.Int("added", result.Added),
		zap.Int("failed", len(result.Failures)),
	)
	return &result, nil
}
