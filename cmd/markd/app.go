package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/config"
	"github.com/halcyonlabs/markd/internal/embeddings"
	"github.com/halcyonlabs/markd/internal/ingest"
	"github.com/halcyonlabs/markd/internal/logging"
	"github.com/halcyonlabs/markd/internal/search"
	"github.com/halcyonlabs/markd/internal/source"
	"github.com/halcyonlabs/markd/internal/syncer"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

// app holds the wired engines shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    vectorstore.Store
	embedder embeddings.Provider
	ingester *ingest.Service
	searcher *search.Engine
}

// newApp loads configuration and wires the store, embedder and engines.
// The sync engine is created separately because it needs source credentials
// that the other commands do not.
func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	embedder, err := embeddings.New(cfg.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("initializing embeddings provider: %w", err)
	}

	store, err := vectorstore.New(cfg.VectorStore, logger)
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("initializing vector store: %w", err)
	}

	ingester, err := ingest.NewService(store, embedder, logger)
	if err != nil {
		store.Close()
		embedder.Close()
		return nil, err
	}

	searcher, err := search.NewEngine(store, embedder, logger)
	if err != nil {
		store.Close()
		embedder.Close()
		return nil, err
	}

	logger.Info("markd initialized",
		zap.String("embeddings_provider", cfg.Embeddings.Provider),
		zap.String("vectorstore_provider", cfg.VectorStore.Provider),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		embedder: embedder,
		ingester: ingester,
		searcher: searcher,
	}, nil
}

// newSyncer builds the sync engine from the app's source configuration.
func (a *app) newSyncer() (*syncer.Engine, error) {
	client, err := source.NewClient(source.Config{
		BaseURL:   a.cfg.Source.BaseURL,
		UserID:    a.cfg.Source.UserID,
		APIKey:    a.cfg.Source.APIKey,
		APISecret: a.cfg.Source.APISecret,
	}, source.NewTokenCache(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("initializing source client: %w", err)
	}
	return syncer.NewEngine(client, a.store, a.ingester, a.cfg.Sync.Concurrency, a.logger)
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
