package vectorstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/config"
)

// New creates a Store based on the configuration.
//
// The factory examines cfg.Provider and creates the matching implementation:
//   - "sqlite" (default): embedded SQLite database
//   - "chromem": embedded chromem-go database
//   - "qdrant": external Qdrant server (requires a running instance)
//   - "memory": in-process store, nothing persisted
//
// Example:
//
//	store, err := vectorstore.New(cfg.VectorStore, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func New(cfg config.VectorStoreConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case "sqlite", "":
		return NewSQLiteStore(SQLiteConfig{
			Path: cfg.SQLite.Path,
		}, logger)

	case "chromem":
		return NewChromemStore(ChromemConfig{
			Path:       cfg.Chromem.Path,
			Compress:   cfg.Chromem.Compress,
			Collection: cfg.Chromem.Collection,
		}, logger)

	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: cfg.Qdrant.Collection,
			VectorSize: uint64(cfg.Qdrant.VectorSize),
			UseTLS:     cfg.Qdrant.UseTLS,
		}, logger)

	case "memory":
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("%w: unsupported vectorstore provider: %s (supported: sqlite, chromem, qdrant, memory)", ErrInvalidConfig, cfg.Provider)
	}
}
