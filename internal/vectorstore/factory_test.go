package vectorstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/config"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

func TestNew_SQLite(t *testing.T) {
	store, err := vectorstore.New(config.VectorStoreConfig{
		Provider: "sqlite",
		SQLite:   config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "b.db")},
	}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &vectorstore.SQLiteStore{}, store)
}

func TestNew_Memory(t *testing.T) {
	store, err := vectorstore.New(config.VectorStoreConfig{Provider: "memory"}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &vectorstore.MemoryStore{}, store)
}

func TestNew_Chromem(t *testing.T) {
	store, err := vectorstore.New(config.VectorStoreConfig{
		Provider: "chromem",
		Chromem:  config.ChromemConfig{Path: t.TempDir()},
	}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &vectorstore.ChromemStore{}, store)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := vectorstore.New(config.VectorStoreConfig{Provider: "pinecone"}, zap.NewNop())
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}
