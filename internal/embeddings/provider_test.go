package embeddings_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/markd/internal/config"
	"github.com/halcyonlabs/markd/internal/embeddings"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EmbeddingsConfig
		wantErr bool
	}{
		{"gemini", config.EmbeddingsConfig{Provider: "gemini", APIKey: "k"}, false},
		{"default is gemini", config.EmbeddingsConfig{APIKey: "k"}, false},
		{"gemini without key", config.EmbeddingsConfig{Provider: "gemini"}, true},
		{"ollama", config.EmbeddingsConfig{Provider: "ollama"}, false},
		{"tei", config.EmbeddingsConfig{Provider: "tei"}, false},
		{"unknown", config.EmbeddingsConfig{Provider: "openai"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := embeddings.New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, provider)
			assert.NoError(t, provider.Close())
		})
	}
}

func TestOllamaProvider_EmbedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, []string{"a", "b"}, req.Input)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{1, 0}, {0, 1}},
		})
	}))
	defer srv.Close()

	provider, err := embeddings.NewOllamaProvider(embeddings.OllamaConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	vecs, err := provider.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0}, vecs[0])
}

func TestOllamaProvider_EmbedQuery_EmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{}}})
	}))
	defer srv.Close()

	provider, err := embeddings.NewOllamaProvider(embeddings.OllamaConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = provider.EmbedQuery(context.Background(), "hello")
	assert.ErrorIs(t, err, embeddings.ErrEmbeddingFailed)
}

func TestTEIProvider_EmbedDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)

		var req struct {
			Inputs   []string `json:"inputs"`
			Truncate bool     `json:"truncate"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a"}, req.Inputs)
		assert.True(t, req.Truncate)

		_ = json.NewEncoder(w).Encode([][]float32{{0.5, 0.5}})
	}))
	defer srv.Close()

	provider, err := embeddings.NewTEIProvider(embeddings.TEIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	vecs, err := provider.EmbedDocuments(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.Equal(t, []float32{0.5, 0.5}, vecs[0])
}

func TestTEIProvider_EmbedDocuments_Empty(t *testing.T) {
	provider, err := embeddings.NewTEIProvider(embeddings.TEIConfig{})
	require.NoError(t, err)

	_, err = provider.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)
}

func TestTEIProvider_Dimension(t *testing.T) {
	provider, err := embeddings.NewTEIProvider(embeddings.TEIConfig{})
	require.NoError(t, err)
	assert.Equal(t, 384, provider.Dimension())
}
