package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OllamaConfig holds configuration for the Ollama embedding provider.
type OllamaConfig struct {
	// BaseURL is the Ollama server address.
	// Default: "http://localhost:11434"
	BaseURL string

	// Model is the embedding model name.
	// Default: "nomic-embed-text"
	Model string
}

// ApplyDefaults sets default values for unset fields.
func (c *OllamaConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
	if c.Model == "" {
		c.Model = "nomic-embed-text"
	}
}

// OllamaProvider generates embeddings via a local Ollama server.
type OllamaProvider struct {
	config OllamaConfig
	client *http.Client
}

// NewOllamaProvider creates an OllamaProvider with the given configuration.
func NewOllamaProvider(config OllamaConfig) (*OllamaProvider, error) {
	config.ApplyDefaults()
	return &OllamaProvider{
		config: config,
		// Local models can be slow on first load.
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedQuery generates an embedding for a single text.
func (p *OllamaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	embeddings, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *OllamaProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	return p.embed(ctx, texts)
}

func (p *OllamaProvider) embed(ctx context.Context, input []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.config.Model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ollama status %d", ErrEmbeddingFailed, resp.StatusCode)
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrEmbeddingFailed, err)
	}

	if len(result.Embeddings) != len(input) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs", ErrEmbeddingFailed, len(result.Embeddings), len(input))
	}
	for i, e := range result.Embeddings {
		if len(e) == 0 {
			return nil, fmt.Errorf("%w: ollama returned empty embedding at index %d", ErrEmbeddingFailed, i)
		}
	}
	return result.Embeddings, nil
}

// Dimension returns the embedding dimension for the configured model.
func (p *OllamaProvider) Dimension() int {
	return detectDimension(p.config.Model)
}

// Close is a no-op; the provider holds no persistent resources.
func (p *OllamaProvider) Close() error {
	return nil
}
