package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GeminiConfig holds configuration for the Gemini embedding provider.
type GeminiConfig struct {
	// BaseURL is the API root.
	// Default: "https://generativelanguage.googleapis.com"
	BaseURL string

	// Model is the embedding model name.
	// Default: "text-embedding-004"
	Model string

	// APIKey authenticates requests. Required.
	APIKey string
}

// ApplyDefaults sets default values for unset fields.
func (c *GeminiConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if c.Model == "" {
		c.Model = "text-embedding-004"
	}
}

// Validate validates the configuration.
func (c GeminiConfig) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: gemini api key required", ErrInvalidConfig)
	}
	return nil
}

// GeminiProvider generates embeddings via the Google Generative Language
// REST API.
type GeminiProvider struct {
	config GeminiConfig
	client *http.Client
}

// NewGeminiProvider creates a GeminiProvider with the given configuration.
func NewGeminiProvider(config GeminiConfig) (*GeminiProvider, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &GeminiProvider{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiEmbedding struct {
	Values []float32 `json:"values"`
}

type geminiEmbedResponse struct {
	Embedding geminiEmbedding `json:"embedding"`
}

type geminiBatchRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiBatchResponse struct {
	Embeddings []geminiEmbedding `json:"embeddings"`
}

// EmbedQuery generates an embedding for a single text.
func (p *GeminiProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	reqBody := geminiEmbedRequest{
		Model:   "models/" + p.config.Model,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	var resp geminiEmbedResponse
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", p.config.BaseURL, p.config.Model)
	if err := p.post(ctx, url, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: gemini returned empty embedding", ErrEmbeddingFailed)
	}
	return resp.Embedding.Values, nil
}

// EmbedDocuments generates embeddings for multiple texts with a single
// batch request.
func (p *GeminiProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	reqBody := geminiBatchRequest{Requests: make([]geminiEmbedRequest, len(texts))}
	for i, text := range texts {
		reqBody.Requests[i] = geminiEmbedRequest{
			Model:   "models/" + p.config.Model,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		}
	}

	var resp geminiBatchResponse
	url := fmt.Sprintf("%s/v1beta/models/%s:batchEmbedContents", p.config.BaseURL, p.config.Model)
	if err := p.post(ctx, url, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: gemini returned %d embeddings for %d texts", ErrEmbeddingFailed, len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

// post sends a JSON request and decodes the JSON response.
func (p *GeminiProvider) post(ctx context.Context, url string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: gemini status %d: %s", ErrEmbeddingFailed, resp.StatusCode, string(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrEmbeddingFailed, err)
	}
	return nil
}

// Dimension returns the embedding dimension for the configured model.
func (p *GeminiProvider) Dimension() int {
	return detectDimension(p.config.Model)
}

// Close is a no-op; the provider holds no persistent resources.
func (p *GeminiProvider) Close() error {
	return nil
}
