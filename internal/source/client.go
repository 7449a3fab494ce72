// Package source provides the client for the external bookmark source
// (the X API v2 bookmarks endpoint).
package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
)

var (
	// ErrAuthFailed indicates the credential exchange failed or the source
	// rejected a freshly obtained token. Requires operator intervention.
	ErrAuthFailed = errors.New("source authentication failed")

	// ErrUnavailable indicates a transport or server failure talking to the
	// source. Safe to retry the whole operation later.
	ErrUnavailable = errors.New("bookmark source unavailable")

	// ErrInvalidConfig indicates invalid client configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// errUnauthorized marks a rejected bearer token internally so ListAll
	// can invalidate the cache and retry once.
	errUnauthorized = errors.New("bearer token rejected")
)

// Config holds configuration for the source client.
type Config struct {
	// BaseURL is the API root.
	// Default: "https://api.twitter.com"
	BaseURL string

	// UserID is the account whose bookmarks are listed.
	UserID string

	// APIKey and APISecret are the long-lived credentials exchanged for a
	// bearer token via the OAuth2 client-credentials grant.
	APIKey    string
	APISecret string
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.twitter.com"
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: user id required", ErrInvalidConfig)
	}
	if c.APIKey == "" || c.APISecret == "" {
		return fmt.Errorf("%w: api key and secret required", ErrInvalidConfig)
	}
	return nil
}

// Client lists bookmarks from the external source.
//
// Authentication uses a process-lifetime bearer token held in the injected
// TokenCache. When the source rejects the token, the client invalidates
// the cache and retries the listing exactly once with a fresh token; a
// second rejection surfaces as ErrAuthFailed.
type Client struct {
	config     Config
	httpClient *http.Client
	tokens     *TokenCache
	logger     *zap.Logger
}

// NewClient creates a Client. The token cache is injected so callers can
// share it across clients or substitute one in tests.
func NewClient(config Config, tokens *TokenCache, logger *zap.Logger) (*Client, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if tokens == nil {
		tokens = NewTokenCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		logger:     logger,
	}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// exchangeToken trades the long-lived API credentials for a bearer token.
func (c *Client) exchangeToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(c.config.APIKey + ":" + c.config.APISecret))
	req.Header.Set("Authorization", "Basic "+encoded)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: token endpoint status %d: %s", ErrAuthFailed, resp.StatusCode, string(msg))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", ErrAuthFailed, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: token endpoint returned no access token", ErrAuthFailed)
	}

	c.logger.Debug("obtained bearer token")
	return tr.AccessToken, nil
}

type bookmarksResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
	Errors []json.RawMessage `json:"errors"`
}

// ListAll returns the user's full current bookmark list.
func (c *Client) ListAll(ctx context.Context) ([]bookmark.Item, error) {
	token, err := c.tokens.Get(ctx, c.exchangeToken)
	if err != nil {
		return nil, err
	}

	items, err := c.listAll(ctx, token)
	if errors.Is(err, errUnauthorized) {
		// The cached token went stale. Re-authenticate and retry once.
		c.logger.Warn("bearer token rejected, re-authenticating")
		c.tokens.Invalidate()

		token, err = c.tokens.Get(ctx, c.exchangeToken)
		if err != nil {
			return nil, err
		}
		items, err = c.listAll(ctx, token)
		if errors.Is(err, errUnauthorized) {
			return nil, fmt.Errorf("%w: source rejected a freshly issued token", ErrAuthFailed)
		}
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

// listAll pages through the bookmarks endpoint with the given token.
func (c *Client) listAll(ctx context.Context, token string) ([]bookmark.Item, error) {
	var all []bookmark.Item
	nextToken := ""

	for {
		page, next, err := c.fetchPage(ctx, token, nextToken)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		nextToken = next
	}

	c.logger.Debug("listed source bookmarks", zap.Int("count", len(all)))
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, token, paginationToken string) ([]bookmark.Item, string, error) {
	endpoint := fmt.Sprintf("%s/2/users/%s/bookmarks", c.config.BaseURL, url.PathEscape(c.config.UserID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating bookmarks request: %w", err)
	}
	q := req.URL.Query()
	q.Set("max_results", "100")
	if paginationToken != "" {
		q.Set("pagination_token", paginationToken)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, "", errUnauthorized
	default:
		return nil, "", fmt.Errorf("%w: bookmarks endpoint status %d", ErrUnavailable, resp.StatusCode)
	}

	var br bookmarksResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, "", fmt.Errorf("%w: decoding bookmarks response: %v", ErrUnavailable, err)
	}
	if len(br.Errors) > 0 {
		return nil, "", fmt.Errorf("%w: bookmarks endpoint returned %d errors", ErrUnavailable, len(br.Errors))
	}

	items := make([]bookmark.Item, 0, len(br.Data))
	for _, d := range br.Data {
		items = append(items, bookmark.Item{ExternalID: d.ID, Text: d.Text})
	}
	return items, br.Meta.NextToken, nil
}
