package server

import "github.com/halcyonlabs/markd/internal/bookmark"

type addBookmarkRequest struct {
	Content    string `json:"content"`
	ExternalID string `json:"external_id,omitempty"`
}

type addBookmarkResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id,omitempty"`
	Message    string `json:"message"`
}

type searchRequest struct {
	Query string `json:"query"`
	// Threshold and Limit override the configured defaults when set.
	Threshold *float32 `json:"threshold,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
}

type searchResponse struct {
	Results []bookmark.SearchResult `json:"results"`
}

type syncResponse struct {
	Added  int      `json:"added"`
	Failed []string `json:"failed,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
