package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
	"github.com/halcyonlabs/markd/internal/embeddings"
	"github.com/halcyonlabs/markd/internal/ingest"
	"github.com/halcyonlabs/markd/internal/search"
	"github.com/halcyonlabs/markd/internal/source"
	"github.com/halcyonlabs/markd/internal/vectorstore"
)

func (s *Server) handleWelcome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":    "markd",
		"message": "Bookmark Search API",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddBookmark(c echo.Context) error {
	var req addBookmarkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	rec, err := s.ingester.Ingest(c.Request().Context(), req.Content, req.ExternalID)
	if err != nil {
		return s.writeError(c, err)
	}

	s.metrics.BookmarksIngested.Inc()
	return c.JSON(http.StatusCreated, addBookmarkResponse{
		ID:         rec.ID,
		ExternalID: rec.ExternalID,
		Message:    "bookmark added",
	})
}

func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	threshold := float32(s.search.Threshold)
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	limit := s.search.Limit
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}

	results, err := s.searcher.Search(c.Request().Context(), req.Query, threshold, limit)
	if err != nil {
		return s.writeError(c, err)
	}
	if results == nil {
		results = []bookmark.SearchResult{}
	}

	s.metrics.SearchesTotal.Inc()
	return c.JSON(http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleSync(c echo.Context) error {
	result, err := s.syncer.Sync(c.Request().Context())
	if err != nil {
		s.metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		return s.writeError(c, err)
	}

	s.metrics.SyncRunsTotal.WithLabelValues("ok").Inc()
	s.metrics.SyncItemsAdded.Add(float64(result.Added))
	s.metrics.SyncItemsFailed.Add(float64(len(result.Failures)))

	resp := syncResponse{Added: result.Added}
	for _, f := range result.Failures {
		resp.Failed = append(resp.Failed, f.ExternalID)
	}
	return c.JSON(http.StatusOK, resp)
}

// writeError maps domain errors to HTTP statuses.
func (s *Server) writeError(c echo.Context, err error) error {
	var status int
	switch {
	case errors.Is(err, ingest.ErrEmptyContent),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, embeddings.ErrEmptyInput):
		status = http.StatusBadRequest
	case errors.Is(err, vectorstore.ErrDuplicateExternalID):
		status = http.StatusConflict
	case errors.Is(err, source.ErrAuthFailed):
		// Misconfigured source credentials, not a transient outage.
		status = http.StatusUnauthorized
	case errors.Is(err, source.ErrUnavailable),
		errors.Is(err, embeddings.ErrEmbeddingFailed):
		status = http.StatusBadGateway
	case errors.Is(err, vectorstore.ErrUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}
