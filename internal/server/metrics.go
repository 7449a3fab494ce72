package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	BookmarksIngested prometheus.Counter
	SearchesTotal     prometheus.Counter
	SyncRunsTotal     *prometheus.CounterVec
	SyncItemsAdded    prometheus.Counter
	SyncItemsFailed   prometheus.Counter
}

// NewMetrics creates and registers the server's collectors on a private
// registry so tests can construct multiple servers in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		BookmarksIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "markd_bookmarks_ingested_total",
			Help: "Bookmarks successfully embedded and stored.",
		}),
		SearchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "markd_searches_total",
			Help: "Similarity searches served.",
		}),
		SyncRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "markd_sync_runs_total",
			Help: "Sync runs by outcome.",
		}, []string{"outcome"}),
		SyncItemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "markd_sync_items_added_total",
			Help: "Delta items ingested by sync runs.",
		}),
		SyncItemsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "markd_sync_items_failed_total",
			Help: "Delta items that failed to ingest during sync runs.",
		}),
	}
	reg.MustRegister(
		m.BookmarksIngested,
		m.SearchesTotal,
		m.SyncRunsTotal,
		m.SyncItemsAdded,
		m.SyncItemsFailed,
	)
	return m
}

// Handler returns the echo handler serving the metrics endpoint.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
