package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/server"
	"github.com/halcyonlabs/markd/internal/syncer"
)

// unavailableSyncer rejects sync requests when source credentials are not
// configured. The rest of the API keeps working.
type unavailableSyncer struct{}

func (unavailableSyncer) Sync(ctx context.Context) (*syncer.Result, error) {
	return nil, errors.New("sync is not configured: source credentials missing")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the markd HTTP server",
	Long: `Start the markd daemon: serve the bookmark API over HTTP and, when
sync.interval is configured, periodically sync bookmarks from the external
source in the background.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	syncEngine, err := a.newSyncer()
	if err != nil {
		// Source credentials are optional for serve mode: without them the
		// API still ingests and searches, it just cannot sync.
		a.logger.Warn("sync disabled", zap.Error(err))
	}

	var srvSyncer server.Syncer = unavailableSyncer{}
	if syncEngine != nil {
		srvSyncer = syncEngine
	}

	srv, err := server.NewServer(a.cfg.Server, a.cfg.Search, a.ingester, a.searcher, srvSyncer, a.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		a.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	if syncEngine != nil && a.cfg.Sync.Interval > 0 {
		go runPeriodicSync(ctx, a, syncEngine)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}

// runPeriodicSync runs the sync engine on a fixed interval until the
// context is cancelled. One run happens immediately at startup.
func runPeriodicSync(ctx context.Context, a *app, engine server.Syncer) {
	ticker := time.NewTicker(a.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		result, err := engine.Sync(ctx)
		if err != nil {
			a.logger.Warn("periodic sync failed", zap.Error(err))
		} else {
			a.logger.Info("periodic sync finished",
				zap.Int("added", result.Added),
				zap.Int("failed", len(result.Failures)),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
