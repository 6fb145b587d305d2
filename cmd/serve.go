package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/planner/internal/adapters/backend"
	"github.com/okian/planner/internal/adapters/http/api"
	"github.com/okian/planner/internal/adapters/snapshot"
	"github.com/okian/planner/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func addServe(topLevel *cobra.Command, c *cli) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference REST backend",
		Example: `
planner serve
PLANNER_ADDR=:8080 PLANNER_DATA_DIR=/var/lib/planner planner serve
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	topLevel.AddCommand(cmd)
}

// backendHandler loads the persisted collections and returns the API.
func (c *cli) backendHandler(ctx context.Context) (http.Handler, error) {
	disk, err := snapshot.Open(c.cfg.DataDir, snapshot.WithCacheSize(c.cfg.SnapshotCacheBytes))
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	store := backend.New(
		backend.WithPersister(disk),
		backend.WithLogger(c.log.Named("backend")))
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	return api.NewServer(store, c.log.Named("api")).Handler(), nil
}

func (c *cli) serve(parent context.Context) error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, err := c.backendHandler(ctx)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		c.log.Info(ctx, "starting HTTP server",
			logger.String("addr", c.cfg.Addr),
			logger.String("data_dir", c.cfg.DataDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%w: %w", api.ErrServe, err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	c.log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	c.log.Info(ctx, "server stopped")
	return nil
}
