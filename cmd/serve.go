package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/http/api"
	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/http/swagger"
	"github.com/qqqlxhjy/NishimoriLine/internal/adapters/repository"
	service "github.com/qqqlxhjy/NishimoriLine/internal/app"
	"github.com/qqqlxhjy/NishimoriLine/pkg/logger"
	"github.com/qqqlxhjy/NishimoriLine/pkg/metrics"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout            = 30 * time.Second
	writeTimeout           = 2 * time.Minute // a fine Tc grid can take a while
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func serveCommand(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reanalysis HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Addr = addr
			}
			if err := c.cfg.Validate(); err != nil {
				return fmt.Errorf("%w: %w", ErrFlags, err)
			}
			return c.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config addr)")
	return cmd
}

// newMux builds the routes of the HTTP service around svc.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.DefaultMaxBody).Register(ctx, mux)
	return mux
}

func (c *cli) runServe(ctx context.Context) error {
	store := repository.NewCacheStore(repository.WithTTL(c.cfg.RunTTL()))
	svc := service.New(c.serviceOptions(service.WithStore(store))...)

	go startServiceMetricsUpdater(ctx, store)

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		c.log.Info(ctx, "starting HTTP server", logger.String("addr", c.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("%w: %w", api.ErrServe, err)
		}
		return nil
	case <-ctx.Done():
	}
	c.log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.log.Error(ctx, "server shutdown failed", logger.Error(err))
		return fmt.Errorf("%w: %w", api.ErrServe, err)
	}
	c.log.Info(ctx, "server stopped")
	return nil
}

// startServiceMetricsUpdater refreshes the stored run gauge, which drifts
// as runs expire without a Save.
func startServiceMetricsUpdater(ctx context.Context, store repository.Store) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateRunsStored(store.Count(ctx))
		}
	}
}
