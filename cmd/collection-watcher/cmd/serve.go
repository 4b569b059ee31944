package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/collection-watcher/internal/api"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
	"github.com/donaldgifford/collection-watcher/internal/tracing"
	"github.com/donaldgifford/collection-watcher/internal/watcher"
	"github.com/donaldgifford/collection-watcher/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduler and the API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, log, &cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	files := fileio.NewOS()
	mc := newMarketplaceClient(&cfg.Marketplace)

	w, store, err := newWatcher(ctx, cfg, log, files, mc)
	if err != nil {
		return err
	}
	defer store.Close()

	sched, err := watcher.NewScheduler(w, cfg.Schedule.PollInterval(),
		logger.Component(log, "scheduler"),
		watcher.WithRunOnStart(cfg.Schedule.ShouldRunOnStart()),
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	log.Info("starting watcher",
		"marketplace", cfg.Marketplace.Name,
		"poll_interval", cfg.Schedule.PollInterval().String(),
		"state_backend", cfg.State.Backend,
		"notifier", cfg.Notifications.Kind,
	)
	sched.Start()

	var srv *api.Server
	errCh := make(chan error, 1)
	if cfg.Server.IsEnabled() {
		srv = api.NewServer(&cfg.Server, logger.Component(log, "api"), Version, api.Deps{
			Store:      store,
			Poller:     w,
			Aggregator: newAggregator(cfg, log, files, mc),
		})
		go func() {
			errCh <- srv.Start()
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err = <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	if srv != nil {
		if serr := srv.Shutdown(context.Background(), shutdownTimeout); serr != nil {
			log.Error("server shutdown failed", "error", serr)
		}
	}

	select {
	case <-sched.Stop().Done():
	case <-time.After(shutdownTimeout):
		log.Warn("poll cycle still running at shutdown")
	}

	log.Info("watcher stopped")
	return err
}
