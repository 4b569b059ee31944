package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/collection-watcher/internal/aggregate"
	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	"github.com/donaldgifford/collection-watcher/internal/notify"
	"github.com/donaldgifford/collection-watcher/internal/state"
	"github.com/donaldgifford/collection-watcher/internal/watcher"
	"github.com/donaldgifford/collection-watcher/pkg/logger"
)

func newMarketplaceClient(cfg *config.MarketplaceConfig) *marketplace.HTTPClient {
	return marketplace.NewHTTPClient(cfg.BaseURL,
		marketplace.WithTimeout(cfg.Timeout),
		marketplace.WithRateLimiter(marketplace.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)),
		marketplace.WithUserAgent("collection-watcher/"+Version),
	)
}

func newAggregator(cfg *config.Config, log *slog.Logger, files fileio.Files, mc marketplace.Client) *aggregate.Aggregator {
	return aggregate.New(mc, files,
		aggregate.Outputs{
			PayloadPath: cfg.Output.PayloadPath,
			CurlPath:    cfg.Output.CurlPath,
		},
		aggregate.WithLogger(logger.Component(log, "aggregate")),
		aggregate.WithSiteURL(cfg.Marketplace.SiteURL),
		aggregate.WithTargetURL(cfg.Aggregate.TargetURL),
		aggregate.WithPageSize(cfg.Aggregate.PageSize),
	)
}

// newWatcher wires the detection cycle. The caller owns the returned store.
func newWatcher(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	files fileio.Files,
	mc marketplace.Client,
) (*watcher.Watcher, state.Store, error) {
	store, err := state.New(ctx, &cfg.State, files)
	if err != nil {
		return nil, nil, fmt.Errorf("opening state store: %w", err)
	}

	notifier, err := notify.New(&cfg.Notifications, logger.Component(log, "notify"))
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("creating notifier: %w", err)
	}

	w := watcher.New(mc, store, notifier,
		watcher.WithLogger(logger.Component(log, "watcher")),
		watcher.WithMarketplace(cfg.Marketplace.Name, cfg.Marketplace.SiteURL),
		watcher.WithOverlapPolicy(cfg.Schedule.OverlapPolicy),
		watcher.WithCycleTimeout(cfg.Schedule.CycleTimeout),
	)
	return w, store, nil
}
