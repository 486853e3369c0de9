package cmd

import (
	"context"
	"fmt"

	"github.com/factlens/factlens/internal/config"
	"github.com/factlens/factlens/internal/core/cache"
	"github.com/factlens/factlens/internal/core/feed"
	"github.com/factlens/factlens/internal/core/gateway"
	"github.com/factlens/factlens/internal/core/ratelimit"
	"github.com/factlens/factlens/internal/core/relay"
	"github.com/factlens/factlens/internal/llm/gemini"
)

// app bundles the wired gateway with the components that need lifecycle
// management (background sweepers).
type app struct {
	gateway *gateway.Gateway
	cache   *cache.Cache
	limiter *ratelimit.Limiter
	cfg     *config.Config
}

// buildApp assembles the request pipeline from configuration: limiter
// and cache in front, the Gemini relay and feed aggregator behind.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	provider, err := gemini.New(ctx, gemini.Config{
		APIKey:       cfg.Gemini.APIKey,
		Model:        cfg.Gemini.Model,
		GoogleSearch: cfg.Gemini.GoogleSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	c := cache.New(
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
	)
	l := ratelimit.New(
		ratelimit.WithLimit(cfg.RateLimit.Limit),
		ratelimit.WithWindow(cfg.RateLimit.Window),
	)
	r := relay.New(c, provider)
	a := feed.New(feed.NewRSSFetcher())

	gw := gateway.New(c, l, r, a, gateway.Config{
		SystemInstruction: cfg.Gemini.SystemPrompt,
		NewsMode:          gateway.NewsMode(cfg.News.Mode),
		FeedURL:           cfg.News.FeedURL,
		MaxItems:          cfg.News.MaxItems,
		Categories:        cfg.News.Categories,
	})

	return &app{gateway: gw, cache: c, limiter: l, cfg: cfg}, nil
}

// startSweepers launches the background expiry sweeps for the cache and
// limiter. They stop when ctx is canceled.
func (a *app) startSweepers(ctx context.Context) {
	go a.cache.StartSweeping(ctx, a.cfg.Cache.SweepInterval)
	go a.limiter.StartSweeping(ctx, a.cfg.RateLimit.SweepInterval)
}
