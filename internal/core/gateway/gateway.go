// Package gateway orchestrates the request-gating pipeline: every
// inbound operation passes the per-client limiter, then the cache, and
// only then reaches an upstream through the relay or the aggregator.
// Identical in-flight questions share one upstream call.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/factlens/factlens/internal/core"
	"github.com/factlens/factlens/internal/core/cache"
	"github.com/factlens/factlens/internal/core/feed"
	"github.com/factlens/factlens/internal/core/ratelimit"
	"github.com/factlens/factlens/internal/core/relay"
)

// newsCacheKey stores the composed news payload. One key: the news
// surface is shared by all clients.
const newsCacheKey = "news:front-page"

// NewsMode selects how the news operation composes its result.
type NewsMode string

const (
	// NewsModeHeadlines serves deduplicated headlines from one feed.
	NewsModeHeadlines NewsMode = "headlines"
	// NewsModeDigest serves one story per configured category.
	NewsModeDigest NewsMode = "digest"
)

// Config carries the gateway tunables resolved from configuration.
type Config struct {
	SystemInstruction string
	NewsMode          NewsMode
	FeedURL           string
	MaxItems          int
	Categories        map[string]string
}

// NewsResult is the news payload handed to the transport layer.
type NewsResult struct {
	Result *core.AggregatedResult
	Cached bool
}

// Gateway owns the cache and limiter lifecycles and coordinates the
// relay and aggregator. Construct with New; all collaborators are
// injected explicitly.
type Gateway struct {
	cache      *cache.Cache
	limiter    *ratelimit.Limiter
	relay      *relay.Relay
	aggregator *feed.Aggregator
	cfg        Config

	// clearMu serializes administrative clears against request
	// admission so no request observes a half-cleared state.
	clearMu sync.RWMutex

	flight singleflight.Group
}

// New constructs a Gateway.
func New(c *cache.Cache, l *ratelimit.Limiter, r *relay.Relay, a *feed.Aggregator, cfg Config) *Gateway {
	if cfg.NewsMode == "" {
		cfg.NewsMode = NewsModeHeadlines
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = feed.DefaultMaxItems
	}
	return &Gateway{
		cache:      c,
		limiter:    l,
		relay:      r,
		aggregator: a,
		cfg:        cfg,
	}
}

// Admit applies the per-client limiter. A denial returns
// core.ErrRateLimited; the retry hint is carried in the Decision.
func (g *Gateway) Admit(clientID string) (ratelimit.Decision, error) {
	g.clearMu.RLock()
	defer g.clearMu.RUnlock()

	decision := g.limiter.Allow(clientID)
	if !decision.Permitted {
		return decision, &core.RateLimitError{
			ClientID:          clientID,
			RetryAfterSeconds: decision.RetryAfterSeconds(),
		}
	}
	return decision, nil
}

type askOutcome struct {
	fullText string
	cached   bool
}

// Ask answers question through sink after gating the client. Concurrent
// identical questions share one upstream call: the first caller streams
// live and later callers receive the completed text in one shot.
func (g *Gateway) Ask(ctx context.Context, clientID, question string, sink relay.Sink) (cached bool, err error) {
	if _, err := g.Admit(clientID); err != nil {
		return false, err
	}

	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return false, fmt.Errorf("ask: question is empty: %w", core.ErrInvalidInput)
	}

	var mine bool
	value, err, _ := g.flight.Do(relay.Key(trimmed), func() (any, error) {
		mine = true
		full, hit, relayErr := g.relay.Relay(ctx, trimmed, g.cfg.SystemInstruction, sink)
		if relayErr != nil {
			return nil, relayErr
		}
		return askOutcome{fullText: full, cached: hit}, nil
	})
	if err != nil {
		return false, err
	}

	outcome := value.(askOutcome)
	if !mine {
		// A concurrent identical request already streamed this
		// answer; deliver the shared result in one shot.
		if writeErr := sink.Write(outcome.fullText); writeErr != nil {
			return true, fmt.Errorf("ask shared result: %w", relay.ErrSinkClosed)
		}
		return true, nil
	}
	return outcome.cached, nil
}

// News returns the aggregated front page, serving from cache within the
// TTL window. Aggregation failures propagate so the transport layer can
// degrade gracefully.
func (g *Gateway) News(ctx context.Context, clientID string) (*NewsResult, error) {
	if _, err := g.Admit(clientID); err != nil {
		return nil, err
	}

	if value, ok := g.cache.Get(newsCacheKey); ok {
		if result, ok := value.(*core.AggregatedResult); ok {
			return &NewsResult{Result: result, Cached: true}, nil
		}
	}

	value, err, _ := g.flight.Do(newsCacheKey, func() (any, error) {
		var (
			result *core.AggregatedResult
			err    error
		)
		switch g.cfg.NewsMode {
		case NewsModeDigest:
			result, err = g.aggregator.Digest(ctx, g.cfg.Categories)
		default:
			result, err = g.aggregator.Headlines(ctx, g.cfg.FeedURL, g.cfg.MaxItems)
		}
		if err != nil {
			return nil, err
		}
		g.cache.Set(newsCacheKey, result)
		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}

	return &NewsResult{Result: value.(*core.AggregatedResult)}, nil
}

// Clear empties the cache and the limiter together. In-flight requests
// finish against the old state; new requests admitted afterwards observe
// both stores empty.
func (g *Gateway) Clear() {
	g.clearMu.Lock()
	defer g.clearMu.Unlock()

	g.cache.Clear()
	g.limiter.Clear()
}

// Stats reports a read-only snapshot for health reporting.
func (g *Gateway) Stats() core.Stats {
	return core.Stats{
		CacheEntries:   g.cache.Len(),
		LimiterEntries: g.limiter.Len(),
	}
}
