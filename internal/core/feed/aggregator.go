// Package feed aggregates one or more upstream news feeds into a single
// bounded, ordered result set. A failing source never fails the whole
// aggregation as long as at least one other source succeeds.
package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/factlens/factlens/internal/core"
)

// DefaultMaxItems caps single-feed headline results.
const DefaultMaxItems = 5

// summaryLimit truncates long feed summaries for rendering.
const summaryLimit = 140

// Aggregator composes feed results from an injected fetch capability.
type Aggregator struct {
	Fetcher Fetcher
	Clock   func() time.Time
}

// New constructs an Aggregator backed by fetcher.
func New(fetcher Fetcher) *Aggregator {
	return &Aggregator{Fetcher: fetcher}
}

// Headlines fetches one feed and returns its unique headlines: items
// deduplicated by normalized title in first-seen order, capped at
// maxItems. A feed with zero items is a hard failure (core.ErrEmptySource).
func (a *Aggregator) Headlines(ctx context.Context, feedURL string, maxItems int) (*core.AggregatedResult, error) {
	if a == nil || a.Fetcher == nil {
		return nil, fmt.Errorf("aggregator is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	items, err := a.Fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("aggregate headlines: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("aggregate headlines %q: %w", feedURL, core.ErrEmptySource)
	}

	seen := make(map[string]struct{}, maxItems)
	unique := make([]core.FeedItem, 0, maxItems)
	for _, item := range items {
		key := item.TitleKey()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, trimSummary(item))
		if len(unique) >= maxItems {
			break
		}
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("aggregate headlines %q: %w", feedURL, core.ErrEmptySource)
	}

	return &core.AggregatedResult{
		Items:       unique,
		GeneratedAt: a.now(),
		TotalCount:  len(unique),
	}, nil
}

// Digest fetches every category feed concurrently and picks one item per
// category: the first item published on the current calendar day, or the
// first item overall when none matches. Categories whose fetch fails are
// skipped; the digest fails only when every category comes back empty.
func (a *Aggregator) Digest(ctx context.Context, sources map[string]string) (*core.AggregatedResult, error) {
	if a == nil || a.Fetcher == nil {
		return nil, fmt.Errorf("aggregator is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("aggregate digest: %w", core.ErrEmptySource)
	}

	type categoryResult struct {
		category string
		item     core.FeedItem
		ok       bool
	}

	results := make([]categoryResult, 0, len(sources))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	today := a.now().Local()
	for category, url := range sources {
		wg.Add(1)
		go func(category, url string) {
			defer wg.Done()

			items, err := a.Fetcher.Fetch(ctx, url)
			if err != nil || len(items) == 0 {
				// Partial failure: this category is simply absent
				// from the digest.
				return
			}

			item := pickTodayFirst(items, today)
			item.Category = category

			mu.Lock()
			results = append(results, categoryResult{category: category, item: trimSummary(item), ok: true})
			mu.Unlock()
		}(category, url)
	}
	wg.Wait()

	if len(results) == 0 {
		return nil, fmt.Errorf("aggregate digest: %w", core.ErrEmptySource)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].category < results[j].category
	})

	items := make([]core.FeedItem, 0, len(results))
	for _, r := range results {
		if r.ok {
			items = append(items, r.item)
		}
	}

	return &core.AggregatedResult{
		Items:       items,
		GeneratedAt: a.now(),
		TotalCount:  len(items),
	}, nil
}

// pickTodayFirst prefers the first item published on day; otherwise it
// falls back to the first item overall.
func pickTodayFirst(items []core.FeedItem, day time.Time) core.FeedItem {
	y, m, d := day.Date()
	for _, item := range items {
		if item.PublishedAt == nil {
			continue
		}
		py, pm, pd := item.PublishedAt.Local().Date()
		if py == y && pm == m && pd == d {
			return item
		}
	}
	return items[0]
}

func trimSummary(item core.FeedItem) core.FeedItem {
	summary := strings.TrimSpace(item.Summary)
	if runes := []rune(summary); len(runes) > summaryLimit {
		summary = string(runes[:summaryLimit]) + "…"
	}
	item.Summary = summary
	return item
}

func (a *Aggregator) now() time.Time {
	if a != nil && a.Clock != nil {
		return a.Clock()
	}
	return time.Now().UTC()
}
