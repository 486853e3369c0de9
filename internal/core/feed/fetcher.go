package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/factlens/factlens/internal/core"
)

// Fetcher retrieves the ordered items of one feed.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]core.FeedItem, error)
}

// defaultUserAgent is sent on every feed request; some aggregator
// endpoints reject parsers without a browser-like agent.
const defaultUserAgent = "Mozilla/5.0 (FactLens NewsBot)"

// RSSFetcher fetches and parses RSS/Atom feeds.
type RSSFetcher struct {
	UserAgent string
	Timeout   time.Duration
}

// NewRSSFetcher constructs a fetcher with default headers.
func NewRSSFetcher() *RSSFetcher {
	return &RSSFetcher{
		UserAgent: defaultUserAgent,
		Timeout:   15 * time.Second,
	}
}

// Fetch retrieves feedURL and maps its entries to core items, preserving
// source order.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]core.FeedItem, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(feedURL) == "" {
		return nil, fmt.Errorf("fetch feed: url is required")
	}

	if f != nil && f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	parser := gofeed.NewParser()
	if f != nil && f.UserAgent != "" {
		parser.UserAgent = f.UserAgent
	}

	parsed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	items := make([]core.FeedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}

		var publishedAt *time.Time
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = item.UpdatedParsed
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		sourceName := parsed.Title
		if item.Custom != nil {
			if src, ok := item.Custom["source"]; ok && src != "" {
				sourceName = src
			}
		}

		items = append(items, core.FeedItem{
			Title:       item.Title,
			Summary:     summary,
			Link:        item.Link,
			SourceName:  sourceName,
			PublishedAt: publishedAt,
		})
	}

	return items, nil
}
