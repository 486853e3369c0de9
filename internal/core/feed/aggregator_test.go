package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factlens/factlens/internal/core"
)

type fakeFetcher struct {
	feeds map[string][]core.FeedItem
	errs  map[string]error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]core.FeedItem, error) {
	f.calls++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	return f.feeds[url], nil
}

func item(title string, published *time.Time) core.FeedItem {
	return core.FeedItem{
		Title:       title,
		Summary:     "summary of " + title,
		Link:        "https://example.com/" + strings.ReplaceAll(title, " ", "-"),
		SourceName:  "Example News",
		PublishedAt: published,
	}
}

func TestHeadlinesDeduplicatesByNormalizedTitle(t *testing.T) {
	fetcher := &fakeFetcher{feeds: map[string][]core.FeedItem{
		"feed": {
			item("Breaking News", nil),
			item("  BREAKING NEWS ", nil),
			item("Other Story", nil),
		},
	}}
	agg := New(fetcher)

	result, err := agg.Headlines(context.Background(), "feed", 5)
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalCount)
	require.Equal(t, "Breaking News", result.Items[0].Title, "first-seen item wins")
	require.Equal(t, "Other Story", result.Items[1].Title)
}

func TestHeadlinesCapsResults(t *testing.T) {
	items := make([]core.FeedItem, 0, 10)
	for i := 0; i < 10; i++ {
		items = append(items, item(fmt.Sprintf("story %d", i), nil))
	}
	fetcher := &fakeFetcher{feeds: map[string][]core.FeedItem{"feed": items}}
	agg := New(fetcher)

	result, err := agg.Headlines(context.Background(), "feed", 5)
	require.NoError(t, err)
	require.Len(t, result.Items, 5)
}

func TestHeadlinesEmptyFeedFails(t *testing.T) {
	fetcher := &fakeFetcher{feeds: map[string][]core.FeedItem{"feed": {}}}
	agg := New(fetcher)

	_, err := agg.Headlines(context.Background(), "feed", 5)
	require.ErrorIs(t, err, core.ErrEmptySource)
}

func TestHeadlinesFetchFailurePropagates(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{"feed": errors.New("connection refused")}}
	agg := New(fetcher)

	_, err := agg.Headlines(context.Background(), "feed", 5)
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrEmptySource)
}

func TestDigestToleratesPartialFailure(t *testing.T) {
	feeds := make(map[string][]core.FeedItem)
	sources := make(map[string]string)
	for i := 1; i <= 5; i++ {
		url := fmt.Sprintf("feed-%d", i)
		sources[fmt.Sprintf("category-%d", i)] = url
		feeds[url] = []core.FeedItem{item(fmt.Sprintf("story %d", i), nil)}
	}
	fetcher := &fakeFetcher{
		feeds: feeds,
		errs:  map[string]error{"feed-3": errors.New("upstream down")},
	}
	agg := New(fetcher)

	result, err := agg.Digest(context.Background(), sources)
	require.NoError(t, err)
	require.Equal(t, 4, result.TotalCount)
	for _, got := range result.Items {
		require.NotEqual(t, "category-3", got.Category)
	}
}

func TestDigestPrefersItemPublishedToday(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)

	fetcher := &fakeFetcher{feeds: map[string][]core.FeedItem{
		"feed": {
			item("old story", &yesterday),
			item("fresh story", &now),
		},
	}}
	agg := New(fetcher)
	agg.Clock = func() time.Time { return now }

	result, err := agg.Digest(context.Background(), map[string]string{"world": "feed"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "fresh story", result.Items[0].Title)
	require.Equal(t, "world", result.Items[0].Category)
}

func TestDigestFallsBackToFirstItem(t *testing.T) {
	yesterday := time.Now().AddDate(0, 0, -1)
	fetcher := &fakeFetcher{feeds: map[string][]core.FeedItem{
		"feed": {
			item("first story", &yesterday),
			item("second story", &yesterday),
		},
	}}
	agg := New(fetcher)

	result, err := agg.Digest(context.Background(), map[string]string{"world": "feed"})
	require.NoError(t, err)
	require.Equal(t, "first story", result.Items[0].Title)
}

func TestDigestAllSourcesFailed(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{
		"feed-a": errors.New("down"),
		"feed-b": errors.New("down"),
	}}
	agg := New(fetcher)

	_, err := agg.Digest(context.Background(), map[string]string{
		"a": "feed-a",
		"b": "feed-b",
	})
	require.ErrorIs(t, err, core.ErrEmptySource)
}

func TestDigestCategoriesAreOrdered(t *testing.T) {
	fetcher := &fakeFetcher{feeds: map[string][]core.FeedItem{
		"feed-a": {item("a story", nil)},
		"feed-b": {item("b story", nil)},
		"feed-c": {item("c story", nil)},
	}}
	agg := New(fetcher)

	result, err := agg.Digest(context.Background(), map[string]string{
		"c": "feed-c",
		"a": "feed-a",
		"b": "feed-b",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, []string{
		result.Items[0].Category,
		result.Items[1].Category,
		result.Items[2].Category,
	})
}
