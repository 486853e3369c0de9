package core

import (
	"errors"
	"strings"
	"time"
)

// Sentinel errors shared across the core packages. The server layer maps
// these onto HTTP error envelopes; core code wraps them with context.
var (
	// ErrInvalidInput marks empty or whitespace-only request text.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited marks a request denied by the per-client limiter.
	ErrRateLimited = errors.New("rate limited")

	// ErrQuotaExceeded marks an upstream quota or rate-limit rejection,
	// surfaced to users distinctly from generic upstream failures.
	ErrQuotaExceeded = errors.New("upstream quota exceeded")

	// ErrEmptySource marks a feed or generation source that returned
	// nothing usable.
	ErrEmptySource = errors.New("empty source")
)

// RateLimitError carries the retry hint alongside the denial. It
// unwraps to ErrRateLimited.
type RateLimitError struct {
	ClientID          string
	RetryAfterSeconds int
}

func (e *RateLimitError) Error() string {
	return "client " + e.ClientID + ": " + ErrRateLimited.Error()
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// FeedItem is one entry from an upstream news feed.
type FeedItem struct {
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Link        string     `json:"link"`
	SourceName  string     `json:"source_name"`
	Category    string     `json:"category,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// TitleKey returns the deduplication identity for an item: the
// case-folded, trimmed title.
func (i FeedItem) TitleKey() string {
	return strings.ToLower(strings.TrimSpace(i.Title))
}

// AggregatedResult is the composed output of one feed aggregation. It is
// immutable once stored in the cache and replaced wholesale on the next miss.
type AggregatedResult struct {
	Items       []FeedItem `json:"items"`
	GeneratedAt time.Time  `json:"generated_at"`
	TotalCount  int        `json:"total_count"`
}

// Stats is a read-only snapshot of gateway state for health reporting.
type Stats struct {
	CacheEntries   int `json:"cache_entries"`
	LimiterEntries int `json:"limiter_entries"`
}
