package handlers

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/factlens/factlens/internal/core"
	apperrors "github.com/factlens/factlens/internal/errors"
	"github.com/factlens/factlens/internal/metrics"
	"github.com/factlens/factlens/internal/observability"
)

// newsDateLayout renders "Monday, 2 January".
const newsDateLayout = "Monday, 2 January"

// NewsResponse is the body of GET /api/news. Content carries
// pre-rendered HTML cards ready for embedding.
type NewsResponse struct {
	Content   string `json:"content"`
	Date      string `json:"date"`
	ItemCount int    `json:"item_count,omitempty"`
	Cached    bool   `json:"cached"`
	Error     bool   `json:"error,omitempty"`
}

// NewsHandler serves the aggregated front page.
type NewsHandler struct {
	Gateway Gateway
	Clock   func() time.Time
}

func (h *NewsHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

func (h *NewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.Gateway.News(r.Context(), clientID(r))
	duration := time.Since(start)

	if err != nil {
		// Rate limiting stays an envelope; aggregation failures degrade
		// to an error card so embedding pages still render something.
		if errors.Is(err, core.ErrRateLimited) {
			metrics.RecordOperation("news", false, false)
			respondWithError(w, r, apperrors.FromOperationError(r.Context(), err))
			return
		}

		metrics.RecordOperation("news", false, false)
		metrics.RecordOperationDuration("news", duration)
		if observability.ServerLogger != nil {
			observability.ServerLogger.Error("news aggregation failed",
				zap.Error(err),
				zap.Duration("duration", duration))
		}

		response := NewsResponse{
			Content: renderErrorCard(),
			Date:    h.now().Format(newsDateLayout),
			Error:   true,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(response)
		return
	}

	metrics.RecordOperation("news", true, result.Cached)
	metrics.RecordOperationDuration("news", duration)

	response := NewsResponse{
		Content:   renderCards(result.Result.Items),
		Date:      h.now().Format(newsDateLayout),
		ItemCount: result.Result.TotalCount,
		Cached:    result.Cached,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// renderCards builds the HTML card markup for the aggregated items.
func renderCards(items []core.FeedItem) string {
	var b strings.Builder
	b.WriteString(`<div class="news-cards">`)
	for _, item := range items {
		b.WriteString(`<div class="news-card">`)
		if item.Category != "" {
			b.WriteString(`<span class="news-category">`)
			b.WriteString(html.EscapeString(item.Category))
			b.WriteString(`</span>`)
		}
		b.WriteString(`<h3>`)
		if item.Link != "" {
			b.WriteString(`<a href="`)
			b.WriteString(html.EscapeString(item.Link))
			b.WriteString(`" target="_blank" rel="noopener">`)
			b.WriteString(html.EscapeString(item.Title))
			b.WriteString(`</a>`)
		} else {
			b.WriteString(html.EscapeString(item.Title))
		}
		b.WriteString(`</h3>`)
		if item.Summary != "" {
			b.WriteString(`<p>`)
			b.WriteString(html.EscapeString(item.Summary))
			b.WriteString(`</p>`)
		}
		if item.SourceName != "" {
			b.WriteString(`<span class="news-source">`)
			b.WriteString(html.EscapeString(item.SourceName))
			b.WriteString(`</span>`)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func renderErrorCard() string {
	return `<div class="news-cards"><div class="news-card news-card-error">` +
		`<p>News is unavailable right now. Please try again later.</p>` +
		`</div></div>`
}
