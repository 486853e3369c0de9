package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/factlens/factlens/internal/config"
	"github.com/factlens/factlens/internal/core"
	"github.com/factlens/factlens/internal/core/gateway"
	"github.com/factlens/factlens/internal/core/relay"
	apperrors "github.com/factlens/factlens/internal/errors"
	"github.com/factlens/factlens/internal/server/handlers"
)

type stubGateway struct {
	askFn   func(ctx context.Context, clientID, question string, sink relay.Sink) (bool, error)
	newsFn  func(ctx context.Context, clientID string) (*gateway.NewsResult, error)
	cleared bool
	stats   core.Stats
}

func (s *stubGateway) Ask(ctx context.Context, clientID, question string, sink relay.Sink) (bool, error) {
	if s.askFn != nil {
		return s.askFn(ctx, clientID, question, sink)
	}
	return false, nil
}

func (s *stubGateway) News(ctx context.Context, clientID string) (*gateway.NewsResult, error) {
	if s.newsFn != nil {
		return s.newsFn(ctx, clientID)
	}
	return &gateway.NewsResult{}, nil
}

func (s *stubGateway) Clear()            { s.cleared = true }
func (s *stubGateway) Stats() core.Stats { return s.stats }

func newTestServer(t *testing.T, gw handlers.Gateway, adminToken string) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Admin.Token = adminToken

	health := handlers.NewHealthManager("test")
	if provider, ok := gw.(handlers.StatsProvider); ok {
		health.SetGatewayInfo(provider, true)
	}

	return New(cfg, gw, health)
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, "")

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", decodeErrorResponse(t, rec).Error.Code)
}

func TestAskRejectsWrongMethod(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/ask", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "METHOD_NOT_ALLOWED", decodeErrorResponse(t, rec).Error.Code)
}

func TestAskStreamsFragments(t *testing.T) {
	gw := &stubGateway{
		askFn: func(_ context.Context, _, question string, sink relay.Sink) (bool, error) {
			require.Equal(t, "saludo", question)
			require.NoError(t, sink.Write("Hola "))
			require.NoError(t, sink.Write("mundo"))
			return false, nil
		},
	}
	srv := newTestServer(t, gw, "")

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"saludo"}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "Hola mundo", rec.Body.String())
	require.True(t, rec.Flushed)
}

func TestAskEmptyQuestionReturnsInvalidInput(t *testing.T) {
	gw := &stubGateway{
		askFn: func(_ context.Context, _, _ string, _ relay.Sink) (bool, error) {
			return false, core.ErrInvalidInput
		},
	}
	srv := newTestServer(t, gw, "")

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"   "}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_INPUT", decodeErrorResponse(t, rec).Error.Code)
}

func TestAskMalformedBodyReturnsInvalidInput(t *testing.T) {
	srv := newTestServer(t, &stubGateway{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "INVALID_INPUT", decodeErrorResponse(t, rec).Error.Code)
}

func TestAskRateLimitedReturns429WithRetryHint(t *testing.T) {
	gw := &stubGateway{
		askFn: func(_ context.Context, _, _ string, _ relay.Sink) (bool, error) {
			return false, &core.RateLimitError{ClientID: "192.0.2.1", RetryAfterSeconds: 30}
		},
	}
	srv := newTestServer(t, gw, "")

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"hola"}`))
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "30", rec.Header().Get("Retry-After"))

	body := decodeErrorResponse(t, rec)
	require.Equal(t, "RATE_LIMITED", body.Error.Code)
	require.EqualValues(t, 30, body.Error.Details["retry_after_seconds"])
}

func TestNewsReturnsRenderedCards(t *testing.T) {
	published := mustParseTime(t, "2026-08-28T08:00:00Z")
	gw := &stubGateway{
		newsFn: func(_ context.Context, _ string) (*gateway.NewsResult, error) {
			return &gateway.NewsResult{
				Result: &core.AggregatedResult{
					Items: []core.FeedItem{
						{Title: "Breaking <News>", Link: "https://example.com/a", SourceName: "Example", PublishedAt: &published},
					},
					TotalCount: 1,
				},
				Cached: true,
			}, nil
		},
	}
	srv := newTestServer(t, gw, "")

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.NewsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body.Cached)
	require.Equal(t, 1, body.ItemCount)
	require.False(t, body.Error)
	require.Contains(t, body.Content, "Breaking &lt;News&gt;")
	require.Contains(t, body.Content, `href="https://example.com/a"`)
	require.NotEmpty(t, body.Date)
}

func TestNewsDegradesToErrorCardOnFailure(t *testing.T) {
	gw := &stubGateway{
		newsFn: func(_ context.Context, _ string) (*gateway.NewsResult, error) {
			return nil, core.ErrEmptySource
		},
	}
	srv := newTestServer(t, gw, "")

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body handlers.NewsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body.Error)
	require.Contains(t, body.Content, "news-card-error")
}

func TestHealthReportsGatewayStats(t *testing.T) {
	gw := &stubGateway{stats: core.Stats{CacheEntries: 3, LimiterEntries: 2}}
	srv := newTestServer(t, gw, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "healthy", body.Status)
	require.Equal(t, 3, body.CacheEntries)
	require.Equal(t, 2, body.LimiterEntries)
	require.True(t, body.HasUpstreamCredential)
	require.NotEmpty(t, body.Timestamp)
}

func TestAdminClearRequiresToken(t *testing.T) {
	gw := &stubGateway{}
	srv := newTestServer(t, gw, "secret")

	req := httptest.NewRequest(http.MethodPost, "/admin/clear", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "UNAUTHORIZED", decodeErrorResponse(t, rec).Error.Code)
	require.False(t, gw.cleared)
}

func TestAdminClearWithValidToken(t *testing.T) {
	gw := &stubGateway{}
	srv := newTestServer(t, gw, "secret")

	req := httptest.NewRequest(http.MethodPost, "/admin/clear", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.ClearResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.True(t, body.Cleared)
	require.True(t, gw.cleared)
}
