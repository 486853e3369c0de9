package handlers

import (
	"context"
	"net"
	"net/http"

	"github.com/factlens/factlens/internal/core"
	"github.com/factlens/factlens/internal/core/gateway"
	"github.com/factlens/factlens/internal/core/relay"
)

// Gateway is the request-gating surface the HTTP handlers depend on.
type Gateway interface {
	Ask(ctx context.Context, clientID, question string, sink relay.Sink) (cached bool, err error)
	News(ctx context.Context, clientID string) (*gateway.NewsResult, error)
	Clear()
	Stats() core.Stats
}

// clientID resolves the rate-limit identity for a request. The RealIP
// middleware has already rewritten RemoteAddr from forwarding headers.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
