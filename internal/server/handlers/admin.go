package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/factlens/factlens/internal/errors"
	"github.com/factlens/factlens/internal/observability"
)

// ClearResponse is the body of POST /admin/clear.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}

// ClearHandler wipes the cache and limiter stores. An empty Token
// leaves the endpoint unauthenticated.
type ClearHandler struct {
	Gateway Gateway
	Token   string
}

func (h *ClearHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Token != "" {
		supplied := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(h.Token)) != 1 {
			respondWithError(w, r, apperrors.NewUnauthorizedError("missing or invalid admin token"))
			return
		}
	}

	h.Gateway.Clear()

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("gateway stores cleared",
			zap.String("client", clientID(r)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ClearResponse{Cleared: true})
}
