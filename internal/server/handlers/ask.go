package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/factlens/factlens/internal/errors"
	"github.com/factlens/factlens/internal/metrics"
	"github.com/factlens/factlens/internal/observability"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskHandler streams generated answers back to the caller as plain-text
// fragments.
type AskHandler struct {
	Gateway Gateway
}

// flushSink pushes each fragment to the client immediately so answers
// render progressively.
type flushSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	wrote   bool
}

func (s *flushSink) Write(fragment string) error {
	if !s.wrote {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.Header().Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.wrote = true
	}
	if _, err := io.WriteString(s.w, fragment); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "request body must be JSON with a question field"))
		return
	}

	flusher, _ := w.(http.Flusher)
	sink := &flushSink{w: w, flusher: flusher}

	cached, err := h.Gateway.Ask(r.Context(), clientID(r), req.Question, sink)
	duration := time.Since(start)

	metrics.RecordOperation("ask", err == nil, cached)
	metrics.RecordOperationDuration("ask", duration)

	if err != nil {
		// Once fragments have gone out the status line is committed;
		// the relay has already written a terminal failure fragment.
		if !sink.wrote {
			respondWithError(w, r, apperrors.FromOperationError(r.Context(), err))
			return
		}
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("ask stream ended with error",
				zap.Error(err),
				zap.Bool("cached", cached),
				zap.Duration("duration", duration))
		}
	}
}
