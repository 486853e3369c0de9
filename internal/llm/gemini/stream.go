package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"google.golang.org/genai"

	"github.com/factlens/factlens/internal/core"
	"github.com/factlens/factlens/internal/core/relay"
)

// stream adapts the push-style response sequence of the genai SDK to
// the relay's pull-based contract.
type stream struct {
	mu   sync.Mutex
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
	done bool
}

func newStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{next: next, stop: stop}
}

// Recv returns the next non-empty text fragment. Responses carrying no
// text, such as pure tool-use turns, are skipped.
func (s *stream) Recv(ctx context.Context) (relay.Chunk, error) {
	if s == nil {
		return relay.Chunk{}, fmt.Errorf("gemini stream recv: nil stream")
	}
	if err := ctx.Err(); err != nil {
		return relay.Chunk{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.done {
			return relay.Chunk{}, io.EOF
		}

		resp, err, ok := s.next()
		if !ok {
			s.done = true
			return relay.Chunk{}, io.EOF
		}
		if err != nil {
			s.done = true
			return relay.Chunk{}, classifyError(err)
		}

		delta := responseText(resp)
		if delta == "" {
			continue
		}
		return relay.Chunk{Delta: delta}, nil
	}
}

// Close releases the underlying sequence. Safe to call more than once.
func (s *stream) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.done {
		s.done = true
	}
	if s.stop != nil {
		s.stop()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var out string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			out += part.Text
		}
	}
	return out
}

// classifyError maps quota rejections onto core.ErrQuotaExceeded so
// callers can surface retry guidance instead of a generic failure.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return fmt.Errorf("gemini stream: %w: %s", core.ErrQuotaExceeded, apiErr.Message)
		}
	}
	return fmt.Errorf("gemini stream: %w", err)
}

var _ relay.Stream = (*stream)(nil)
