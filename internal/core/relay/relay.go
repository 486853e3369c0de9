// Package relay drives a streaming text-generation upstream, forwarding
// fragments to the client as they arrive while accumulating the full
// text for caching. Consumption and forwarding run as two cooperating
// goroutines joined by a bounded channel so client disconnects stop
// upstream work promptly instead of silently burning quota.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/factlens/factlens/internal/core"
	"github.com/factlens/factlens/internal/core/cache"
)

// User-visible texts written to the sink. Upstream failures always
// produce a well-formed terminal fragment, never a hung stream.
const (
	// FallbackText substitutes an upstream run that produced zero
	// fragments. It is cached like a real answer.
	FallbackText = "No answer could be produced for this question. Please try again later."

	// QuotaText is appended when the upstream rejects for quota.
	QuotaText = "\nThe verification service is busy right now. Please try again in a few minutes."

	// FailureText is appended on any other upstream failure.
	FailureText = "\nSomething went wrong while checking this. Please try again."
)

// ErrSinkClosed reports that the client went away mid-stream. The relay
// stops consuming upstream fragments when it sees this.
var ErrSinkClosed = errors.New("sink closed")

// defaultChunkBuffer bounds in-flight fragments between the upstream
// consumer and the sink writer.
const defaultChunkBuffer = 16

// Chunk carries one incremental text fragment from the upstream.
type Chunk struct {
	Delta string
}

// Stream is a pull-based sequence of generated fragments. Recv returns
// io.EOF when the stream completes normally.
type Stream interface {
	Recv(ctx context.Context) (Chunk, error)
	Close() error
}

// Generator starts one streaming generation request. Implementations
// wrap provider transports; quota rejections must unwrap to
// core.ErrQuotaExceeded.
type Generator interface {
	GenerateStream(ctx context.Context, prompt, systemInstruction string) (Stream, error)
}

// Sink accepts ordered text fragments bound for the client. Write
// returns an error once the client has disconnected; later writes are
// expected to be no-ops upstream of the relay.
type Sink interface {
	Write(fragment string) error
}

// Relay resolves questions against the cache first and streams from the
// generator on a miss.
type Relay struct {
	Cache       *cache.Cache
	Generator   Generator
	ChunkBuffer int
}

// New constructs a Relay over cache and generator.
func New(c *cache.Cache, g Generator) *Relay {
	return &Relay{Cache: c, Generator: g}
}

// Key returns the normalized cache key for a question.
func Key(question string) string {
	return "ask:" + strings.ToLower(strings.TrimSpace(question))
}

// Relay answers question through sink. On a cache hit the full cached
// text is written in one shot. On a miss the upstream stream is
// forwarded fragment by fragment, in arrival order, and the accumulated
// text is committed to the cache once the stream completes. The returned
// text is the full answer; cached reports whether it came from cache.
//
// Upstream failures return a classified error after writing a terminal
// user-visible fragment; nothing is cached for that question.
func (r *Relay) Relay(ctx context.Context, question, systemInstruction string, sink Sink) (fullText string, cached bool, err error) {
	if r == nil || r.Generator == nil {
		return "", false, fmt.Errorf("relay is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if sink == nil {
		return "", false, fmt.Errorf("relay: sink is required")
	}

	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return "", false, fmt.Errorf("relay: question is empty: %w", core.ErrInvalidInput)
	}

	key := Key(trimmed)
	if r.Cache != nil {
		if value, ok := r.Cache.Get(key); ok {
			if text, ok := value.(string); ok {
				if writeErr := sink.Write(text); writeErr != nil {
					return text, true, fmt.Errorf("relay cached answer: %w", ErrSinkClosed)
				}
				return text, true, nil
			}
		}
	}

	stream, err := r.Generator.GenerateStream(ctx, trimmed, systemInstruction)
	if err != nil {
		r.writeFailure(sink, err)
		return "", false, fmt.Errorf("relay generate: %w", err)
	}

	full, err := r.forward(ctx, stream, sink)
	if err != nil {
		if errors.Is(err, ErrSinkClosed) {
			// Client went away; nothing more to deliver and nothing
			// worth caching for a partial read.
			return full, false, err
		}
		r.writeFailure(sink, err)
		return full, false, err
	}

	if full == "" {
		full = FallbackText
		if writeErr := sink.Write(full); writeErr != nil {
			return full, false, fmt.Errorf("relay fallback: %w", ErrSinkClosed)
		}
	}

	if r.Cache != nil {
		r.Cache.Set(key, full)
	}
	return full, false, nil
}

// forward pumps stream into sink until exhaustion, cancellation, or sink
// closure, returning the accumulated text.
func (r *Relay) forward(ctx context.Context, stream Stream, sink Sink) (string, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	buffer := defaultChunkBuffer
	if r != nil && r.ChunkBuffer > 0 {
		buffer = r.ChunkBuffer
	}

	fragments := make(chan string, buffer)
	recvErr := make(chan error, 1)

	go func() {
		defer close(fragments)
		defer stream.Close() // nolint:errcheck // best-effort release of upstream resources

		for {
			chunk, err := stream.Recv(streamCtx)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					recvErr <- err
				}
				return
			}
			if chunk.Delta == "" {
				continue
			}
			select {
			case fragments <- chunk.Delta:
			case <-streamCtx.Done():
				return
			}
		}
	}()

	var accumulated strings.Builder
	for fragment := range fragments {
		accumulated.WriteString(fragment)
		if err := sink.Write(fragment); err != nil {
			// Stop the producer and drain so its goroutine exits.
			cancel()
			for range fragments {
			}
			return accumulated.String(), fmt.Errorf("relay forward: %w", ErrSinkClosed)
		}
	}

	select {
	case err := <-recvErr:
		return accumulated.String(), fmt.Errorf("relay stream: %w", err)
	default:
	}

	if err := ctx.Err(); err != nil {
		return accumulated.String(), fmt.Errorf("relay forward: %w", ErrSinkClosed)
	}

	return accumulated.String(), nil
}

// writeFailure appends the user-visible terminal fragment for err. Write
// errors are ignored; the client is already gone.
func (r *Relay) writeFailure(sink Sink, err error) {
	text := FailureText
	if errors.Is(err, core.ErrQuotaExceeded) {
		text = QuotaText
	}
	_ = sink.Write(text)
}
