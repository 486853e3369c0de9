// Package gemini implements the relay's generation capability against
// the Google Gemini streaming API.
package gemini

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/genai"

	"github.com/factlens/factlens/internal/core/relay"
)

// DefaultModel is used when configuration does not name one.
const DefaultModel = "gemini-2.5-flash"

// Config carries the provider tunables.
type Config struct {
	// APIKey is the Gemini credential.
	APIKey string
	// Model names the generation model. Zero defaults to DefaultModel.
	Model string
	// GoogleSearch enables the Google Search grounding tool, letting
	// the model verify claims against current results.
	GoogleSearch bool
}

type modelsClient interface {
	GenerateContentStream(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Provider streams generated text from the Gemini API.
type Provider struct {
	models       modelsClient
	model        string
	googleSearch bool
}

// New constructs a Gemini-backed provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("new gemini provider: missing api key")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	if client == nil || client.Models == nil {
		return nil, fmt.Errorf("new gemini client: models client is nil")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &Provider{
		models:       client.Models,
		model:        model,
		googleSearch: cfg.GoogleSearch,
	}, nil
}

// GenerateStream starts one streaming generation request.
func (p *Provider) GenerateStream(ctx context.Context, prompt, systemInstruction string) (relay.Stream, error) {
	if p == nil || p.models == nil {
		return nil, fmt.Errorf("gemini generate stream: provider is not configured")
	}
	if ctx == nil {
		return nil, fmt.Errorf("gemini generate stream: nil context")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("gemini generate stream: empty prompt")
	}

	config := &genai.GenerateContentConfig{}
	if strings.TrimSpace(systemInstruction) != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}
	if p.googleSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	contents := []*genai.Content{{
		Role:  string(genai.RoleUser),
		Parts: []*genai.Part{{Text: prompt}},
	}}

	seq := p.models.GenerateContentStream(ctx, p.model, contents, config)
	if seq == nil {
		return nil, fmt.Errorf("gemini generate stream: stream is nil")
	}

	return newStream(seq), nil
}

var _ relay.Generator = (*Provider)(nil)
