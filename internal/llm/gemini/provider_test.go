package gemini

import (
	"context"
	"errors"
	"io"
	"iter"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/factlens/factlens/internal/core"
)

type fakeModels struct {
	lastModel    string
	lastContents []*genai.Content
	lastConfig   *genai.GenerateContentConfig

	responses []*genai.GenerateContentResponse
	err       error
}

func (f *fakeModels) GenerateContentStream(
	_ context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.lastModel = model
	f.lastContents = contents
	f.lastConfig = config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, resp := range f.responses {
			if !yield(resp, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func newTestProvider(models *fakeModels, googleSearch bool) *Provider {
	return &Provider{
		models:       models,
		model:        DefaultModel,
		googleSearch: googleSearch,
	}
}

func TestGenerateStreamDeliversFragmentsInOrder(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		textResponse("Hola "),
		textResponse("mundo"),
	}}
	provider := newTestProvider(models, false)

	stream, err := provider.GenerateStream(context.Background(), "saludo", "")
	require.NoError(t, err)
	defer stream.Close() // nolint:errcheck

	first, err := stream.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Hola ", first.Delta)

	second, err := stream.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, "mundo", second.Delta)

	_, err = stream.Recv(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestGenerateStreamSkipsResponsesWithoutText(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		{},
		textResponse(""),
		textResponse("answer"),
	}}
	provider := newTestProvider(models, false)

	stream, err := provider.GenerateStream(context.Background(), "question", "")
	require.NoError(t, err)
	defer stream.Close() // nolint:errcheck

	chunk, err := stream.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, "answer", chunk.Delta)
}

func TestGenerateStreamWiresSystemInstructionAndSearchTool(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{textResponse("ok")}}
	provider := newTestProvider(models, true)

	_, err := provider.GenerateStream(context.Background(), "question", "answer briefly")
	require.NoError(t, err)

	require.Equal(t, DefaultModel, models.lastModel)
	require.Len(t, models.lastContents, 1)
	require.Equal(t, string(genai.RoleUser), models.lastContents[0].Role)
	require.Equal(t, "question", models.lastContents[0].Parts[0].Text)

	require.NotNil(t, models.lastConfig.SystemInstruction)
	require.Equal(t, "answer briefly", models.lastConfig.SystemInstruction.Parts[0].Text)
	require.Len(t, models.lastConfig.Tools, 1)
	require.NotNil(t, models.lastConfig.Tools[0].GoogleSearch)
}

func TestGenerateStreamOmitsSearchToolWhenDisabled(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{textResponse("ok")}}
	provider := newTestProvider(models, false)

	_, err := provider.GenerateStream(context.Background(), "question", "")
	require.NoError(t, err)
	require.Empty(t, models.lastConfig.Tools)
	require.Nil(t, models.lastConfig.SystemInstruction)
}

func TestGenerateStreamRejectsEmptyPrompt(t *testing.T) {
	provider := newTestProvider(&fakeModels{}, false)
	_, err := provider.GenerateStream(context.Background(), "   ", "")
	require.Error(t, err)
}

func TestRecvClassifiesQuotaErrors(t *testing.T) {
	models := &fakeModels{err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}}
	provider := newTestProvider(models, false)

	stream, err := provider.GenerateStream(context.Background(), "question", "")
	require.NoError(t, err)
	defer stream.Close() // nolint:errcheck

	_, err = stream.Recv(context.Background())
	require.ErrorIs(t, err, core.ErrQuotaExceeded)
}

func TestRecvKeepsGenericErrorsGeneric(t *testing.T) {
	models := &fakeModels{err: errors.New("connection reset")}
	provider := newTestProvider(models, false)

	stream, err := provider.GenerateStream(context.Background(), "question", "")
	require.NoError(t, err)
	defer stream.Close() // nolint:errcheck

	_, err = stream.Recv(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, core.ErrQuotaExceeded)
}

func TestRecvAfterCloseReturnsEOF(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{textResponse("never read")}}
	provider := newTestProvider(models, false)

	stream, err := provider.GenerateStream(context.Background(), "question", "")
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	_, err = stream.Recv(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestRecvHonorsCanceledContext(t *testing.T) {
	models := &fakeModels{responses: []*genai.GenerateContentResponse{textResponse("ok")}}
	provider := newTestProvider(models, false)

	stream, err := provider.GenerateStream(context.Background(), "question", "")
	require.NoError(t, err)
	defer stream.Close() // nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = stream.Recv(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
