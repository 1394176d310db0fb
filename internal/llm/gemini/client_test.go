package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
)

type fakeGenerator struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
	user   string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.user = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(s, genai.RoleModel)}},
	}
}

func newTestClient(g generator) *Client {
	return &Client{
		cfg:    Config{Model: "gemini-test"},
		models: g,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Complete(t *testing.T) {
	fg := &fakeGenerator{resp: textResponse(`{"bills":[]}`)}
	c := newTestClient(fg)

	out, err := c.Complete(context.Background(), llm.CompletionRequest{
		System:      "system prompt",
		User:        "Netflix 199",
		Temperature: 0.1,
		MaxTokens:   512,
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"bills":[]}`, out)

	assert.Equal(t, "gemini-test", fg.model)
	assert.Equal(t, "Netflix 199", fg.user)
	require.NotNil(t, fg.config)
	assert.Equal(t, "application/json", fg.config.ResponseMIMEType)
	assert.Equal(t, int32(512), fg.config.MaxOutputTokens)
	require.NotNil(t, fg.config.Temperature)
	assert.InDelta(t, 0.1, *fg.config.Temperature, 0.0001)
	require.NotNil(t, fg.config.SystemInstruction)
	assert.Equal(t, "system prompt", fg.config.SystemInstruction.Parts[0].Text)
}

func TestClient_Complete_Empty(t *testing.T) {
	c := newTestClient(&fakeGenerator{resp: textResponse("  ")})
	_, err := c.Complete(context.Background(), llm.CompletionRequest{User: "x"})

	var em *common.EmptyResponseError
	assert.ErrorAs(t, err, &em)
}

func TestClient_Complete_APIError(t *testing.T) {
	c := newTestClient(&fakeGenerator{err: genai.APIError{Code: 429, Message: "quota exceeded"}})
	_, err := c.Complete(context.Background(), llm.CompletionRequest{User: "x"})

	var up *common.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, 429, up.Status)
	assert.Equal(t, "quota exceeded", up.Body)
}

func TestClient_Complete_TransportError(t *testing.T) {
	c := newTestClient(&fakeGenerator{err: errors.New("dial tcp: connection refused")})
	_, err := c.Complete(context.Background(), llm.CompletionRequest{User: "x"})
	require.Error(t, err)
	assert.False(t, common.IsExtractionFailure(err))
}
