package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/bills-tracker/internal/common"
	"github.com/joseph-ayodele/bills-tracker/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1/",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, completion(`{"bills":[]}`))
	})

	content, err := c.Complete(context.Background(), llm.CompletionRequest{
		System:      "system prompt",
		User:        "Netflix 199",
		Temperature: 0.1,
		MaxTokens:   1024,
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"bills":[]}`, content)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "system prompt"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "Netflix 199"}, got.Messages[1])
	assert.InDelta(t, 0.1, got.Temperature, 0.0001)
	assert.Equal(t, 1024, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestClient_Complete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"slow down"}}`,
			check: func(t *testing.T, err error) {
				var up *common.UpstreamError
				require.ErrorAs(t, err, &up)
				assert.Equal(t, http.StatusTooManyRequests, up.Status)
				assert.Contains(t, up.Body, "slow down")
			},
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"choices":[]}`,
			check: func(t *testing.T, err error) {
				var em *common.EmptyResponseError
				assert.ErrorAs(t, err, &em)
			},
		},
		{
			name:   "blank content",
			status: http.StatusOK,
			body:   completion("   "),
			check: func(t *testing.T, err error) {
				var em *common.EmptyResponseError
				assert.ErrorAs(t, err, &em)
			},
		},
		{
			name:   "envelope not json",
			status: http.StatusOK,
			body:   "<html>gateway</html>",
			check: func(t *testing.T, err error) {
				var mf *common.MalformedResponseError
				assert.ErrorAs(t, err, &mf)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Complete(context.Background(), llm.CompletionRequest{User: "x"})
			require.Error(t, err)
			assert.True(t, common.IsExtractionFailure(err))
			tt.check(t, err)
		})
	}
}

func TestClient_Name(t *testing.T) {
	c := NewClient(Config{APIKey: "k", Model: "llama"}, nil)
	assert.Equal(t, "openai:llama", c.Name())
}
