package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/hirescope/hirescope/internal/errors"
)

func fakeCompletions(t *testing.T, status int, body string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var last chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestCompleteJSON(t *testing.T) {
	srv, last := fakeCompletions(t, 200, `{"choices":[{"message":{"content":"{\"description\":\"a demo\",\"technologies\":[\"Go\"]}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`)
	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL), WithModel("test-model"))

	raw, err := c.CompleteJSON(context.Background(), "you summarize repos", "Repo: hello")
	require.NoError(t, err)

	var parsed struct {
		Description  string   `json:"description"`
		Technologies []string `json:"technologies"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "a demo", parsed.Description)
	assert.Equal(t, []string{"Go"}, parsed.Technologies)

	// Request shape: JSON mode, system then user message.
	assert.Equal(t, "test-model", last.Model)
	assert.Equal(t, "json_object", last.ResponseFormat.Type)
	require.Len(t, last.Messages, 2)
	assert.Equal(t, "system", last.Messages[0].Role)
	assert.Equal(t, "user", last.Messages[1].Role)
}

func TestCompleteJSON_MalformedContent(t *testing.T) {
	srv, _ := fakeCompletions(t, 200, `{"choices":[{"message":{"content":"not json at all"}}]}`)
	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL))

	_, err := c.CompleteJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, perrors.Is(err, perrors.ErrUpstream))
}

func TestCompleteJSON_APIError(t *testing.T) {
	srv, _ := fakeCompletions(t, 200, `{"error":{"type":"invalid_request_error","message":"bad model"}}`)
	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL))

	_, err := c.CompleteJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
}

func TestCompleteJSON_RateLimited(t *testing.T) {
	srv, _ := fakeCompletions(t, 429, `{"error":{"type":"rate_limit","message":"slow down"}}`)
	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL))

	_, err := c.CompleteJSON(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Equal(t, perrors.KindRateLimited, perrors.Classify(err))
	assert.True(t, perrors.IsRetryable(err))
}

func TestCompleteJSON_NoChoices(t *testing.T) {
	srv, _ := fakeCompletions(t, 200, `{"choices":[]}`)
	c := NewOpenAIClient("sk-test", WithBaseURL(srv.URL))

	_, err := c.CompleteJSON(context.Background(), "s", "u")
	require.Error(t, err)
}
