package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/hirescope/hirescope/internal/errors"
	"github.com/hirescope/hirescope/internal/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// OpenAIClient implements Completer using the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// OpenAIOption configures the client.
type OpenAIOption func(*OpenAIClient)

func WithBaseURL(url string) OpenAIOption {
	return func(c *OpenAIClient) { c.baseURL = url }
}

func WithModel(model string) OpenAIOption {
	return func(c *OpenAIClient) { c.model = model }
}

func WithHTTPClient(hc *http.Client) OpenAIOption {
	return func(c *OpenAIClient) { c.client = hc }
}

func WithLogger(l zerolog.Logger) OpenAIOption {
	return func(c *OpenAIClient) { c.logger = l.With().Str("component", "llm").Logger() }
}

func WithMetrics(m *metrics.Metrics) OpenAIOption {
	return func(c *OpenAIClient) { c.metrics = m }
}

// NewOpenAIClient constructs a new OpenAI completions client.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string { return c.model }

// ---- wire types ----

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	ResponseFormat responseFormat `json:"response_format"`
	Messages       []chatMessage  `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CompleteJSON sends a blocking completion request in JSON mode and returns
// the raw JSON object the model produced.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (json.RawMessage, error) {
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		ResponseFormat: responseFormat{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.record("error")
		return nil, fmt.Errorf("llm http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record("error")
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.record("error")
		return nil, perrors.NewAPIError("llm", resp.StatusCode, string(raw[:min(len(raw), 512)]))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		c.record("error")
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if cr.Error != nil {
		c.record("error")
		return nil, perrors.Wrap(perrors.ErrUpstream, "llm api error %s: %s", cr.Error.Type, cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		c.record("error")
		return nil, perrors.Wrap(perrors.ErrUpstream, "llm returned no choices")
	}

	content := cr.Choices[0].Message.Content
	if !json.Valid([]byte(content)) {
		c.record("error")
		return nil, perrors.Wrap(perrors.ErrUpstream, "llm returned malformed JSON")
	}

	c.logger.Debug().
		Str("model", c.model).
		Str("finish_reason", cr.Choices[0].FinishReason).
		Int("prompt_tokens", cr.Usage.PromptTokens).
		Int("completion_tokens", cr.Usage.CompletionTokens).
		Msg("llm completion")

	c.record("ok")
	return json.RawMessage(content), nil
}

func (c *OpenAIClient) record(status string) {
	if c.metrics != nil {
		c.metrics.RecordLLMRequest(status)
	}
}
