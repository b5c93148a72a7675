package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

// openAIProvider implements the Provider interface on top of the go-openai
// client. It serves OpenAI itself and any OpenAI-compatible API (Mistral).
type openAIProvider struct {
	name   string
	config ProviderConfig
	client *openai.Client
	hints  *retryAfterRecorder
}

// newOpenAI creates a new OpenAI provider.
func newOpenAI(cfg ProviderConfig) *openAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return newOpenAICompatible("openai", cfg)
}

// newOpenAICompatible builds a chat-completions provider for the given
// base URL. The HTTP transport records Retry-After headers, which go-openai
// does not expose on its error types.
func newOpenAICompatible(name string, cfg ProviderConfig) *openAIProvider {
	hints := &retryAfterRecorder{next: http.DefaultTransport}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: 120 * time.Second, Transport: hints}

	return &openAIProvider{
		name:   name,
		config: cfg,
		client: openai.NewClientWithConfig(oc),
		hints:  hints,
	}
}

func (p *openAIProvider) Name() string { return p.name }

// Generate sends a chat completion request in JSON mode and returns the
// assistant's reply text.
func (p *openAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

// wrapError converts go-openai's error types into an APIError so the
// client can classify them by status code.
func (p *openAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   p.name,
			StatusCode: apiErr.HTTPStatusCode,
			RetryAfter: p.hints.last(),
			Body:       truncate(apiErr.Message, maxErrorBody),
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &APIError{
			Provider:   p.name,
			StatusCode: reqErr.HTTPStatusCode,
			RetryAfter: p.hints.last(),
			Body:       truncate(reqErr.Error(), maxErrorBody),
		}
	}

	return fmt.Errorf("%s request: %w", p.name, err)
}

// retryAfterRecorder is an http.RoundTripper that remembers the Retry-After
// hint of the most recent response.
type retryAfterRecorder struct {
	next http.RoundTripper

	mu   sync.Mutex
	hint time.Duration
}

func (r *retryAfterRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := r.next.RoundTrip(req)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.hint = 0
	if resp != nil {
		r.hint = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	}
	return resp, err
}

func (r *retryAfterRecorder) last() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hint
}
