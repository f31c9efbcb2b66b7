package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openRouterDefaultModel   = "anthropic/claude-3.7-sonnet"
	openRouterDefaultBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterProvider implements Provider using the OpenRouter chat
// completions API. OpenRouter fronts many upstream models behind one
// endpoint, so a single provider instance can serve requests for any
// model identifier the caller selects.
type OpenRouterProvider struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

// NewOpenRouterProvider creates a Provider backed by the OpenRouter chat
// completions API. model is the default used when a request carries no
// model identifier of its own.
func NewOpenRouterProvider(apiKey, model, baseURL string) (*OpenRouterProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter provider: apiKey is required")
	}
	if model == "" {
		model = openRouterDefaultModel
	}
	if baseURL == "" {
		baseURL = openRouterDefaultBaseURL
	}
	return &OpenRouterProvider{
		client:  &http.Client{Timeout: 120 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Name returns the provider name.
func (p *OpenRouterProvider) Name() string { return "openrouter" }

// DefaultModel returns the default model for this provider.
func (p *OpenRouterProvider) DefaultModel() string { return p.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// Complete sends a chat completion request and returns the response.
// Transport failures, non-2xx statuses, malformed bodies, and responses
// without choices all surface as errors; callers see one uniform failure
// channel regardless of which layer broke.
func (p *OpenRouterProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter complete: marshal: %w", err)
	}

	start := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openrouter complete: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter complete: http: %w", err)
	}
	defer httpResp.Body.Close()
	durationMS := time.Since(start).Milliseconds()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("openrouter complete: read body: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(raw, &chatResp); err != nil {
		if httpResp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("openrouter complete: status %d", httpResp.StatusCode)
		}
		return nil, fmt.Errorf("openrouter complete: unmarshal: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("openrouter complete: API error (code %d): %s", chatResp.Error.Code, chatResp.Error.Message)
	}

	if httpResp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("openrouter complete: status %d", httpResp.StatusCode)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openrouter complete: no choices in response")
	}

	return &CompletionResponse{
		Content:      chatResp.Choices[0].Message.Content,
		Model:        chatResp.Model,
		InputTokens:  chatResp.Usage.PromptTokens,
		OutputTokens: chatResp.Usage.CompletionTokens,
		DurationMS:   durationMS,
	}, nil
}
