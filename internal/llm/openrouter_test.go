package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*OpenRouterProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewOpenRouterProvider("test-key", "test/model", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenRouterProvider: %v", err)
	}
	return p, srv
}

func TestOpenRouterProvider_Complete_Success(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody string

	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request body: %v", err)
		}
		gotBody = string(b)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "test/model",
			"choices": [{"message": {"role": "assistant", "content": "edited text"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 7}
		}`))
	})

	resp, err := p.Complete(context.Background(), &CompletionRequest{
		Model:        "test/model",
		SystemPrompt: "you are an editor",
		Messages:     []Message{{Role: "user", Content: "draft"}},
		Temperature:  0.7,
		MaxTokens:    4000,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Content != "edited text" {
		t.Errorf("Content = %q, want %q", resp.Content, "edited text")
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 7 {
		t.Errorf("tokens = (%d, %d), want (12, 7)", resp.InputTokens, resp.OutputTokens)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q, want Bearer test-key", gotAuth)
	}
	if !strings.Contains(gotBody, `"role":"system"`) {
		t.Errorf("request body missing system message: %s", gotBody)
	}
	if !strings.Contains(gotBody, `"max_tokens":4000`) {
		t.Errorf("request body missing max_tokens: %s", gotBody)
	}
}

func TestOpenRouterProvider_Complete_APIError(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit exceeded", "code": 429}}`))
	})

	_, err := p.Complete(context.Background(), &CompletionRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected error for API error response")
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("error = %v, want it to carry the provider message", err)
	}
}

func TestOpenRouterProvider_Complete_NonJSONErrorBody(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	})

	_, err := p.Complete(context.Background(), &CompletionRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected error for non-2xx with non-JSON body")
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Errorf("error = %v, want status 502", err)
	}
}

func TestOpenRouterProvider_Complete_EmptyChoices(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model": "m", "choices": []}`))
	})

	_, err := p.Complete(context.Background(), &CompletionRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Errorf("error = %v, want no choices", err)
	}
}

func TestOpenRouterProvider_Complete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	p, err := NewOpenRouterProvider("test-key", "m", srv.URL)
	if err != nil {
		t.Fatalf("NewOpenRouterProvider: %v", err)
	}

	if _, err := p.Complete(context.Background(), &CompletionRequest{Model: "m"}); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestNewOpenRouterProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenRouterProvider("", "m", ""); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
