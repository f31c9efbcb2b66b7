package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 60000,
		Burst:             100,
		MaxRetries:        2,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
	}
}

func TestRateLimitedProvider_RetriesThenSucceeds(t *testing.T) {
	inner := NewMockProvider(
		[]*CompletionResponse{nil, nil, {Content: "ok", Model: "m"}},
		[]error{errors.New("boom"), errors.New("boom again"), nil},
	)

	rl, err := NewRateLimitedProvider(inner, fastLimiterConfig())
	if err != nil {
		t.Fatalf("NewRateLimitedProvider: %v", err)
	}

	resp, err := rl.Complete(context.Background(), &CompletionRequest{Model: "m"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want ok", resp.Content)
	}
	if got := inner.Calls(); got != 3 {
		t.Errorf("inner calls = %d, want 3", got)
	}
}

func TestRateLimitedProvider_ExhaustsRetries(t *testing.T) {
	inner := NewMockProvider(nil, []error{
		errors.New("e1"), errors.New("e2"), errors.New("e3"),
	})

	rl, err := NewRateLimitedProvider(inner, fastLimiterConfig())
	if err != nil {
		t.Fatalf("NewRateLimitedProvider: %v", err)
	}

	_, err = rl.Complete(context.Background(), &CompletionRequest{Model: "m"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := inner.Calls(); got != 3 {
		t.Errorf("inner calls = %d, want 3 (1 initial + 2 retries)", got)
	}
}

func TestRateLimitedProvider_ContextCancelledDuringBackoff(t *testing.T) {
	inner := NewMockProvider(nil, []error{errors.New("boom")})

	cfg := fastLimiterConfig()
	cfg.InitialBackoff = time.Hour

	rl, err := NewRateLimitedProvider(inner, cfg)
	if err != nil {
		t.Fatalf("NewRateLimitedProvider: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := rl.Complete(ctx, &CompletionRequest{Model: "m"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestNewRateLimitedProvider_Validation(t *testing.T) {
	inner := NewMockProvider(nil, nil)

	if _, err := NewRateLimitedProvider(inner, RateLimiterConfig{Burst: 1}); err == nil {
		t.Error("expected error for zero RequestsPerMinute")
	}
	if _, err := NewRateLimitedProvider(inner, RateLimiterConfig{RequestsPerMinute: 10}); err == nil {
		t.Error("expected error for zero Burst")
	}
}
