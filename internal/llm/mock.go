package llm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MockProvider is a scripted Provider for tests. Each call consumes the
// next entry from responses; a non-nil entry in errs at the same index is
// returned instead. When the script runs out, the last entry repeats.
type MockProvider struct {
	mu        sync.Mutex
	responses []*CompletionResponse
	errs      []error
	calls     atomic.Int64

	// OnComplete, if set, runs at the start of every Complete call. Tests
	// use it to observe concurrency or inject delays.
	OnComplete func(req *CompletionRequest)
}

// NewMockProvider creates a MockProvider that replays responses in order.
// errs may be nil, or hold a per-call error that overrides the response
// at the same index.
func NewMockProvider(responses []*CompletionResponse, errs []error) *MockProvider {
	return &MockProvider{responses: responses, errs: errs}
}

// Name returns the provider name.
func (m *MockProvider) Name() string { return "mock" }

// DefaultModel returns a fixed model identifier.
func (m *MockProvider) DefaultModel() string { return "mock-model" }

// Calls returns how many times Complete has been invoked.
func (m *MockProvider) Calls() int64 { return m.calls.Load() }

// Complete returns the next scripted response or error.
func (m *MockProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	n := int(m.calls.Add(1)) - 1

	if m.OnComplete != nil {
		m.OnComplete(req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if n < len(m.errs) && m.errs[n] != nil {
		return nil, m.errs[n]
	}
	if len(m.responses) == 0 {
		return nil, fmt.Errorf("mock provider: no scripted responses")
	}
	if n >= len(m.responses) {
		n = len(m.responses) - 1
	}
	return m.responses[n], nil
}
