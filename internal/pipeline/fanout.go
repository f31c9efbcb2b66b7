package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/redpen-ai/redpen/internal/llm"
)

// DefaultMaxInFlight bounds fan-out concurrency when the caller does not
// choose one. Hosted completion APIs rate-limit aggressively; six keeps
// the common 3-6 model selection fully parallel without flooding them.
const DefaultMaxInFlight = 6

// Executor dispatches one completion call per selected model, bounded by
// a worker limit, and collects every outcome. A member failing or
// panicking never aborts its siblings; the group always runs to
// completion with one TimedOutcome per input key.
type Executor struct {
	provider llm.Provider
	limit    int
}

// NewExecutor creates an Executor using provider. limit bounds in-flight
// calls; zero or negative selects DefaultMaxInFlight.
func NewExecutor(provider llm.Provider, limit int) *Executor {
	if limit <= 0 {
		limit = DefaultMaxInFlight
	}
	return &Executor{provider: provider, limit: limit}
}

// RunAll dispatches every request concurrently and blocks until all have
// completed. The returned map holds exactly one entry per input key; no
// ordering is implied between completions.
func (e *Executor) RunAll(ctx context.Context, requests map[string]*llm.CompletionRequest) map[string]TimedOutcome {
	models := make([]string, 0, len(requests))
	for m := range requests {
		models = append(models, m)
	}
	sort.Strings(models)

	limit := e.limit
	if len(models) < limit {
		limit = len(models)
	}

	outcomes := make([]TimedOutcome, len(models))

	// Plain errgroup rather than WithContext: a worker error must not
	// cancel siblings, so workers always return nil.
	var g errgroup.Group
	g.SetLimit(limit)

	for i, model := range models {
		req := requests[model]
		g.Go(func() error {
			outcomes[i] = e.callOne(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]TimedOutcome, len(models))
	for i, model := range models {
		results[model] = outcomes[i]
	}
	return results
}

// callOne times a single completion call and converts any failure mode,
// including a panic inside the provider, into a Failure outcome.
func (e *Executor) callOne(ctx context.Context, req *llm.CompletionRequest) (out TimedOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = TimedOutcome{
				Outcome: Outcome{Err: fmt.Errorf("completion panicked: %v", r)},
				Elapsed: time.Since(start),
			}
		}
	}()

	resp, err := e.provider.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return TimedOutcome{Outcome: Outcome{Err: err}, Elapsed: elapsed}
	}
	return TimedOutcome{Outcome: Outcome{Text: resp.Content}, Elapsed: elapsed}
}
