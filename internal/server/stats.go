package server

import "sync"

// Stats tracks run counters for the lifetime of a server process.
type Stats struct {
	mu            sync.Mutex
	runsStarted   int64
	runsCompleted int64
	runsFailed    int64
	modelCalls    int64
}

// StatsSnapshot is the JSON shape of the stats endpoint.
type StatsSnapshot struct {
	RunsStarted   int64 `json:"runs_started"`
	RunsCompleted int64 `json:"runs_completed"`
	RunsFailed    int64 `json:"runs_failed"`
	ModelCalls    int64 `json:"model_calls"`
}

// NewStats creates a zeroed tracker.
func NewStats() *Stats {
	return &Stats{}
}

// RunStarted records the start of a pipeline run.
func (s *Stats) RunStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runsStarted++
}

// RunCompleted records a successful run and its model call count.
func (s *Stats) RunCompleted(modelCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runsCompleted++
	s.modelCalls += int64(modelCalls)
}

// RunFailed records a run rejected or aborted before producing a result.
func (s *Stats) RunFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runsFailed++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		RunsStarted:   s.runsStarted,
		RunsCompleted: s.runsCompleted,
		RunsFailed:    s.runsFailed,
		ModelCalls:    s.modelCalls,
	}
}
