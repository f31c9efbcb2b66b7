// Package pipeline implements the fan-out/fan-in editorial core: one
// edit pass per selected model run concurrently, followed by a single
// synthesis pass that consolidates the surviving results.
package pipeline

import "time"

// Outcome is the materialized result of one completion call. Exactly one
// of Text or Err is meaningful; a call never raises past the executor
// boundary, it is always captured here.
type Outcome struct {
	Text string
	Err  error
}

// Failed reports whether the call produced an error instead of text.
func (o Outcome) Failed() bool { return o.Err != nil }

// DisplayText returns the output text, or the fixed "Error:" placeholder
// for failed calls so a model's slot is always populated.
func (o Outcome) DisplayText() string {
	if o.Err != nil {
		return "Error: " + o.Err.Error()
	}
	return o.Text
}

// TimedOutcome pairs an outcome with the wall-clock duration of the call
// that produced it. Elapsed covers only the call itself, not time spent
// waiting for a worker slot, and is recorded on failure too.
type TimedOutcome struct {
	Outcome Outcome
	Elapsed time.Duration
}

// FinalTimingKey is the reserved ProcessingTimes key holding the synthesis
// stage's elapsed time. Model identifiers never collide with it because
// hosted model names carry a vendor prefix.
const FinalTimingKey = "final"

// Artifacts are the named parts recovered from the synthesis output.
// When the output lacks the expected markers, Section and Notes both hold
// the full raw text and Parsed is false.
type Artifacts struct {
	Section string `json:"section"`
	Notes   string `json:"notes"`
	Parsed  bool   `json:"parsed"`
}

// ResultBundle is the unified result of one pipeline invocation. It is
// never mutated after Run returns it; persistence and presentation each
// serialize it independently.
type ResultBundle struct {
	ID              string             `json:"id,omitempty"`
	Timestamp       time.Time          `json:"timestamp"`
	OriginalText    string             `json:"original_text"`
	SectionType     string             `json:"section_type"`
	ModelOutputs    map[string]string  `json:"model_outputs"`
	ProcessingTimes map[string]float64 `json:"processing_times"`
	FinalOutput     string             `json:"final_output"`
	Artifacts       Artifacts          `json:"artifacts"`
}
