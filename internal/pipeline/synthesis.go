package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redpen-ai/redpen/internal/llm"
)

// Markers the synthesis model is instructed to emit around its two named
// artifacts. ParseArtifacts splits on them in this order.
const (
	MarkerFinalSection = "<<<FINAL_SECTION>>>"
	MarkerEditorNotes  = "<<<EDITOR_NOTES>>>"
)

// SynthesisConfig configures the fan-in stage.
type SynthesisConfig struct {
	// Model is the synthesis model identifier.
	Model string
	// Attempts is the total number of completion attempts before the
	// deterministic fallback takes over. Minimum 1.
	Attempts int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
	// Temperature and MaxTokens are passed through to the completion call.
	Temperature float64
	MaxTokens   int
}

// DefaultSynthesisConfig returns the stock retry policy: three attempts
// two seconds apart.
func DefaultSynthesisConfig(model string) SynthesisConfig {
	return SynthesisConfig{
		Model:       model,
		Attempts:    3,
		RetryDelay:  2 * time.Second,
		Temperature: 0.5,
		MaxTokens:   4000,
	}
}

// Synthesizer consolidates the fan-out results with one further
// completion call. It never fails: when every attempt errors it degrades
// to the longest available model output behind a fallback banner, so the
// pipeline always terminates with some textual result.
type Synthesizer struct {
	provider     llm.Provider
	systemPrompt string
	cfg          SynthesisConfig
	logger       *slog.Logger
}

// NewSynthesizer creates a Synthesizer. systemPrompt carries the
// consolidation instructions, including the artifact markers.
func NewSynthesizer(provider llm.Provider, systemPrompt string, cfg SynthesisConfig, logger *slog.Logger) *Synthesizer {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{provider: provider, systemPrompt: systemPrompt, cfg: cfg, logger: logger}
}

// Synthesize builds the combined prompt from the original text and every
// per-model output, issues the synthesis call with bounded retry, and
// returns the final text plus the stage's total elapsed time.
func (s *Synthesizer) Synthesize(ctx context.Context, original string, perModel map[string]TimedOutcome, section string) (string, time.Duration) {
	start := time.Now()

	req := &llm.CompletionRequest{
		Model:        s.cfg.Model,
		SystemPrompt: s.systemPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: buildCombinedPrompt(original, perModel, section)},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(s.cfg.RetryDelay):
			case <-ctx.Done():
				// Treat cancellation like any other exhausted attempt:
				// fall through to the degraded result.
				lastErr = ctx.Err()
				return s.fallback(perModel, lastErr), time.Since(start)
			}
		}

		resp, err := s.provider.Complete(ctx, req)
		if err == nil {
			return resp.Content, time.Since(start)
		}
		lastErr = err
		s.logger.Warn("synthesis attempt failed",
			"attempt", attempt, "attempts", s.cfg.Attempts, "model", s.cfg.Model, "err", err)
	}

	return s.fallback(perModel, lastErr), time.Since(start)
}

// fallback deterministically selects the longest successful model output,
// breaking ties by sorted model order, and prepends a banner describing
// the degradation. With no successful outputs it returns the banner alone.
func (s *Synthesizer) fallback(perModel map[string]TimedOutcome, cause error) string {
	models := sortedModels(perModel)

	var bestModel, bestText string
	available := 0
	for _, m := range models {
		o := perModel[m].Outcome
		if o.Failed() {
			continue
		}
		available++
		if len(o.Text) > len(bestText) {
			bestModel, bestText = m, o.Text
		}
	}

	s.logger.Error("synthesis exhausted all attempts, using fallback",
		"attempts", s.cfg.Attempts, "available_outputs", available, "err", cause)

	banner := fmt.Sprintf(
		"> **FALLBACK:** the synthesis call failed after %d attempt(s) (%v). Showing the longest of %d available model output(s) instead.\n\n",
		s.cfg.Attempts, cause, available)

	if available == 0 {
		return banner + "No model outputs were available."
	}
	return banner + fmt.Sprintf("_Longest output, from %s:_\n\n", bestModel) + bestText
}

// buildCombinedPrompt concatenates the original text with each model's
// output labeled by its identifier, in sorted model order, followed by
// the consolidation instruction. Failed models contribute their error
// placeholder so the synthesis model sees the full picture.
func buildCombinedPrompt(original string, perModel map[string]TimedOutcome, section string) string {
	var b strings.Builder
	b.WriteString("ORIGINAL TEXT:\n\n")
	b.WriteString(original)
	b.WriteString("\n\n")

	for _, m := range sortedModels(perModel) {
		fmt.Fprintf(&b, "EDITED BY %s:\n\n%s\n\n", m, perModel[m].Outcome.DisplayText())
	}

	fmt.Fprintf(&b,
		"Based on these versions, create the optimal final version that incorporates the best elements from each to create an excellent %s section for a venture capital memo.",
		section)
	return b.String()
}

// ParseArtifacts splits raw synthesis output on the two fixed markers, in
// order. If either marker is missing the parse does not fail: both
// artifacts receive the whole raw text and Parsed is false.
func ParseArtifacts(raw string) Artifacts {
	i := strings.Index(raw, MarkerFinalSection)
	if i < 0 {
		return Artifacts{Section: raw, Notes: raw}
	}
	rest := raw[i+len(MarkerFinalSection):]
	j := strings.Index(rest, MarkerEditorNotes)
	if j < 0 {
		return Artifacts{Section: raw, Notes: raw}
	}
	return Artifacts{
		Section: strings.TrimSpace(rest[:j]),
		Notes:   strings.TrimSpace(rest[j+len(MarkerEditorNotes):]),
		Parsed:  true,
	}
}

func sortedModels(perModel map[string]TimedOutcome) []string {
	models := make([]string, 0, len(perModel))
	for m := range perModel {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}
