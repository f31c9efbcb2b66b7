package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redpen-ai/redpen/internal/llm"
	"github.com/redpen-ai/redpen/internal/prompt"
)

// Validation errors surfaced by Run before any remote call is made. They
// are the only hard failures the facade produces; everything downstream
// degrades instead of erroring.
var (
	ErrEmptyText  = errors.New("pipeline: original text is empty")
	ErrNoModels   = errors.New("pipeline: no models selected")
	ErrEmptyModel = errors.New("pipeline: empty model identifier")
)

// Config tunes one Pipeline instance. All values are injected at
// construction; the pipeline keeps no ambient state.
type Config struct {
	// MaxInFlight bounds fan-out concurrency. Zero selects
	// DefaultMaxInFlight.
	MaxInFlight int
	// Temperature and MaxTokens apply to the per-model edit calls.
	Temperature float64
	MaxTokens   int
	// Synthesis configures the fan-in stage.
	Synthesis SynthesisConfig
}

// Pipeline is the orchestration entry point: it sequences the fan-out
// executor and the synthesis stage and assembles the result bundle that
// presentation and persistence layers consume.
type Pipeline struct {
	executor    *Executor
	synthesizer func(section string) *Synthesizer
	prompts     *prompt.Library
	cfg         Config
	logger      *slog.Logger
}

// New creates a Pipeline that issues all completion calls through
// provider using the prompt library lib.
func New(provider llm.Provider, lib *prompt.Library, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Synthesis.Model == "" {
		cfg.Synthesis = DefaultSynthesisConfig(provider.DefaultModel())
	}
	return &Pipeline{
		executor: NewExecutor(provider, cfg.MaxInFlight),
		synthesizer: func(section string) *Synthesizer {
			return NewSynthesizer(provider, lib.SynthesisSystemPrompt(section), cfg.Synthesis, logger)
		},
		prompts: lib,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run edits originalText once per selected model concurrently, then
// synthesizes a consolidated version. section is the memo section the
// text belongs to; it parameterizes the prompts and is passed through to
// the bundle unchanged.
//
// Run fails only on empty input text or an empty/invalid model set. A
// model call failing shows up as an "Error:" placeholder in its output
// slot, never as a missing entry or a returned error.
func (p *Pipeline) Run(ctx context.Context, originalText, section string, models []string) (*ResultBundle, error) {
	if strings.TrimSpace(originalText) == "" {
		return nil, ErrEmptyText
	}
	if len(models) == 0 {
		return nil, ErrNoModels
	}
	for _, m := range models {
		if strings.TrimSpace(m) == "" {
			return nil, ErrEmptyModel
		}
	}

	system := p.prompts.EditorSystemPrompt(section)
	requests := make(map[string]*llm.CompletionRequest, len(models))
	for _, m := range models {
		requests[m] = &llm.CompletionRequest{
			Model:        m,
			SystemPrompt: system,
			Messages:     []llm.Message{{Role: "user", Content: originalText}},
			Temperature:  p.cfg.Temperature,
			MaxTokens:    p.cfg.MaxTokens,
		}
	}

	p.logger.Info("fan-out starting", "section", section, "models", len(requests))
	outcomes := p.executor.RunAll(ctx, requests)

	outputs := make(map[string]string, len(outcomes))
	times := make(map[string]float64, len(outcomes)+1)
	for m, to := range outcomes {
		outputs[m] = to.Outcome.DisplayText()
		times[m] = to.Elapsed.Seconds()
		if to.Outcome.Failed() {
			p.logger.Warn("model edit failed", "model", m, "elapsed", to.Elapsed, "err", to.Outcome.Err)
		}
	}

	final, finalElapsed := p.synthesizer(section).Synthesize(ctx, originalText, outcomes, section)
	times[FinalTimingKey] = finalElapsed.Seconds()

	bundle := &ResultBundle{
		Timestamp:       time.Now().UTC(),
		OriginalText:    originalText,
		SectionType:     section,
		ModelOutputs:    outputs,
		ProcessingTimes: times,
		FinalOutput:     final,
		Artifacts:       ParseArtifacts(final),
	}

	p.logger.Info("pipeline complete",
		"section", section,
		"models", len(outputs),
		"synthesis_seconds", fmt.Sprintf("%.2f", finalElapsed.Seconds()),
		"parsed", bundle.Artifacts.Parsed)
	return bundle, nil
}
