package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.EnabledModels()) != 5 {
		t.Errorf("enabled models = %d, want 5", len(cfg.EnabledModels()))
	}
	if got := time.Duration(cfg.Synthesis.RetryDelay); got != 2*time.Second {
		t.Errorf("retry delay = %v, want 2s", got)
	}
	if cfg.Synthesis.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", cfg.Synthesis.Attempts)
	}
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ResultsDir != "results" {
		t.Errorf("ResultsDir = %q, want default", cfg.ResultsDir)
	}
}

func TestLoad_ExplicitMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for explicit missing file")
	}
}

func TestLoad_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redpen.yaml")
	doc := `
models:
  - id: test/alpha
    enabled: true
  - id: test/beta
    enabled: false
synthesis:
  model: test/synth
  attempts: 5
  retry_delay: 50ms
max_tokens: 1024
results_dir: /tmp/redpen-results
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	models := cfg.EnabledModels()
	if len(models) != 1 || models[0] != "test/alpha" {
		t.Errorf("EnabledModels = %v, want [test/alpha]", models)
	}
	if cfg.Synthesis.Model != "test/synth" || cfg.Synthesis.Attempts != 5 {
		t.Errorf("synthesis = %+v", cfg.Synthesis)
	}
	if got := time.Duration(cfg.Synthesis.RetryDelay); got != 50*time.Millisecond {
		t.Errorf("retry delay = %v, want 50ms", got)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, want 1024", cfg.MaxTokens)
	}
	// Untouched fields keep their defaults.
	if cfg.APIKeyEnv != "OPENROUTER_API_KEY" {
		t.Errorf("APIKeyEnv = %q, want default", cfg.APIKeyEnv)
	}
}

func TestLoad_RejectsInvalidOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redpen.yaml")
	doc := `
synthesis:
  model: ""
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for empty synthesis model")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redpen.yaml")
	if err := os.WriteFile(path, []byte("synthesis:\n  retry_delay: banana\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
