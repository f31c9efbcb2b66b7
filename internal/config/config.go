// Package config loads the redpen configuration file. Every field has a
// working default so the binary runs with no file at all; a YAML file
// overrides selectively.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "redpen.yaml"

// Duration wraps time.Duration with YAML support for strings like "2s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// ModelEntry selects one reasoning model for the fan-out stage.
type ModelEntry struct {
	ID      string `yaml:"id"`
	Enabled bool   `yaml:"enabled"`
}

// SynthesisSettings tune the fan-in stage.
type SynthesisSettings struct {
	Model      string   `yaml:"model"`
	Attempts   int      `yaml:"attempts"`
	RetryDelay Duration `yaml:"retry_delay"`
}

// RateLimitSettings tune the shared provider rate limiter.
type RateLimitSettings struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
}

// Config models the redpen.yaml file.
type Config struct {
	// APIKeyEnv names the environment variable holding the OpenRouter key.
	APIKeyEnv string `yaml:"api_key_env"`
	// BaseURL overrides the OpenRouter endpoint (tests, proxies).
	BaseURL string `yaml:"base_url"`

	Models      []ModelEntry      `yaml:"models"`
	Synthesis   SynthesisSettings `yaml:"synthesis"`
	Temperature float64           `yaml:"temperature"`
	MaxTokens   int               `yaml:"max_tokens"`
	MaxInFlight int               `yaml:"max_in_flight"`

	RateLimit RateLimitSettings `yaml:"rate_limit"`

	ResultsDir string `yaml:"results_dir"`
	CachePath  string `yaml:"cache_path"`
	CacheMaxMB int    `yaml:"cache_max_mb"`

	Listen string `yaml:"listen"`
}

// Default returns the stock configuration: the original five reasoning
// models, the thinking-mode synthesis model, and the 3x2s synthesis retry
// policy.
func Default() Config {
	return Config{
		APIKeyEnv: "OPENROUTER_API_KEY",
		Models: []ModelEntry{
			{ID: "openai/gpt-4.1", Enabled: true},
			{ID: "anthropic/claude-3.7-sonnet", Enabled: true},
			{ID: "google/gemini-2.5-flash-preview-05-20", Enabled: true},
			{ID: "x-ai/grok-3-beta", Enabled: true},
			{ID: "meta-llama/llama-4-maverick", Enabled: true},
		},
		Synthesis: SynthesisSettings{
			Model:      "anthropic/claude-3.7-sonnet:thinking",
			Attempts:   3,
			RetryDelay: Duration(2 * time.Second),
		},
		Temperature: 0.7,
		MaxTokens:   4000,
		MaxInFlight: 6,
		RateLimit: RateLimitSettings{
			RequestsPerMinute: 60,
			Burst:             8,
		},
		ResultsDir: "results",
		CachePath:  "", // empty disables the completion cache
		CacheMaxMB: 64,
		Listen:     "127.0.0.1:8823",
	}
}

// Load reads path and overlays it on the defaults. A missing file is not
// an error when path is DefaultPath; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks invariants a YAML overlay could have broken.
func (c Config) Validate() error {
	if len(c.EnabledModels()) == 0 {
		return fmt.Errorf("config: no enabled models")
	}
	if c.Synthesis.Model == "" {
		return fmt.Errorf("config: synthesis.model is required")
	}
	if c.Synthesis.Attempts < 1 {
		return fmt.Errorf("config: synthesis.attempts must be >= 1")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("config: max_tokens must be > 0")
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("config: max_in_flight must be >= 0")
	}
	return nil
}

// EnabledModels returns the identifiers of all enabled models, in file order.
func (c Config) EnabledModels() []string {
	out := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		if m.Enabled && m.ID != "" {
			out = append(out, m.ID)
		}
	}
	return out
}

// APIKey reads the provider key from the configured environment variable.
func (c Config) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}
