package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redpen-ai/redpen/internal/cache"
	"github.com/redpen-ai/redpen/internal/config"
	"github.com/redpen-ai/redpen/internal/llm"
	"github.com/redpen-ai/redpen/internal/pipeline"
	"github.com/redpen-ai/redpen/internal/prompt"
	"github.com/redpen-ai/redpen/internal/report"
	"github.com/redpen-ai/redpen/internal/server"
	"github.com/redpen-ai/redpen/internal/store"
)

const version = "0.1.0-dev"

const usage = `redpen <command> [flags]

Commands:
  process   run a section through the editing pipeline
  list      list stored results
  view      render one stored result as Markdown
  serve     run the HTTP API
  version   print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "version" {
		fmt.Printf("redpen %s\n", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd {
	case "process":
		err = runProcess(ctx, args)
	case "list":
		err = runList(args)
	case "view":
		err = runView(args)
	case "serve":
		err = runServe(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "redpen %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

type commonFlags struct {
	configPath string
	logLevel   string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	cf := &commonFlags{}
	fs.StringVar(&cf.configPath, "config", "", "config file path (default redpen.yaml if present)")
	fs.StringVar(&cf.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	return cf
}

func newLogger(levelName string) (*slog.Logger, error) {
	var level slog.Level
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", levelName)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// buildPipeline assembles the provider chain and pipeline from config:
// OpenRouter, rate limiting, and optionally the sqlite completion cache.
func buildPipeline(cfg config.Config, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	base, err := llm.NewOpenRouterProvider(cfg.APIKey(), "", cfg.BaseURL)
	if err != nil {
		return nil, nil, err
	}

	rlCfg := llm.DefaultRateLimiterConfig
	if cfg.RateLimit.RequestsPerMinute > 0 {
		rlCfg.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
	}
	if cfg.RateLimit.Burst > 0 {
		rlCfg.Burst = cfg.RateLimit.Burst
	}
	var provider llm.Provider
	provider, err = llm.NewRateLimitedProvider(base, rlCfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if cfg.CachePath != "" {
		cc, err := cache.NewCompletionCache(cfg.CachePath, cfg.CacheMaxMB)
		if err != nil {
			return nil, nil, fmt.Errorf("open completion cache: %w", err)
		}
		provider = cache.NewCachedProvider(provider, cc, logger)
		cleanup = func() { cc.Close() }
	}

	pCfg := pipeline.Config{
		MaxInFlight: cfg.MaxInFlight,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Synthesis: pipeline.SynthesisConfig{
			Model:       cfg.Synthesis.Model,
			Attempts:    cfg.Synthesis.Attempts,
			RetryDelay:  time.Duration(cfg.Synthesis.RetryDelay),
			Temperature: 0.5,
			MaxTokens:   cfg.MaxTokens,
		},
	}
	return pipeline.New(provider, prompt.Default(), pCfg, logger), cleanup, nil
}

func runProcess(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	cf := addCommonFlags(fs)
	section := fs.String("section", "", "section type (e.g. \"Revenue Model\")")
	file := fs.String("file", "", "read the section text from this file instead of stdin")
	models := fs.String("models", "", "comma-separated model ids (default: enabled models from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(cf.logLevel)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return err
	}
	if *section == "" {
		return fmt.Errorf("-section is required (one of: %s)", strings.Join(prompt.Sections, ", "))
	}

	var text []byte
	if *file != "" {
		text, err = os.ReadFile(*file)
	} else {
		text, err = readAllStdin()
	}
	if err != nil {
		return err
	}

	modelList := cfg.EnabledModels()
	if *models != "" {
		modelList = nil
		for _, m := range strings.Split(*models, ",") {
			if m = strings.TrimSpace(m); m != "" {
				modelList = append(modelList, m)
			}
		}
	}

	p, cleanup, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	bundle, err := p.Run(ctx, string(text), *section, modelList)
	if err != nil {
		return err
	}

	st, err := store.New(cfg.ResultsDir)
	if err != nil {
		return err
	}
	id, err := st.Save(bundle)
	if err != nil {
		return err
	}
	bundle.ID = id

	fmt.Println(report.Render(bundle))
	logger.Info("result stored", "id", id)
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return err
	}
	st, err := store.New(cfg.ResultsDir)
	if err != nil {
		return err
	}
	ids, err := st.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no stored results")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	cf := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: redpen view <result-id>")
	}
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return err
	}
	st, err := store.New(cfg.ResultsDir)
	if err != nil {
		return err
	}
	bundle, err := st.Load(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Println(report.Render(bundle))
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cf := addCommonFlags(fs)
	listen := fs.String("listen", "", "listen address (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := newLogger(cf.logLevel)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		return err
	}

	p, cleanup, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := store.New(cfg.ResultsDir)
	if err != nil {
		return err
	}

	addr := cfg.Listen
	if *listen != "" {
		addr = *listen
	}

	srv := server.New(p, st, cfg.EnabledModels(), logger)
	logger.Info("redpen starting", "version", version, "addr", addr)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func readAllStdin() ([]byte, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("no input: pipe the section text on stdin or use -file")
	}
	return io.ReadAll(os.Stdin)
}
