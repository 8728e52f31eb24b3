package main

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/jobs"
	"github.com/jonathan/job-agent/internal/llm"
	"github.com/jonathan/job-agent/internal/observability"
	"github.com/jonathan/job-agent/internal/types"
)

// resolveConfig loads the config file (if any), lets overrides apply flag values,
// fills gaps from the environment and defaults, then validates.
func resolveConfig(path string, override func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return cfg, errors.Wrap(err, "failed to load config")
		}
		cfg = *loaded
	}

	if override != nil {
		override(&cfg)
	}
	cfg.ApplyEnv(os.Getenv)
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the diagnostics logger; falls back to a no-op logger
func newLogger(verbose bool) *zap.Logger {
	logger, err := observability.NewLogger(verbose)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// llmConfig applies the configured rate limit and model override to the default model config.
// The override covers the free-text tiers; title expansion stays on the lite model.
func llmConfig(cfg config.Config) *llm.Config {
	llmCfg := llm.DefaultConfig()
	llmCfg.RequestsPerMinute = cfg.RequestsPerMinute
	if cfg.Model != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, cfg.Model).WithModel(llm.TierAdvanced, cfg.Model)
	}
	return llmCfg
}

// newLLMClient creates the Gemini client shared by advice and the knowledge base
func newLLMClient(ctx context.Context, cfg config.Config) (*llm.GeminiClient, error) {
	return llm.NewClient(ctx, llmConfig(cfg), cfg.APIKey)
}

// loadCatalog returns the postings from path, or the built-in catalog when path is empty
func loadCatalog(path string) ([]types.Posting, error) {
	if path == "" {
		return jobs.DefaultCatalog()
	}
	return jobs.LoadCatalog(path)
}

func printer(cmd *cobra.Command) *observability.Printer {
	return observability.NewPrinter(cmd.OutOrStdout())
}
