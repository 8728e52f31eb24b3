package main

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-agent/internal/config"
	"github.com/jonathan/job-agent/internal/llm"
)

func TestRunCommand_MissingAPIKey(t *testing.T) {
	clearEnv(t)
	resume := writeFile(t, "resume.txt", "Python, SQL")

	output, err := executeCommand(t, "", "run", "--resume", resume, "--title", "Data Analyst", "--location", "Remote")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
	assert.Contains(t, errors.FlattenHints(err), "GOOGLE_API_KEY")

	// The key is only needed once the first model call is made
	assert.Contains(t, output, "Welcome to the AI Job Application Agent")
	assert.Contains(t, output, "Expanding job search")
}

func TestRunCommand_ResumeNotFound(t *testing.T) {
	clearEnv(t)

	output, err := executeCommand(t, "/no/such/resume.pdf\n", "run", "--title", "Data Analyst", "--location", "Remote")
	require.NoError(t, err)
	assert.Contains(t, output, "File not found. Please try again.")
	assert.Contains(t, output, "Could not read resume. Exiting.")
}

func TestLLMConfig_ModelOverride(t *testing.T) {
	cfg := config.Config{RequestsPerMinute: 30, Model: "gemini-2.5-pro"}
	llmCfg := llmConfig(cfg)

	assert.Equal(t, 30, llmCfg.RequestsPerMinute)
	assert.Equal(t, "gemini-2.5-pro", llmCfg.GetModel(llm.TierStandard))
	assert.Equal(t, "gemini-2.5-pro", llmCfg.GetModel(llm.TierAdvanced))
	assert.Equal(t, "gemini-2.5-flash-lite", llmCfg.GetModel(llm.TierLite))

	assert.Equal(t, "gemini-2.5-flash", llmConfig(config.Config{}).GetModel(llm.TierAdvanced))
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "", "run", "--export", "jobs.csv", "--api-key", "dummy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'export' must end with .xlsx")
}

func TestRunCommand_ConfigFileNotFound(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "", "run", "--config", "missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRunCommand_BadCatalog(t *testing.T) {
	clearEnv(t)
	catalog := writeFile(t, "catalog.yaml", "postings:\n  - title: Only a title\n")

	_, err := executeCommand(t, "", "run", "--catalog", catalog, "--api-key", "dummy")
	require.Error(t, err)
}

func TestExpandCommand_RequiresTitle(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "", "expand")
	require.Error(t, err)
}

func TestHistoryCommand_NoDatabase(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database configured")
}

func TestHistoryCommand_InvalidRunID(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "", "history", "--db-url", "postgres://localhost:5432/jobs", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")
}

func TestRunOverrides_ZeroChunkOverlap(t *testing.T) {
	clearEnv(t)
	resetFlags(runCommand)
	t.Cleanup(func() { resetFlags(runCommand) })
	require.NoError(t, runCommand.Flags().Set("chunk-overlap", "0"))

	cfg, err := resolveConfig("", runOverrides(runCommand))
	require.NoError(t, err)
	require.NotNil(t, cfg.ChunkOverlap)
	assert.Equal(t, 0, cfg.Overlap())

	resetFlags(runCommand)
	cfg, err = resolveConfig("", runOverrides(runCommand))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Overlap())
}
