package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	// Verify default values are sensible
	if Default.Pipeline.SessionName == "" {
		t.Error("default session name should not be empty")
	}
	if Default.Pipeline.BatchSize <= 0 {
		t.Errorf("default batch size = %d, want > 0", Default.Pipeline.BatchSize)
	}
	if Default.Pipeline.FixtureTimeout <= 0 {
		t.Errorf("default fixture timeout = %d, want > 0", Default.Pipeline.FixtureTimeout)
	}
	if Default.Agent.Model == "" {
		t.Error("default agent model should not be empty")
	}
	if Default.Agent.MaxTokens <= 0 {
		t.Errorf("default max tokens = %d, want > 0", Default.Agent.MaxTokens)
	}
	if Default.Evals.SweBench.DatasetName == "" {
		t.Error("default dataset name should not be empty")
	}
	if Default.Evals.SweBench.AutoPull != true {
		t.Error("default auto pull should be true")
	}
}

func TestLoadNoFile(t *testing.T) {
	// Load from a directory without config files should return defaults
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	_ = os.Chdir(dir)
	defer func() { _ = os.Chdir(origDir) }()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.SessionName != Default.Pipeline.SessionName {
		t.Errorf("session name = %q, want %q", cfg.Pipeline.SessionName, Default.Pipeline.SessionName)
	}
	if cfg.Agent.Model != Default.Agent.Model {
		t.Errorf("model = %q, want %q", cfg.Agent.Model, Default.Agent.Model)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "test.toml")

	content := `
[pipeline]
session_name = "mcp-on"
batch_size = 4
fixture_timeout = 300
data_dir = "/var/swevals"

[agent]
model = "anthropic/claude-sonnet-4-20250514"
tools = ["read", "edit", "grep"]
user_prompt = "Fix this: {problem_statement}"
max_tokens = 16384

[agent.mcp]
enabled = true
tools = ["knowledge-graph_search_codebase_definitions"]

[[agent.lsp]]
language = "python"
disabled = true

[evals.swebench]
split = "test"
max_workers = 4
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.SessionName != "mcp-on" {
		t.Errorf("session name = %q, want mcp-on", cfg.Pipeline.SessionName)
	}
	if cfg.Pipeline.BatchSize != 4 {
		t.Errorf("batch size = %d, want 4", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.FixtureTimeout != 300 {
		t.Errorf("fixture timeout = %d, want 300", cfg.Pipeline.FixtureTimeout)
	}
	if len(cfg.Agent.Tools) != 3 {
		t.Errorf("agent tools = %v, want 3 entries", cfg.Agent.Tools)
	}
	if cfg.Agent.MaxTokens != 16384 {
		t.Errorf("max tokens = %d, want 16384", cfg.Agent.MaxTokens)
	}
	if !cfg.Agent.MCP.Enabled {
		t.Error("mcp should be enabled")
	}
	if len(cfg.Agent.LSP) != 1 || cfg.Agent.LSP[0].Language != "python" || !cfg.Agent.LSP[0].Disabled {
		t.Errorf("lsp = %+v, want one disabled python entry", cfg.Agent.LSP)
	}
	if cfg.Evals.SweBench.Split != "test" {
		t.Errorf("split = %q, want test", cfg.Evals.SweBench.Split)
	}
	if cfg.Evals.SweBench.MaxWorkers != 4 {
		t.Errorf("max workers = %d, want 4", cfg.Evals.SweBench.MaxWorkers)
	}
}

func TestLoadBackfillsZeroedFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "partial.toml")

	// A partial file must not zero out critical settings.
	content := `
[pipeline]
session_name = "partial"
batch_size = 0

[evals.swebench]
run_id = ""
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.BatchSize != Default.Pipeline.BatchSize {
		t.Errorf("batch size = %d, want backfilled %d", cfg.Pipeline.BatchSize, Default.Pipeline.BatchSize)
	}
	if cfg.Pipeline.FixtureTimeout != Default.Pipeline.FixtureTimeout {
		t.Errorf("fixture timeout = %d, want backfilled %d", cfg.Pipeline.FixtureTimeout, Default.Pipeline.FixtureTimeout)
	}
	if cfg.Evals.SweBench.RunID != Default.Evals.SweBench.RunID {
		t.Errorf("run id = %q, want backfilled %q", cfg.Evals.SweBench.RunID, Default.Evals.SweBench.RunID)
	}
	if cfg.Agent.Model != Default.Agent.Model {
		t.Errorf("model = %q, want backfilled %q", cfg.Agent.Model, Default.Agent.Model)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("Load() should error for missing explicit file")
	}
}

func TestRunPaths(t *testing.T) {
	t.Parallel()

	cfg := Default
	cfg.Pipeline.DataDir = "/data"
	cfg.Pipeline.SessionName = "baseline"

	if got, want := cfg.RunDir(), filepath.Join("/data", "runs", "baseline"); got != want {
		t.Errorf("RunDir() = %q, want %q", got, want)
	}
	if got, want := cfg.SessionDataPath(), filepath.Join("/data", "runs", "baseline", "session_data.jsonl"); got != want {
		t.Errorf("SessionDataPath() = %q, want %q", got, want)
	}
	if got, want := cfg.ReportPath(), filepath.Join("/data", "runs", "baseline", "swebench_report", "report.json"); got != want {
		t.Errorf("ReportPath() = %q, want %q", got, want)
	}
}
