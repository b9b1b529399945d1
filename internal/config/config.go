// Package config provides TOML configuration loading for the evaluation
// pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// PipelineConfig contains pipeline-wide settings: where run data lives, how
// sessions are batched, and which phases to skip.
type PipelineConfig struct {
	SessionName    string `toml:"session_name"`
	DataDir        string `toml:"data_dir"`
	BatchSize      int    `toml:"batch_size"`
	FixtureTimeout int    `toml:"fixture_timeout"` // seconds per agent run
	MaxWorkers     int    `toml:"max_workers"`
	IndexerPath    string `toml:"indexer_path"`
	AgentLogStdout bool   `toml:"agent_log_stdout"`
	SkipDownload   bool   `toml:"skip_download"`
	SkipIndex      bool   `toml:"skip_index"`
}

// MCPConfig describes the optional MCP server exposed to the agent.
type MCPConfig struct {
	Enabled    bool     `toml:"enabled"`
	Tools      []string `toml:"tools"`
	URL        string   `toml:"url"`
	ServerName string   `toml:"server_name"`
	Type       string   `toml:"type"`
}

// LSPConfig toggles one language server in the agent's environment.
type LSPConfig struct {
	Language string `toml:"language"`
	Disabled bool   `toml:"disabled"`
}

// AgentConfig defines the coding agent invocation: the model, the tool
// surface, and the prompts. UserPrompt carries a {problem_statement}
// placeholder filled per fixture.
type AgentConfig struct {
	Model            string      `toml:"model"`
	Version          string      `toml:"version"`
	Tools            []string    `toml:"tools"`
	MCP              MCPConfig   `toml:"mcp"`
	LSP              []LSPConfig `toml:"lsp"`
	AgentDescription string      `toml:"agent_description"`
	AgentPrompt      string      `toml:"agent_prompt"`
	UserPrompt       string      `toml:"user_prompt"`
	MaxTokens        int         `toml:"max_tokens"`
}

// SweBenchConfig contains settings for the external scoring harness.
type SweBenchConfig struct {
	DatasetName  string `toml:"dataset_name"`
	Split        string `toml:"split"`
	Namespace    string `toml:"namespace"`
	MaxWorkers   int    `toml:"max_workers"`
	RunID        string `toml:"run_id"`
	ForceRebuild bool   `toml:"force_rebuild"`
	AutoPull     bool   `toml:"auto_pull"`
	BaseImage    string `toml:"base_image"`
	HarnessDir   string `toml:"harness_dir"`
	Python       string `toml:"python"`
}

// EvalsConfig selects and configures the scoring framework.
type EvalsConfig struct {
	Framework string         `toml:"framework"`
	SweBench  SweBenchConfig `toml:"swebench"`
}

// Config is the full pipeline configuration tree.
type Config struct {
	Pipeline PipelineConfig `toml:"pipeline"`
	Agent    AgentConfig    `toml:"agent"`
	Evals    EvalsConfig    `toml:"evals"`
}

// Default configuration values.
var Default = Config{
	Pipeline: PipelineConfig{
		SessionName:    "default",
		DataDir:        "./data",
		BatchSize:      1,
		FixtureTimeout: 240,
		MaxWorkers:     10,
		IndexerPath:    "gkg",
		AgentLogStdout: true,
	},
	Agent: AgentConfig{
		Model:   "anthropic/claude-sonnet-4-20250514",
		Version: "0.6.4",
		MCP: MCPConfig{
			URL:        "http://localhost:27495/mcp",
			ServerName: "knowledge-graph",
			Type:       "remote",
		},
		MaxTokens: 8192,
	},
	Evals: EvalsConfig{
		Framework: "swe-bench",
		SweBench: SweBenchConfig{
			DatasetName: "princeton-nlp/SWE-bench_Lite",
			Split:       "dev",
			Namespace:   "none",
			MaxWorkers:  8,
			RunID:       "evaluation_run",
			AutoPull:    true,
			Python:      "python3",
		},
	},
}

// configPaths returns the list of paths to search for config files.
func configPaths() []string {
	paths := []string{"./swevals.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".swevals.toml"))
		paths = append(paths, filepath.Join(home, ".config", "swevals", "config.toml"))
	}

	return paths
}

// Load loads configuration from a file or discovers it automatically.
// If configFile is empty, it searches standard locations.
// Returns default config if no file is found.
func Load(configFile string) (*Config, error) {
	cfg := Default

	var path string
	if configFile != "" {
		path = configFile
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	} else {
		for _, p := range configPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return &cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Ensure critical fields aren't zeroed out by partial config
	if cfg.Pipeline.SessionName == "" {
		cfg.Pipeline.SessionName = Default.Pipeline.SessionName
	}
	if cfg.Pipeline.DataDir == "" {
		cfg.Pipeline.DataDir = Default.Pipeline.DataDir
	}
	if cfg.Pipeline.BatchSize <= 0 {
		cfg.Pipeline.BatchSize = Default.Pipeline.BatchSize
	}
	if cfg.Pipeline.FixtureTimeout <= 0 {
		cfg.Pipeline.FixtureTimeout = Default.Pipeline.FixtureTimeout
	}
	if cfg.Pipeline.MaxWorkers <= 0 {
		cfg.Pipeline.MaxWorkers = Default.Pipeline.MaxWorkers
	}
	if cfg.Pipeline.IndexerPath == "" {
		cfg.Pipeline.IndexerPath = Default.Pipeline.IndexerPath
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = Default.Agent.Model
	}
	if cfg.Agent.Version == "" {
		cfg.Agent.Version = Default.Agent.Version
	}
	if cfg.Agent.MaxTokens <= 0 {
		cfg.Agent.MaxTokens = Default.Agent.MaxTokens
	}
	if cfg.Evals.Framework == "" {
		cfg.Evals.Framework = Default.Evals.Framework
	}
	if cfg.Evals.SweBench.DatasetName == "" {
		cfg.Evals.SweBench.DatasetName = Default.Evals.SweBench.DatasetName
	}
	if cfg.Evals.SweBench.Split == "" {
		cfg.Evals.SweBench.Split = Default.Evals.SweBench.Split
	}
	if cfg.Evals.SweBench.Namespace == "" {
		cfg.Evals.SweBench.Namespace = Default.Evals.SweBench.Namespace
	}
	if cfg.Evals.SweBench.MaxWorkers <= 0 {
		cfg.Evals.SweBench.MaxWorkers = Default.Evals.SweBench.MaxWorkers
	}
	if cfg.Evals.SweBench.RunID == "" {
		cfg.Evals.SweBench.RunID = Default.Evals.SweBench.RunID
	}
	if cfg.Evals.SweBench.Python == "" {
		cfg.Evals.SweBench.Python = Default.Evals.SweBench.Python
	}

	return &cfg, nil
}
