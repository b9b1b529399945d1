// Package agent runs the opencode coding agent against materialized fixtures
// and collects each run's transcript, patch, and outcome.
package agent

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lunarfall/swevals/internal/config"
)

// mutatingTools are the built-in tools that can change the worktree. They get
// explicit permission entries so the agent never prompts.
var mutatingTools = map[string]struct{}{
	"edit":      {},
	"patch":     {},
	"todowrite": {},
	"write":     {},
	"bash":      {},
}

// allDefaultTools is the agent's full built-in tool surface. Tools outside
// the configured set are disabled explicitly rather than left to defaults.
var allDefaultTools = []string{
	"bash", "edit", "write", "read", "grep", "glob", "list",
	"patch", "todowrite", "todoread", "webfetch",
}

// BuildConfigJSON renders the agent's JSON configuration from the TOML agent
// section: the tool allow/deny map, the mutating-tool permission map, the MCP
// server block, and per-language LSP toggles. The task tool is always off; a
// sub-agent spawning tool skews the transcript being measured.
func BuildConfigJSON(cfg config.AgentConfig) ([]byte, error) {
	enabled := make(map[string]struct{}, len(cfg.Tools))
	for _, tool := range cfg.Tools {
		enabled[tool] = struct{}{}
	}

	tools := make(map[string]bool)
	for tool := range enabled {
		tools[tool] = true
	}
	if cfg.MCP.Enabled {
		for _, tool := range cfg.MCP.Tools {
			tools[tool] = true
		}
	}

	permissions := make(map[string]string)
	for _, tool := range allDefaultTools {
		if _, ok := enabled[tool]; ok {
			if _, mutating := mutatingTools[tool]; mutating {
				permissions[tool] = "allow"
			}
			continue
		}
		tools[tool] = false
		if _, mutating := mutatingTools[tool]; mutating {
			permissions[tool] = "deny"
		}
	}
	tools["task"] = false

	lsp := make(map[string]map[string]bool, len(cfg.LSP))
	for _, l := range cfg.LSP {
		lsp[l.Language] = map[string]bool{"disabled": l.Disabled}
	}

	doc := map[string]any{
		"$schema": "https://opencode.ai/config.json",
		"agent": map[string]any{
			"build": map[string]any{
				"description": cfg.AgentDescription,
				"mode":        "primary",
				"model":       cfg.Model,
				"prompt":      cfg.AgentPrompt,
				"tools":       tools,
				"max_tokens":  cfg.MaxTokens,
			},
		},
		"permission": permissions,
		"mcp": map[string]any{
			cfg.MCP.ServerName: map[string]any{
				"type":    cfg.MCP.Type,
				"url":     cfg.MCP.URL,
				"enabled": cfg.MCP.Enabled,
			},
		},
		"lsp": lsp,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling agent config: %w", err)
	}
	return data, nil
}

// WriteConfig renders and writes the agent config JSON.
func WriteConfig(path string, cfg config.AgentConfig) error {
	data, err := BuildConfigJSON(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing agent config: %w", err)
	}
	return nil
}
