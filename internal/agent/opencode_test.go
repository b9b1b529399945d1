package agent

import (
	"encoding/json"
	"testing"

	"github.com/lunarfall/swevals/internal/config"
)

func testAgentConfig() config.AgentConfig {
	cfg := config.Default.Agent
	cfg.Tools = []string{"read", "edit", "grep", "glob"}
	cfg.MCP.Enabled = true
	cfg.MCP.Tools = []string{"knowledge-graph_search_codebase_definitions"}
	cfg.LSP = []config.LSPConfig{{Language: "python", Disabled: true}}
	return cfg
}

func decodeConfigJSON(t *testing.T, cfg config.AgentConfig) map[string]any {
	t.Helper()
	data, err := BuildConfigJSON(cfg)
	if err != nil {
		t.Fatalf("BuildConfigJSON() error = %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshaling config: %v", err)
	}
	return doc
}

func buildAgent(t *testing.T, doc map[string]any) map[string]any {
	t.Helper()
	agents, ok := doc["agent"].(map[string]any)
	if !ok {
		t.Fatalf("agent block = %T", doc["agent"])
	}
	build, ok := agents["build"].(map[string]any)
	if !ok {
		t.Fatalf("build agent = %T", agents["build"])
	}
	return build
}

func TestBuildConfigJSONTools(t *testing.T) {
	t.Parallel()

	doc := decodeConfigJSON(t, testAgentConfig())
	tools, ok := buildAgent(t, doc)["tools"].(map[string]any)
	if !ok {
		t.Fatal("missing tools map")
	}

	for _, tool := range []string{"read", "edit", "grep", "glob"} {
		if tools[tool] != true {
			t.Errorf("tool %q = %v, want true", tool, tools[tool])
		}
	}
	if tools["knowledge-graph_search_codebase_definitions"] != true {
		t.Error("enabled mcp tool should be on")
	}
	for _, tool := range []string{"bash", "write", "patch", "webfetch", "list"} {
		if tools[tool] != false {
			t.Errorf("tool %q = %v, want false", tool, tools[tool])
		}
	}
	// Sub-agent spawning is always off.
	if tools["task"] != false {
		t.Errorf("task = %v, want false", tools["task"])
	}
}

func TestBuildConfigJSONPermissions(t *testing.T) {
	t.Parallel()

	doc := decodeConfigJSON(t, testAgentConfig())
	permissions, ok := doc["permission"].(map[string]any)
	if !ok {
		t.Fatal("missing permission map")
	}

	if permissions["edit"] != "allow" {
		t.Errorf("edit permission = %v, want allow", permissions["edit"])
	}
	for _, tool := range []string{"bash", "write", "patch", "todowrite"} {
		if permissions[tool] != "deny" {
			t.Errorf("%s permission = %v, want deny", tool, permissions[tool])
		}
	}
	// Non-mutating tools carry no permission entry at all.
	if _, ok := permissions["read"]; ok {
		t.Error("read should have no permission entry")
	}
}

func TestBuildConfigJSONMCPAndLSP(t *testing.T) {
	t.Parallel()

	cfg := testAgentConfig()
	doc := decodeConfigJSON(t, cfg)

	mcp, ok := doc["mcp"].(map[string]any)
	if !ok {
		t.Fatal("missing mcp block")
	}
	server, ok := mcp[cfg.MCP.ServerName].(map[string]any)
	if !ok {
		t.Fatalf("missing server %q", cfg.MCP.ServerName)
	}
	if server["type"] != cfg.MCP.Type || server["url"] != cfg.MCP.URL || server["enabled"] != true {
		t.Errorf("mcp server = %v", server)
	}

	lsp, ok := doc["lsp"].(map[string]any)
	if !ok {
		t.Fatal("missing lsp block")
	}
	python, ok := lsp["python"].(map[string]any)
	if !ok || python["disabled"] != true {
		t.Errorf("lsp python = %v, want disabled", lsp["python"])
	}
}

func TestBuildConfigJSONMCPDisabled(t *testing.T) {
	t.Parallel()

	cfg := testAgentConfig()
	cfg.MCP.Enabled = false
	doc := decodeConfigJSON(t, cfg)

	tools, _ := buildAgent(t, doc)["tools"].(map[string]any)
	// MCP tools are only switched on when the server is enabled.
	if _, ok := tools["knowledge-graph_search_codebase_definitions"]; ok {
		t.Error("mcp tool should be absent when mcp is disabled")
	}
}

func TestCaptureSessionID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want string
	}{
		{
			"created line",
			"INFO  2026-08-30T10:00:00 +12ms service=session id=ses_8f2a91 created",
			"ses_8f2a91",
		},
		{
			"extra fields between",
			"INFO service=session id=ses_1 version=1 created",
			"ses_1",
		},
		{
			"not a session line",
			"INFO service=server listening on :4096",
			"",
		},
		{
			"session line without created",
			"INFO service=session id=ses_1 idle",
			"",
		},
		{
			"non-info level",
			"DEBUG service=session id=ses_1 created",
			"",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CaptureSessionID(tc.line); got != tc.want {
				t.Errorf("CaptureSessionID(%q) = %q, want %q", tc.line, got, tc.want)
			}
		})
	}
}
