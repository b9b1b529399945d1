package config

import "path/filepath"

// Well-known file names inside one run directory.
const (
	FixturesMetadataFile = "fixtures_metadata.json"
	SessionDataFile      = "session_data.jsonl"
	PatchesFile          = "swebench_patches.jsonl"
	AgentConfigFile      = "opencode_config.json"
	AgentLogsFile        = "agent_logs.txt"
	ReportDirName        = "swebench_report"
	ReportFile           = "report.json"
)

// RunsDir returns the root of all run directories.
func (c *Config) RunsDir() string {
	return filepath.Join(c.Pipeline.DataDir, "runs")
}

// RunDir returns the directory for the configured session.
func (c *Config) RunDir() string {
	return filepath.Join(c.RunsDir(), c.Pipeline.SessionName)
}

// ReposDir returns where benchmark repositories are cloned.
func (c *Config) ReposDir() string {
	return filepath.Join(c.Pipeline.DataDir, "repos", "swebench")
}

// ArchiveDir returns the root of archived runs.
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.Pipeline.DataDir, "archive")
}

// FixturesMetadataPath returns the materialized-fixture metadata file for the
// configured session.
func (c *Config) FixturesMetadataPath() string {
	return filepath.Join(c.RunDir(), FixturesMetadataFile)
}

// SessionDataPath returns the session log for the configured session.
func (c *Config) SessionDataPath() string {
	return filepath.Join(c.RunDir(), SessionDataFile)
}

// PatchesPath returns the patch predictions file for the configured session.
func (c *Config) PatchesPath() string {
	return filepath.Join(c.RunDir(), PatchesFile)
}

// AgentConfigPath returns where the generated agent config JSON is written.
func (c *Config) AgentConfigPath() string {
	return filepath.Join(c.RunDir(), AgentConfigFile)
}

// AgentLogsDir returns the per-instance agent log directory.
func (c *Config) AgentLogsDir(instanceID string) string {
	return filepath.Join(c.RunDir(), "agent_logs", instanceID)
}

// ReportDir returns the scoring harness report directory for the session.
func (c *Config) ReportDir() string {
	return filepath.Join(c.RunDir(), ReportDirName)
}

// ReportPath returns the per-run report file for the session.
func (c *Config) ReportPath() string {
	return filepath.Join(c.ReportDir(), ReportFile)
}

// CachePath returns the session-stats cache database for the session.
func (c *Config) CachePath() string {
	return filepath.Join(c.Pipeline.DataDir, "cache.db")
}
