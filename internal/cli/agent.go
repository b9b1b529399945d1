package cli

import (
	"github.com/spf13/cobra"

	"github.com/lunarfall/swevals/internal/agent"
	"github.com/lunarfall/swevals/internal/indexer"
	"github.com/lunarfall/swevals/internal/session"
	"github.com/lunarfall/swevals/internal/transcript"
	"github.com/lunarfall/swevals/internal/workspace"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the coding agent against every materialized fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtures, err := workspace.LoadMetadata(cfg.FixturesMetadataPath())
		if err != nil {
			return err
		}

		mgr := workspace.NewManager(cfg.ReposDir(), cfg.Pipeline.MaxWorkers, logger)
		runner := agent.NewRunner(cfg, mgr, logger)

		// The indexer only participates when the agent can reach it over MCP.
		var svc *indexer.Service
		if cfg.Agent.MCP.Enabled && !cfg.Pipeline.SkipIndex {
			svc = indexer.NewService(cfg.Pipeline.IndexerPath, logger)
		}

		if err := runner.RunBatch(cmd.Context(), fixtures, svc, cfg.SessionDataPath()); err != nil {
			return err
		}

		// The patches file is derived from the surviving sessions so the
		// scoring harness always sees the complete corpus.
		sessions, err := session.ReadJSONL(cfg.SessionDataPath(), transcript.NewDecoder(logger))
		if err != nil {
			return err
		}
		return session.WritePatches(cfg.PatchesPath(), sessions)
	},
}
