package cli

import (
	"github.com/spf13/cobra"

	"github.com/lunarfall/swevals/internal/indexer"
	"github.com/lunarfall/swevals/internal/workspace"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index every fixture worktree with the knowledge-graph service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Pipeline.SkipIndex {
			logger.Info("indexing skipped by config")
			return nil
		}

		fixtures, err := workspace.LoadMetadata(cfg.FixturesMetadataPath())
		if err != nil {
			return err
		}

		paths := make([]string, 0, len(fixtures))
		for _, fx := range fixtures {
			if fx.WorktreePath != "" {
				paths = append(paths, fx.WorktreePath)
			}
		}

		svc := indexer.NewService(cfg.Pipeline.IndexerPath, logger)
		return svc.IndexWorktrees(cmd.Context(), paths)
	},
}
