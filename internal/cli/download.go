package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lunarfall/swevals/internal/dataset"
	"github.com/lunarfall/swevals/internal/workspace"
)

var datasetPath string

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Clone benchmark repositories and create per-fixture worktrees",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Pipeline.SkipDownload {
			if _, err := os.Stat(cfg.FixturesMetadataPath()); err == nil {
				logger.Info("fixtures already materialized, skipping download",
					"metadata", cfg.FixturesMetadataPath())
				return nil
			}
		}

		fixtures, err := dataset.Load(datasetPath)
		if err != nil {
			return err
		}
		logger.Info("loaded dataset", "path", datasetPath, "fixtures", len(fixtures))

		if err := os.MkdirAll(cfg.RunDir(), 0o755); err != nil {
			return fmt.Errorf("creating run dir: %w", err)
		}

		mgr := workspace.NewManager(cfg.ReposDir(), cfg.Pipeline.MaxWorkers, logger)
		materialized, err := mgr.MaterializeAll(cmd.Context(), fixtures)
		if err != nil {
			return err
		}

		if err := workspace.WriteMetadata(cfg.FixturesMetadataPath(), materialized); err != nil {
			return err
		}
		logger.Info("materialized fixtures", "count", len(materialized),
			"metadata", cfg.FixturesMetadataPath())
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&datasetPath, "dataset", "", "path to the dataset export (JSON or JSONL)")
	_ = downloadCmd.MarkFlagRequired("dataset")
}
