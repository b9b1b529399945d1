package cli

import (
	"github.com/spf13/cobra"

	"github.com/lunarfall/swevals/internal/harness"
	"github.com/lunarfall/swevals/internal/workspace"
)

var evalsCmd = &cobra.Command{
	Use:   "evals",
	Short: "Score the produced patches with the SWE-bench harness",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Worktrees must be gone before scoring: the harness checks out the
		// same repositories and stale agent edits would leak into containers.
		fixtures, err := workspace.LoadMetadata(cfg.FixturesMetadataPath())
		if err != nil {
			return err
		}
		mgr := workspace.NewManager(cfg.ReposDir(), cfg.Pipeline.MaxWorkers, logger)
		mgr.RemoveWorktrees(cmd.Context(), fixtures)

		sb := cfg.Evals.SweBench
		runner := harness.NewRunner(sb.HarnessDir, sb.Python, sb.BaseImage, sb.AutoPull, logger)
		return runner.Run(cmd.Context(), harness.Config{
			DatasetName:     sb.DatasetName,
			PredictionsPath: cfg.PatchesPath(),
			Split:           sb.Split,
			Namespace:       sb.Namespace,
			MaxWorkers:      sb.MaxWorkers,
			RunID:           sb.RunID,
			ForceRebuild:    sb.ForceRebuild,
			ReportDir:       cfg.ReportDir(),
		})
	},
}
