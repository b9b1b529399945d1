package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: download, index, agent, evals, report",
	RunE: func(cmd *cobra.Command, args []string) error {
		phases := []*cobra.Command{downloadCmd, indexCmd, agentCmd, evalsCmd, reportCmd}
		for _, phase := range phases {
			logger.Info("running phase", "phase", phase.Name())
			if err := phase.RunE(cmd, nil); err != nil {
				return fmt.Errorf("phase %s: %w", phase.Name(), err)
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&datasetPath, "dataset", "", "path to the dataset export (JSON or JSONL)")
	_ = runCmd.MarkFlagRequired("dataset")
}
