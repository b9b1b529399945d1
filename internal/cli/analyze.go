package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lunarfall/swevals/internal/analysis"
)

var (
	pinnedRun   string
	watchMode   bool
	analysisOut string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Aggregate archived runs into cross-run metrics",
	Long: `Analyze walks the archive tree, derives per-execution metrics for every
archived run, and averages repeated executions of the same run variant.

With --pinned, only the named archive snapshot is analyzed and its executions
are reported without averaging. With --watch, the analysis re-runs whenever
the archive changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer := analysis.NewAnalyzer(cfg.ArchiveDir(), logger)

		runOnce := func() error {
			metadata, err := analyzer.AnalyzeCrossRun(pinnedRun)
			if err != nil {
				return err
			}
			analysis.FormatAll(os.Stdout, metadata)
			if analysisOut != "" {
				if err := analysis.WriteMetadata(analysisOut, metadata); err != nil {
					return err
				}
				logger.Info("wrote analysis output", "path", analysisOut)
			}
			return nil
		}

		if err := runOnce(); err != nil {
			return err
		}
		if !watchMode {
			return nil
		}

		watcher := analysis.NewWatcher(cfg.ArchiveDir(), 2*time.Second, func() {
			if err := runOnce(); err != nil {
				logger.Error("analysis failed", "error", err)
			}
		}, logger)
		logger.Info("watching archive for changes", "dir", cfg.ArchiveDir())
		return watcher.Watch(cmd.Context())
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&pinnedRun, "pinned", "", "analyze only this archive snapshot, without averaging")
	analyzeCmd.Flags().BoolVar(&watchMode, "watch", false, "re-run analysis when the archive changes")
	analyzeCmd.Flags().StringVarP(&analysisOut, "output", "o", "", "write cross-run metadata JSON to this path")
}
