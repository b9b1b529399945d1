package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lunarfall/swevals/internal/archive"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Snapshot the configured run into the timestamped archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		runDir := cfg.RunDir()
		if _, err := os.Stat(runDir); err != nil {
			return fmt.Errorf("run directory does not exist: %s", runDir)
		}

		arch := archive.NewArchiver(cfg.ArchiveDir(), logger)
		dest, err := arch.ArchiveRun(arch.Timestamp(), runDir, cfgFile)
		if err != nil {
			return err
		}
		logger.Info("archived run", "dest", dest)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <archived-run-dir>",
	Short: "Verify an archived run against its integrity manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bad, err := archive.Verify(args[0])
		if err != nil {
			return err
		}
		if len(bad) > 0 {
			for _, rel := range bad {
				fmt.Printf("MODIFIED  %s\n", rel)
			}
			return fmt.Errorf("%d file(s) failed verification", len(bad))
		}
		fmt.Println("archive verified")
		return nil
	},
}
