package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lunarfall/swevals/internal/config"
	"github.com/lunarfall/swevals/internal/harness"
	"github.com/lunarfall/swevals/internal/session"
	"github.com/lunarfall/swevals/internal/stats"
	"github.com/lunarfall/swevals/internal/store"
	"github.com/lunarfall/swevals/internal/transcript"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reduce session transcripts into the per-run report",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionStats, err := sessionStatistics(cfg)
		if err != nil {
			return err
		}
		avg, err := stats.Average(sessionStats)
		if err != nil {
			return err
		}

		internal, err := loadHarnessReport(cfg.ReportDir())
		if err != nil {
			logger.Warn("no harness report found, writing report without it", "error", err)
		}

		report := &stats.RunReport{
			Stats:                  sessionStats,
			AvgStats:               avg,
			SweBenchInternalReport: internal,
		}
		if err := stats.WriteReport(cfg.ReportPath(), report); err != nil {
			return err
		}
		logger.Info("wrote run report", "path", cfg.ReportPath(), "sessions", len(sessionStats))
		return nil
	},
}

// sessionStatistics computes per-session statistics for the configured run,
// served from the cache when the session log is unchanged.
func sessionStatistics(cfg *config.Config) ([]stats.Statistics, error) {
	logPath := cfg.SessionDataPath()
	info, err := os.Stat(logPath)
	if err != nil {
		return nil, fmt.Errorf("stating session log: %w", err)
	}
	mtimeNs := info.ModTime().UnixNano()
	size := info.Size()

	cache, err := store.Open(cfg.CachePath())
	if err != nil {
		return nil, err
	}
	defer func() { _ = cache.Close() }()

	if fresh, err := cache.Fresh(logPath, mtimeNs, size); err == nil && fresh {
		cached, err := cache.LoadStats(logPath)
		if err == nil && len(cached) > 0 {
			logger.Debug("serving session statistics from cache", "path", logPath)
			return cached, nil
		}
	}

	sessions, err := session.ReadJSONL(logPath, transcript.NewDecoder(logger))
	if err != nil {
		return nil, err
	}
	sessionStats := make([]stats.Statistics, 0, len(sessions))
	for _, s := range sessions {
		sessionStats = append(sessionStats, stats.Compute(s))
	}
	if err := cache.SaveStats(logPath, mtimeNs, size, sessionStats); err != nil {
		logger.Warn("caching session statistics failed", "error", err)
	}
	return sessionStats, nil
}

// loadHarnessReport finds the scoring harness's report JSON inside the report
// directory. The harness names the file after the model and run id, so any
// single JSON file qualifies.
func loadHarnessReport(reportDir string) (*harness.Report, error) {
	matches, err := filepath.Glob(filepath.Join(reportDir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no harness report in %s", reportDir)
	}
	sort.Strings(matches)
	return harness.LoadReport(matches[0])
}
