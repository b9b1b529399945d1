package analysis

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/lunarfall/swevals/internal/session"
	"github.com/lunarfall/swevals/internal/stats"
	"github.com/lunarfall/swevals/internal/transcript"
)

// Default locations of the inputs inside one archived run directory.
const (
	ReportRelPath      = "swebench_report/report.json"
	SessionDataRelPath = "session_data.jsonl"
)

// Analyzer loads archived runs and reduces them to cross-run metadata.
type Analyzer struct {
	ArchiveDir string
	logger     *slog.Logger
	decoder    *transcript.Decoder
}

// NewAnalyzer returns an Analyzer over the given archive root. A nil logger
// falls back to slog.Default.
func NewAnalyzer(archiveDir string, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		ArchiveDir: archiveDir,
		logger:     logger,
		decoder:    transcript.NewDecoder(logger),
	}
}

// LoadRunData reads one archived run directory: its report file and every
// session from the session log, with the file-access order and patch path
// correlation filled in on each session.
func (a *Analyzer) LoadRunData(dir string) (*stats.RunReport, []*session.SessionData, error) {
	report, err := stats.LoadReport(filepath.Join(dir, ReportRelPath))
	if err != nil {
		return nil, nil, err
	}
	sessions, err := session.ReadJSONL(filepath.Join(dir, SessionDataRelPath), a.decoder)
	if err != nil {
		return nil, nil, err
	}
	for _, s := range sessions {
		CorrelateDiff(s)
	}
	return report, sessions, nil
}

// runDirs enumerates archived run directories. The archive is laid out as
// archive/<snapshot>/<group>/<run_name>; pinned, when set, restricts the walk
// to snapshots of that name.
func (a *Analyzer) runDirs(pinned string) ([]string, error) {
	snapshots, err := os.ReadDir(a.ArchiveDir)
	if err != nil {
		return nil, fmt.Errorf("reading archive dir: %w", err)
	}

	var dirs []string
	for _, snap := range snapshots {
		if !snap.IsDir() {
			continue
		}
		if pinned != "" && snap.Name() != pinned {
			continue
		}
		snapDir := filepath.Join(a.ArchiveDir, snap.Name())
		groups, err := os.ReadDir(snapDir)
		if err != nil {
			return nil, fmt.Errorf("reading archive snapshot %s: %w", snap.Name(), err)
		}
		for _, group := range groups {
			if !group.IsDir() {
				continue
			}
			groupDir := filepath.Join(snapDir, group.Name())
			runs, err := os.ReadDir(groupDir)
			if err != nil {
				return nil, fmt.Errorf("reading archive group %s: %w", group.Name(), err)
			}
			for _, run := range runs {
				if run.IsDir() {
					dirs = append(dirs, filepath.Join(groupDir, run.Name()))
				}
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// AnalyzeCrossRun derives metadata for every archived execution and groups it
// by run variant name. Without a pin, repeated executions of a variant are
// averaged into one aggregate entry; with a pin, the pinned snapshot's
// executions are reported as-is, first execution per variant.
func (a *Analyzer) AnalyzeCrossRun(pinned string) (map[string]RunMetadata, error) {
	dirs, err := a.runDirs(pinned)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]RunMetadata)
	for _, dir := range dirs {
		runName := filepath.Base(dir)
		a.logger.Debug("analyzing archived run", "dir", dir, "run", runName)

		report, sessions, err := a.LoadRunData(dir)
		if err != nil {
			return nil, fmt.Errorf("loading run %s: %w", dir, err)
		}
		meta, err := Derive(runName, report, sessions)
		if err != nil {
			return nil, err
		}
		grouped[runName] = append(grouped[runName], meta)
	}

	out := make(map[string]RunMetadata, len(grouped))
	for name, items := range grouped {
		if pinned != "" {
			out[name] = items[0]
			continue
		}
		a.logger.Info("averaging run variant", "run", name, "executions", len(items))
		avg, err := Average(items)
		if err != nil {
			return nil, fmt.Errorf("averaging %s: %w", name, err)
		}
		out[name] = avg
	}
	return out, nil
}

// WriteMetadata writes the cross-run metadata map as indented JSON, keys in
// stable order.
func WriteMetadata(path string, metadata map[string]RunMetadata) error {
	data, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing analysis output: %w", err)
	}
	return nil
}
