package stats

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lunarfall/swevals/internal/harness"
)

// RunReport is the per-run report file: every session's statistics, their
// average, and the scoring harness's own report passed through opaquely.
type RunReport struct {
	Stats                  []Statistics    `json:"stats"`
	AvgStats               AvgStatistics   `json:"avg_stats"`
	SweBenchInternalReport *harness.Report `json:"swe_bench_internal_report"`
}

// WriteReport writes the report file with stable indentation.
func WriteReport(path string, r *RunReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}

// LoadReport reads a per-run report file.
func LoadReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing run report %s: %w", path, err)
	}
	return &r, nil
}
