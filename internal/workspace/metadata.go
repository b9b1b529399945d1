package workspace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lunarfall/swevals/internal/session"
)

// WriteMetadata persists materialized fixtures so later phases can find the
// worktrees without re-running the download step.
func WriteMetadata(path string, fixtures []session.MaterializedFixture) error {
	data, err := json.MarshalIndent(fixtures, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling fixtures metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing fixtures metadata: %w", err)
	}
	return nil
}

// LoadMetadata reads the materialized-fixture metadata file.
func LoadMetadata(path string) ([]session.MaterializedFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures metadata: %w", err)
	}
	var fixtures []session.MaterializedFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parsing fixtures metadata %s: %w", path, err)
	}
	return fixtures, nil
}
