// Package dataset loads benchmark problem instances from a local SWE-bench
// export and turns them into fixture identities.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lunarfall/swevals/internal/session"
)

// row is one dataset record in the upstream export shape. The repo field
// holds "org/name" and is split on load.
type row struct {
	Repo             string `json:"repo"`
	InstanceID       string `json:"instance_id"`
	BaseCommit       string `json:"base_commit"`
	ProblemStatement string `json:"problem_statement"`
}

func (r row) toFixture() (session.Fixture, error) {
	org, name, err := session.SplitRepoField(r.Repo)
	if err != nil {
		return session.Fixture{}, fmt.Errorf("instance %s: %w", r.InstanceID, err)
	}
	if r.InstanceID == "" {
		return session.Fixture{}, fmt.Errorf("dataset row for %s has no instance_id", r.Repo)
	}
	if r.BaseCommit == "" {
		return session.Fixture{}, fmt.Errorf("instance %s has no base_commit", r.InstanceID)
	}
	return session.Fixture{
		Org:              org,
		Repo:             name,
		InstanceID:       r.InstanceID,
		BaseCommit:       r.BaseCommit,
		ProblemStatement: r.ProblemStatement,
	}, nil
}

// Load reads a dataset export into fixtures. Both a JSON array file and
// newline-delimited JSON are accepted; the extension decides.
func Load(path string) ([]session.Fixture, error) {
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return loadJSONL(path)
	}
	return loadJSON(path)
}

func loadJSON(path string) ([]session.Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	var rows []row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return toFixtures(path, rows)
}

func loadJSONL(path string) ([]session.Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	var rows []row
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r row
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		rows = append(rows, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return toFixtures(path, rows)
}

func toFixtures(path string, rows []row) ([]session.Fixture, error) {
	fixtures := make([]session.Fixture, 0, len(rows))
	for _, r := range rows {
		fx, err := r.toFixture()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}
