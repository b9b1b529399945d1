// Package session defines the per-run data model: benchmark fixtures, the
// patches agents produce, and the SessionData envelope that ties one agent
// run's transcript to its fixture. It also handles the JSONL persistence of
// session corpora.
package session

import (
	"fmt"
	"strings"
)

// Fixture is the immutable identity of one benchmark problem instance.
type Fixture struct {
	Org              string `json:"org"`
	Repo             string `json:"repo"`
	InstanceID       string `json:"instance_id"`
	BaseCommit       string `json:"base_commit"`
	ProblemStatement string `json:"problem_statement"`
}

// RepoKey returns the "org/repo" key used to group fixtures by repository.
func (f Fixture) RepoKey() string {
	return f.Org + "/" + f.Repo
}

// WorktreeName returns the unique worktree directory name for this fixture.
func (f Fixture) WorktreeName() string {
	commit := f.BaseCommit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return fmt.Sprintf("%s_%s", f.InstanceID, commit)
}

// Materialization records where a fixture's working copy lives on disk. It is
// produced by the download step, separately from the fixture identity, and
// passed alongside it.
type Materialization struct {
	RepoPath     string `json:"repo_path"`
	WorktreePath string `json:"worktree_path"`
}

// MaterializedFixture pairs a fixture identity with its on-disk placement.
// The embedded structs flatten in JSON, matching the persisted fixture shape.
type MaterializedFixture struct {
	Fixture
	Materialization
}

// SplitRepoField splits a dataset "org/name" repo field into its components.
func SplitRepoField(repo string) (org, name string, err error) {
	org, name, ok := strings.Cut(repo, "/")
	if !ok || org == "" || name == "" {
		return "", "", fmt.Errorf("malformed repo field %q, want org/name", repo)
	}
	return org, name, nil
}
