package dataset

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing dataset: %v", err)
	}
	return path
}

func TestLoadJSONArray(t *testing.T) {
	t.Parallel()

	path := writeDataset(t, "dev.json", `[
		{"repo":"django/django","instance_id":"django__django-1","base_commit":"abc123","problem_statement":"fix it"},
		{"repo":"pallets/flask","instance_id":"flask__flask-2","base_commit":"def456","problem_statement":"broken"}
	]`)

	fixtures, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("fixtures = %d, want 2", len(fixtures))
	}
	if fixtures[0].Org != "django" || fixtures[0].Repo != "django" {
		t.Errorf("fixture 0 = %+v", fixtures[0])
	}
	if fixtures[1].RepoKey() != "pallets/flask" {
		t.Errorf("fixture 1 repo key = %q", fixtures[1].RepoKey())
	}
	if fixtures[0].ProblemStatement != "fix it" {
		t.Errorf("problem statement = %q", fixtures[0].ProblemStatement)
	}
}

func TestLoadJSONL(t *testing.T) {
	t.Parallel()

	path := writeDataset(t, "dev.jsonl", `{"repo":"django/django","instance_id":"django__django-1","base_commit":"abc123","problem_statement":"fix it"}

{"repo":"sympy/sympy","instance_id":"sympy__sympy-3","base_commit":"fed789","problem_statement":"wrong result"}
`)

	fixtures, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// Blank lines are skipped, not errors.
	if len(fixtures) != 2 {
		t.Fatalf("fixtures = %d, want 2", len(fixtures))
	}
	if fixtures[1].InstanceID != "sympy__sympy-3" {
		t.Errorf("fixture 1 = %+v", fixtures[1])
	}
}

func TestLoadRejectsMalformedRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  string
	}{
		{"repo without org", `{"repo":"django","instance_id":"x","base_commit":"abc"}`},
		{"missing instance id", `{"repo":"django/django","base_commit":"abc"}`},
		{"missing base commit", `{"repo":"django/django","instance_id":"x"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeDataset(t, "bad.jsonl", tc.row+"\n")
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail for malformed row")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}
