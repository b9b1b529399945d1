package session

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lunarfall/swevals/internal/transcript"
)

func testFixture(id string) MaterializedFixture {
	return MaterializedFixture{
		Fixture: Fixture{
			Org:              "django",
			Repo:             "django",
			InstanceID:       id,
			BaseCommit:       "0123456789abcdef",
			ProblemStatement: "something is broken",
		},
		Materialization: Materialization{
			RepoPath:     "/data/repos/swebench/django",
			WorktreePath: "/data/repos/swebench/worktrees/" + id + "_01234567",
		},
	}
}

func TestFixtureWorktreeName(t *testing.T) {
	t.Parallel()

	f := Fixture{InstanceID: "django__django-1", BaseCommit: "0123456789abcdef"}
	if got, want := f.WorktreeName(), "django__django-1_01234567"; got != want {
		t.Errorf("WorktreeName() = %q, want %q", got, want)
	}

	// Short commits are used as-is.
	f.BaseCommit = "abc"
	if got, want := f.WorktreeName(), "django__django-1_abc"; got != want {
		t.Errorf("WorktreeName() = %q, want %q", got, want)
	}
}

func TestSplitRepoField(t *testing.T) {
	t.Parallel()

	org, name, err := SplitRepoField("django/django")
	if err != nil {
		t.Fatalf("SplitRepoField() error = %v", err)
	}
	if org != "django" || name != "django" {
		t.Errorf("SplitRepoField() = %q, %q", org, name)
	}

	for _, bad := range []string{"django", "/django", "django/", ""} {
		if _, _, err := SplitRepoField(bad); err == nil {
			t.Errorf("SplitRepoField(%q) should fail", bad)
		}
	}
}

func TestJSONLRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session_data.jsonl")
	in := []*SessionData{
		{
			SessionID: "ses_1",
			Fixture:   testFixture("django__django-1"),
			Patch: Patch{
				InstanceID:      "django__django-1",
				ModelNameOrPath: "claude",
				ModelPatch:      "diff --git a/x.py b/x.py\n",
			},
			Records: []transcript.Record{
				&transcript.UserMessage{ID: "m1", Role: transcript.RoleUser, SessionID: "ses_1"},
				&transcript.RawRecord{Raw: json.RawMessage(`{"type":"hologram","x":1}`)},
			},
		},
		{
			SessionID:    "ses_2",
			Fixture:      testFixture("django__django-2"),
			Killed:       true,
			KilledReason: KilledTimeout,
		},
	}

	if err := WriteJSONL(path, in); err != nil {
		t.Fatalf("WriteJSONL() error = %v", err)
	}

	out, err := ReadJSONL(path, transcript.NewDecoder(nil))
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("sessions = %d, want 2", len(out))
	}
	if out[0].SessionID != "ses_1" || out[0].Patch.ModelPatch != in[0].Patch.ModelPatch {
		t.Errorf("session 0 = %+v", out[0])
	}
	if len(out[0].Records) != 2 {
		t.Fatalf("records = %d, want 2", len(out[0].Records))
	}
	// Typed and raw records both survive persistence.
	if _, ok := out[0].Records[0].(*transcript.UserMessage); !ok {
		t.Errorf("record 0 = %T, want *transcript.UserMessage", out[0].Records[0])
	}
	if _, ok := out[0].Records[1].(*transcript.RawRecord); !ok {
		t.Errorf("record 1 = %T, want *transcript.RawRecord", out[0].Records[1])
	}
	if !out[1].Killed || out[1].KilledReason != KilledTimeout {
		t.Errorf("session 1 kill state = %v/%q", out[1].Killed, out[1].KilledReason)
	}
}

func TestAppendJSONL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session_data.jsonl")
	for _, id := range []string{"ses_1", "ses_2"} {
		s := &SessionData{SessionID: id, Fixture: testFixture("django__django-1")}
		if err := AppendJSONL(path, s); err != nil {
			t.Fatalf("AppendJSONL() error = %v", err)
		}
	}

	out, err := ReadJSONL(path, transcript.NewDecoder(nil))
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	if len(out) != 2 || out[0].SessionID != "ses_1" || out[1].SessionID != "ses_2" {
		t.Errorf("sessions = %+v", out)
	}
}

func TestReadJSONLMalformedLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session_data.jsonl")
	content := `{"session_id":"ses_1","messages":[]}
{"session_id":"ses_2","messages":[{"id":"x","text":"no role or type"}]}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing log: %v", err)
	}

	if _, err := ReadJSONL(path, transcript.NewDecoder(nil)); err == nil {
		t.Error("ReadJSONL() should fail when a session has a malformed record")
	}
}

func TestWritePatchesExcludesKilled(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "swebench_patches.jsonl")
	sessions := []*SessionData{
		{
			SessionID: "ses_1",
			Fixture:   testFixture("django__django-1"),
			Patch:     Patch{InstanceID: "django__django-1", ModelNameOrPath: "claude", ModelPatch: "diff"},
		},
		{
			SessionID: "ses_2",
			Fixture:   testFixture("django__django-2"),
			Patch:     Patch{InstanceID: "django__django-2", ModelNameOrPath: "claude", ModelPatch: "diff"},
			Killed:    true,
		},
	}

	if err := WritePatches(path, sessions); err != nil {
		t.Fatalf("WritePatches() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening patches: %v", err)
	}
	defer func() { _ = f.Close() }()

	var patches []Patch
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var p Patch
		if err := json.Unmarshal(scanner.Bytes(), &p); err != nil {
			t.Fatalf("decoding patch line: %v", err)
		}
		patches = append(patches, p)
	}
	if len(patches) != 1 || patches[0].InstanceID != "django__django-1" {
		t.Errorf("patches = %+v, want only the completed session", patches)
	}
}
