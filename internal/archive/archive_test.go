package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func testRunDir(t *testing.T) string {
	t.Helper()
	runDir := filepath.Join(t.TempDir(), "baseline")
	writeFile(t, filepath.Join(runDir, "session_data.jsonl"), `{"session_id":"ses_1"}`+"\n")
	writeFile(t, filepath.Join(runDir, "swebench_report", "report.json"), `{"total_instances":1}`)
	// Reproducible trees stay out of the archive.
	writeFile(t, filepath.Join(runDir, "repos", "django", "setup.py"), "big")
	writeFile(t, filepath.Join(runDir, "logs", "__pycache__", "x.pyc"), "cache")
	return runDir
}

func TestArchiveRun(t *testing.T) {
	t.Parallel()

	runDir := testRunDir(t)
	cfgPath := filepath.Join(t.TempDir(), "swevals.toml")
	writeFile(t, cfgPath, "[pipeline]\nsession_name = \"baseline\"\n")

	a := NewArchiver(t.TempDir(), nil)
	a.now = func() time.Time { return time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC) }

	ts := a.Timestamp()
	if ts != "2026-08-30--10:30:00" {
		t.Errorf("Timestamp() = %q", ts)
	}

	dest, err := a.ArchiveRun(ts, runDir, cfgPath)
	if err != nil {
		t.Fatalf("ArchiveRun() error = %v", err)
	}
	if !strings.HasSuffix(dest, filepath.Join(ts, "baseline")) {
		t.Errorf("dest = %q", dest)
	}

	for _, rel := range []string{"session_data.jsonl", "swebench_report/report.json", "config.toml", ManifestFile} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing archived file %s: %v", rel, err)
		}
	}
	for _, rel := range []string{"repos", "logs/__pycache__"} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(rel))); !os.IsNotExist(err) {
			t.Errorf("ignored dir %s should not be archived", rel)
		}
	}

	bad, err := Verify(dest)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(bad) != 0 {
		t.Errorf("fresh archive verify = %v, want clean", bad)
	}
}

func TestBuildManifestExcludesItself(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "beta")
	writeFile(t, filepath.Join(dir, ManifestFile), "{}")

	manifest, err := BuildManifest(dir)
	if err != nil {
		t.Fatalf("BuildManifest() error = %v", err)
	}
	if len(manifest) != 2 {
		t.Errorf("manifest = %v, want 2 entries", manifest)
	}
	if _, ok := manifest[ManifestFile]; ok {
		t.Error("manifest should not hash itself")
	}
	// Keys are slash separated regardless of platform.
	digest, ok := manifest["sub/b.txt"]
	if !ok || !strings.HasPrefix(digest, "blake3:") {
		t.Errorf("sub/b.txt digest = %q", digest)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	t.Parallel()

	runDir := testRunDir(t)
	a := NewArchiver(t.TempDir(), nil)
	dest, err := a.ArchiveRun(a.Timestamp(), runDir, "")
	if err != nil {
		t.Fatalf("ArchiveRun() error = %v", err)
	}

	writeFile(t, filepath.Join(dest, "session_data.jsonl"), "tampered\n")
	if err := os.Remove(filepath.Join(dest, "swebench_report", "report.json")); err != nil {
		t.Fatalf("removing file: %v", err)
	}

	bad, err := Verify(dest)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	found := make(map[string]bool, len(bad))
	for _, rel := range bad {
		found[rel] = true
	}
	if !found["session_data.jsonl"] {
		t.Error("modified file not reported")
	}
	if !found["swebench_report/report.json"] {
		t.Error("missing file not reported")
	}
	if len(bad) != 2 {
		t.Errorf("Verify() = %v, want exactly the two damaged paths", bad)
	}
}
