// Package archive copies finished run directories into a timestamped archive
// tree and records an integrity manifest over the copied files.
package archive

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// ManifestFile is the integrity manifest written at the root of each archived
// run: relative path to prefixed BLAKE3 digest.
const ManifestFile = "manifest.json"

// ignoredDirs are skipped during archiving. Repos and harness checkouts are
// reproducible and huge; caches are noise.
var ignoredDirs = map[string]struct{}{
	"repos":        {},
	"harness":      {},
	"fixtures":     {},
	".git":         {},
	"node_modules": {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
}

// Archiver snapshots run directories under ArchiveDir/<timestamp>/<run>.
type Archiver struct {
	ArchiveDir string
	logger     *slog.Logger
	now        func() time.Time
}

// NewArchiver returns an Archiver writing under archiveDir. A nil logger
// falls back to slog.Default.
func NewArchiver(archiveDir string, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{ArchiveDir: archiveDir, logger: logger, now: time.Now}
}

// Timestamp returns the snapshot label for the current archiving pass.
func (a *Archiver) Timestamp() string {
	return a.now().Format("2006-01-02--15:04:05")
}

// ArchiveRun copies one run directory into the snapshot, skipping ignored
// directories, copies the run's config file next to it, and writes the
// integrity manifest. Returns the archived run directory.
func (a *Archiver) ArchiveRun(timestamp, runDir, configPath string) (string, error) {
	runName := filepath.Base(runDir)
	dest := filepath.Join(a.ArchiveDir, timestamp, runName)
	a.logger.Info("archiving run", "run", runName, "dest", dest)

	if err := copyTree(runDir, dest); err != nil {
		return "", fmt.Errorf("archiving %s: %w", runName, err)
	}

	if configPath != "" {
		if err := copyFile(configPath, filepath.Join(dest, "config.toml")); err != nil {
			return "", fmt.Errorf("archiving config for %s: %w", runName, err)
		}
	}

	manifest, err := BuildManifest(dest)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, ManifestFile), data, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return dest, nil
}

// BuildManifest hashes every regular file under dir, keyed by slash-separated
// relative path. The manifest file itself is excluded.
func BuildManifest(dir string) (map[string]string, error) {
	manifest := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestFile {
			return nil
		}
		digest, err := hashFile(path)
		if err != nil {
			return err
		}
		manifest[rel] = digest
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building manifest for %s: %w", dir, err)
	}
	return manifest, nil
}

// Verify re-hashes an archived run against its manifest and returns the
// relative paths that are missing or modified.
func Verify(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var manifest map[string]string
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	var bad []string
	for rel, want := range manifest {
		got, err := hashFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil || got != want {
			bad = append(bad, rel)
		}
	}
	return bad, nil
}

// hashFile returns the BLAKE3 hash of a file as a prefixed hex string.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "blake3:" + hex.EncodeToString(h.Sum(nil)), nil
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, ignored := ignoredDirs[d.Name()]; ignored && path != src {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}
			return os.MkdirAll(filepath.Join(dest, rel), 0o755)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dest, rel))
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
