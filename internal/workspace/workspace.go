// Package workspace materializes benchmark fixtures on disk: one clone per
// repository, one git worktree per fixture pinned to its base commit.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/lunarfall/swevals/internal/session"
)

// Manager runs the git plumbing for fixture materialization.
type Manager struct {
	ReposDir   string
	MaxWorkers int
	logger     *slog.Logger
}

// NewManager returns a Manager cloning under reposDir with at most maxWorkers
// concurrent git operations. A nil logger falls back to slog.Default.
func NewManager(reposDir string, maxWorkers int, logger *slog.Logger) *Manager {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{ReposDir: reposDir, MaxWorkers: maxWorkers, logger: logger}
}

// RepoPath returns where a fixture's repository is cloned.
func (m *Manager) RepoPath(fx session.Fixture) string {
	return filepath.Join(m.ReposDir, fx.Org, fx.Repo)
}

// WorktreePath returns where a fixture's worktree lives.
func (m *Manager) WorktreePath(fx session.Fixture) string {
	return filepath.Join(m.RepoPath(fx), "worktrees", fx.WorktreeName())
}

func git(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git %s: %w: %s", args[0], err, out)
	}
	return nil
}

// CloneRepo clones a fixture's repository unless a clone is already present.
func (m *Manager) CloneRepo(ctx context.Context, fx session.Fixture) error {
	repoPath := m.RepoPath(fx)
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err == nil {
		m.logger.Debug("repository already cloned", "repo", fx.RepoKey())
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(repoPath), 0o755); err != nil {
		return fmt.Errorf("creating repos dir: %w", err)
	}

	url := fmt.Sprintf("https://github.com/%s/%s.git", fx.Org, fx.Repo)
	m.logger.Info("cloning repository", "repo", fx.RepoKey(), "path", repoPath)
	if err := git(ctx, "", "clone", url, repoPath); err != nil {
		return fmt.Errorf("cloning %s: %w", fx.RepoKey(), err)
	}
	return nil
}

// AddWorktree creates the fixture's worktree at its base commit. An existing
// worktree with git metadata is reused.
func (m *Manager) AddWorktree(ctx context.Context, fx session.Fixture) (string, error) {
	worktreePath := m.WorktreePath(fx)
	if _, err := os.Stat(filepath.Join(worktreePath, ".git")); err == nil {
		m.logger.Debug("worktree already exists", "worktree", fx.WorktreeName())
		return worktreePath, nil
	}
	if err := os.MkdirAll(filepath.Dir(worktreePath), 0o755); err != nil {
		return "", fmt.Errorf("creating worktrees dir: %w", err)
	}

	m.logger.Info("creating worktree", "repo", fx.RepoKey(), "worktree", fx.WorktreeName())
	err := git(ctx, "", "-C", m.RepoPath(fx), "worktree", "add", worktreePath, fx.BaseCommit)
	if err != nil {
		return "", fmt.Errorf("worktree %s: %w", fx.WorktreeName(), err)
	}
	return worktreePath, nil
}

// Rollback discards all changes in a worktree, tracked and untracked.
func (m *Manager) Rollback(ctx context.Context, worktreePath string) error {
	if err := git(ctx, worktreePath, "restore", "."); err != nil {
		return err
	}
	return git(ctx, worktreePath, "clean", "-fd")
}

// RemoveWorktree removes a fixture's worktree. If git refuses, the directory
// is removed directly so scoring never sees stale agent edits.
func (m *Manager) RemoveWorktree(ctx context.Context, fx session.MaterializedFixture) error {
	if fx.WorktreePath == "" || fx.RepoPath == "" {
		m.logger.Warn("skipping worktree removal, fixture not materialized", "instance", fx.InstanceID)
		return nil
	}
	if _, err := os.Stat(fx.WorktreePath); os.IsNotExist(err) {
		m.logger.Debug("worktree already removed", "worktree", fx.WorktreePath)
		return nil
	}

	m.logger.Info("removing worktree", "repo", fx.RepoKey(), "worktree", fx.WorktreeName())
	err := git(ctx, "", "-C", fx.RepoPath, "worktree", "remove", "--force", fx.WorktreePath)
	if err != nil {
		m.logger.Warn("git worktree remove failed, removing directory", "worktree", fx.WorktreePath, "error", err)
		if rmErr := os.RemoveAll(fx.WorktreePath); rmErr != nil {
			return fmt.Errorf("removing worktree %s: %w", fx.WorktreePath, rmErr)
		}
	}
	return nil
}

// RemoveWorktrees removes every fixture's worktree, continuing past failures.
func (m *Manager) RemoveWorktrees(ctx context.Context, fixtures []session.MaterializedFixture) {
	for _, fx := range fixtures {
		if err := m.RemoveWorktree(ctx, fx); err != nil {
			m.logger.Error("worktree removal failed", "instance", fx.InstanceID, "error", err)
		}
	}
}

// MaterializeAll clones every unique repository, then creates one worktree per
// fixture. Clones run first so worktree creation never races a clone of the
// same repository.
func (m *Manager) MaterializeAll(ctx context.Context, fixtures []session.Fixture) ([]session.MaterializedFixture, error) {
	seen := make(map[string]struct{})
	var unique []session.Fixture
	for _, fx := range fixtures {
		if _, ok := seen[fx.RepoKey()]; ok {
			continue
		}
		seen[fx.RepoKey()] = struct{}{}
		unique = append(unique, fx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.MaxWorkers)
	for _, fx := range unique {
		g.Go(func() error {
			return m.CloneRepo(gctx, fx)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	materialized := make([]session.MaterializedFixture, len(fixtures))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(m.MaxWorkers)
	for i, fx := range fixtures {
		g.Go(func() error {
			worktreePath, err := m.AddWorktree(gctx, fx)
			if err != nil {
				return err
			}
			materialized[i] = session.MaterializedFixture{
				Fixture: fx,
				Materialization: session.Materialization{
					RepoPath:     m.RepoPath(fx),
					WorktreePath: worktreePath,
				},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return materialized, nil
}
