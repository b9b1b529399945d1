// Package indexer manages the lifecycle of the auxiliary code-indexing
// service the agent queries over MCP: start, health check, per-worktree
// indexing, clean, stop.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"time"
)

// Service drives the indexer binary. The binary daemonizes itself when
// started detached and reports its port on stdout.
type Service struct {
	Binary        string
	HealthTimeout time.Duration
	HealthRetry   time.Duration
	logger        *slog.Logger
	client        *http.Client
}

// NewService returns a Service for the given indexer binary. A nil logger
// falls back to slog.Default.
func NewService(binary string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Binary:        binary,
		HealthTimeout: 2 * time.Second,
		HealthRetry:   3 * time.Second,
		logger:        logger,
		client:        &http.Client{},
	}
}

// Start launches the service detached and returns the port it reports.
func (s *Service) Start(ctx context.Context) (int, error) {
	s.logger.Info("starting indexer service")
	out, err := exec.CommandContext(ctx, s.Binary, "server", "start", "--detached").Output()
	if err != nil {
		return 0, fmt.Errorf("starting indexer: %w", err)
	}
	var started struct {
		Port int `json:"port"`
	}
	if err := json.Unmarshal(out, &started); err != nil {
		return 0, fmt.Errorf("parsing indexer start output: %w", err)
	}
	if started.Port == 0 {
		return 0, fmt.Errorf("indexer reported no port: %s", out)
	}
	return started.Port, nil
}

// Stop shuts the service down.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("stopping indexer service")
	if out, err := exec.CommandContext(ctx, s.Binary, "server", "stop").CombinedOutput(); err != nil {
		return fmt.Errorf("stopping indexer: %w: %s", err, out)
	}
	return nil
}

// Clean wipes the service's index state.
func (s *Service) Clean(ctx context.Context) error {
	s.logger.Info("cleaning indexer state")
	if out, err := exec.CommandContext(ctx, s.Binary, "clean").CombinedOutput(); err != nil {
		return fmt.Errorf("cleaning indexer: %w: %s", err, out)
	}
	return nil
}

// Index indexes one worktree.
func (s *Service) Index(ctx context.Context, worktreePath string) error {
	s.logger.Info("indexing worktree", "worktree", worktreePath)
	if out, err := exec.CommandContext(ctx, s.Binary, "index", worktreePath).CombinedOutput(); err != nil {
		return fmt.Errorf("indexing %s: %w: %s", worktreePath, err, out)
	}
	return nil
}

// Healthy polls the service's health endpoint until it answers 200 or the
// attempts run out.
func (s *Service) Healthy(ctx context.Context, port, attempts int) bool {
	url := fmt.Sprintf("http://localhost:%d/health", port)
	s.logger.Debug("checking indexer health", "url", url)
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return false
		}
		if s.probe(ctx, url) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.HealthRetry):
		}
	}
	return false
}

func (s *Service) probe(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, s.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// IndexWorktrees cleans the index and indexes every unique worktree.
func (s *Service) IndexWorktrees(ctx context.Context, worktreePaths []string) error {
	seen := make(map[string]struct{}, len(worktreePaths))
	var unique []string
	for _, p := range worktreePaths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}

	if err := s.Clean(ctx); err != nil {
		return err
	}
	for _, p := range unique {
		if err := s.Index(ctx, p); err != nil {
			return err
		}
	}
	s.logger.Info("indexed worktrees", "count", len(unique))
	return nil
}

// Restart stops the service, starts it fresh, and waits for it to become
// healthy. Used between agent batches to keep the service's memory bounded.
func (s *Service) Restart(ctx context.Context, healthAttempts int) (int, error) {
	if err := s.Stop(ctx); err != nil {
		s.logger.Warn("indexer stop before restart failed", "error", err)
	}
	port, err := s.Start(ctx)
	if err != nil {
		return 0, err
	}
	if !s.Healthy(ctx, port, healthAttempts) {
		return 0, fmt.Errorf("indexer did not become healthy on port %d", port)
	}
	return port, nil
}
