package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/lunarfall/swevals/internal/config"
	"github.com/lunarfall/swevals/internal/session"
	"github.com/lunarfall/swevals/internal/transcript"
	"github.com/lunarfall/swevals/internal/workspace"
)

// sessionIDPattern matches the agent's session-creation log line. The id is
// only ever reported through the log stream, so this capture is load-bearing.
var sessionIDPattern = regexp.MustCompile(`INFO.*service=session id=([^\s]+).*created`)

// CaptureSessionID extracts the agent session id from one log line, or ""
// when the line is not the creation record.
func CaptureSessionID(line string) string {
	m := sessionIDPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Runner executes one agent subprocess per fixture.
type Runner struct {
	Config      *config.Config
	Workspace   *workspace.Manager
	StoragePath string // agent's session storage root
	LogStdout   bool
	logger      *slog.Logger
	decoder     *transcript.Decoder
}

// NewRunner builds a Runner. A nil logger falls back to slog.Default; the
// storage path defaults to the agent's standard per-user location.
func NewRunner(cfg *config.Config, ws *workspace.Manager, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	storagePath := ""
	if home, err := os.UserHomeDir(); err == nil {
		storagePath = filepath.Join(home, ".local", "share", "opencode", "storage")
	}
	return &Runner{
		Config:      cfg,
		Workspace:   ws,
		StoragePath: storagePath,
		LogStdout:   cfg.Pipeline.AgentLogStdout,
		logger:      logger,
		decoder:     transcript.NewDecoder(logger),
	}
}

func (r *Runner) npxArgs(extra ...string) []string {
	pkg := "opencode-ai@" + r.Config.Agent.Version
	return append([]string{"--yes", pkg}, extra...)
}

// EnsureInstalled installs the pinned agent version through npx and verifies
// the reported version matches.
func (r *Runner) EnsureInstalled(ctx context.Context) error {
	// First invocation pulls the package; the second verifies it.
	_ = exec.CommandContext(ctx, "npx", r.npxArgs("--version")...).Run()

	out, err := exec.CommandContext(ctx, "npx", r.npxArgs("--version")...).Output()
	if err != nil {
		return fmt.Errorf("checking agent version: %w", err)
	}
	got := strings.TrimSpace(string(out))
	if got != r.Config.Agent.Version {
		return fmt.Errorf("agent version mismatch: got %s, want %s", got, r.Config.Agent.Version)
	}
	r.logger.Info("agent installed", "version", got)
	return nil
}

// subprocessResult is the raw outcome of one agent subprocess.
type subprocessResult struct {
	sessionID    string
	killed       bool
	killedReason string
}

// runSubprocess runs the agent in the fixture's worktree, streaming its
// merged output to the log file while watching for the session id. The run is
// killed when it exceeds the fixture timeout.
func (r *Runner) runSubprocess(ctx context.Context, fx session.MaterializedFixture, userPrompt, logPath string) (subprocessResult, error) {
	logFile, err := os.Create(logPath)
	if err != nil {
		return subprocessResult{}, fmt.Errorf("creating agent log: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	timeout := time.Duration(r.Config.Pipeline.FixtureTimeout) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := r.npxArgs("run", "--print-logs", "--log-level", "INFO", userPrompt)
	cmd := exec.CommandContext(runCtx, "npx", args...)
	cmd.Dir = fx.WorktreePath
	cmd.Env = append(os.Environ(), "OPENCODE_CONFIG="+r.Config.AgentConfigPath())

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return subprocessResult{}, fmt.Errorf("piping agent output: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	r.logger.Info("running agent", "instance", fx.InstanceID, "worktree", fx.WorktreePath)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return subprocessResult{}, fmt.Errorf("starting agent: %w", err)
	}

	var result subprocessResult
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if result.sessionID == "" {
			if id := CaptureSessionID(line); id != "" {
				result.sessionID = id
				r.logger.Info("captured agent session id", "session", id)
			}
		}
		// The INFO log stream only matters for the id capture above.
		if strings.HasPrefix(strings.TrimSpace(line), "INFO") {
			continue
		}
		if r.LogStdout {
			fmt.Println(line)
		}
		fmt.Fprintln(logFile, line)
	}

	waitErr := cmd.Wait()
	elapsed := time.Since(start)
	r.logger.Info("agent finished", "instance", fx.InstanceID, "elapsed", elapsed.Round(time.Second))

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		r.logger.Warn("agent killed by timeout", "instance", fx.InstanceID, "timeout", timeout)
		result.killed = true
		result.killedReason = session.KilledTimeout
	case waitErr != nil:
		r.logger.Warn("agent exited with error", "instance", fx.InstanceID, "error", waitErr)
		result.killed = true
		result.killedReason = session.KilledError
	}
	return result, nil
}

// gitDiff captures the worktree's uncommitted changes against HEAD.
func gitDiff(ctx context.Context, worktreePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "HEAD")
	cmd.Dir = worktreePath
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("capturing git diff: %w", err)
	}
	return string(out), nil
}

// Run executes the agent for one fixture: rollback, run, diff capture,
// rollback again, then transcript collection from the agent's storage.
func (r *Runner) Run(ctx context.Context, fx session.MaterializedFixture) (*session.SessionData, error) {
	if err := r.Workspace.Rollback(ctx, fx.WorktreePath); err != nil {
		return nil, fmt.Errorf("pre-run rollback: %w", err)
	}

	userPrompt := strings.ReplaceAll(r.Config.Agent.UserPrompt, "{problem_statement}", fx.ProblemStatement)

	logsDir := r.Config.AgentLogsDir(fx.InstanceID)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating agent log dir: %w", err)
	}
	logPath := filepath.Join(logsDir, config.AgentLogsFile)

	result, err := r.runSubprocess(ctx, fx, userPrompt, logPath)
	if err != nil {
		return nil, err
	}

	diff, err := gitDiff(ctx, fx.WorktreePath)
	if err != nil {
		return nil, err
	}
	// Discard the agent's edits so the next run on this worktree starts clean.
	if err := r.Workspace.Rollback(ctx, fx.WorktreePath); err != nil {
		return nil, fmt.Errorf("post-run rollback: %w", err)
	}

	if result.sessionID == "" {
		return nil, fmt.Errorf("instance %s: agent session id not found in log stream", fx.InstanceID)
	}

	records, err := r.readSessionStorage(result.sessionID)
	if err != nil {
		return nil, err
	}

	return &session.SessionData{
		SessionID: result.sessionID,
		Fixture:   fx,
		Patch: session.Patch{
			InstanceID:      fx.InstanceID,
			ModelNameOrPath: r.Config.Agent.Model,
			ModelPatch:      diff,
		},
		Records:      records,
		Killed:       result.killed,
		KilledReason: result.killedReason,
	}, nil
}
