package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

// Config holds the arguments passed to the SWE-bench evaluation harness.
type Config struct {
	DatasetName     string
	PredictionsPath string
	Split           string
	Namespace       string
	MaxWorkers      int
	RunID           string
	ForceRebuild    bool
	ReportDir       string
}

// Args renders the config as harness CLI arguments.
func (c Config) Args() []string {
	return []string{
		"--dataset_name", c.DatasetName,
		"--predictions_path", c.PredictionsPath,
		"--split", c.Split,
		"--namespace", c.Namespace,
		"--force_rebuild", strconv.FormatBool(c.ForceRebuild),
		"--max_workers", strconv.Itoa(c.MaxWorkers),
		"--run_id", c.RunID,
		"--report_dir", c.ReportDir,
	}
}

// Runner invokes the external SWE-bench harness as a subprocess, after a
// docker preflight. The harness's pass/fail semantics are opaque to the
// pipeline; only its report is consumed.
type Runner struct {
	HarnessDir string // checkout of the SWE-bench harness
	Python     string // interpreter to run the harness with
	BaseImage  string // optional image to warm before scoring
	AutoPull   bool
	logger     *slog.Logger
}

// NewRunner creates a harness runner.
func NewRunner(harnessDir, python, baseImage string, autoPull bool, logger *slog.Logger) *Runner {
	if python == "" {
		python = "python3"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		HarnessDir: harnessDir,
		Python:     python,
		BaseImage:  baseImage,
		AutoPull:   autoPull,
		logger:     logger,
	}
}

// Run performs the docker preflight and executes the harness evaluation.
func (r *Runner) Run(ctx context.Context, cfg Config) error {
	docker, err := NewDockerClient()
	if err != nil {
		return err
	}
	defer func() { _ = docker.Close() }()

	if r.BaseImage != "" {
		if err := docker.EnsureImage(ctx, r.BaseImage, r.AutoPull); err != nil {
			return fmt.Errorf("ensuring harness base image: %w", err)
		}
	}

	args := append([]string{"-m", "swebench.harness.run_evaluation"}, cfg.Args()...)
	r.logger.Info("running swe-bench evaluation", "python", r.Python, "run_id", cfg.RunID)

	cmd := exec.CommandContext(ctx, r.Python, args...)
	cmd.Dir = r.HarnessDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("swe-bench harness: %w", err)
	}
	return nil
}
