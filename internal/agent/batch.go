package agent

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lunarfall/swevals/internal/indexer"
	"github.com/lunarfall/swevals/internal/session"
)

// indexerHealthAttempts bounds the per-restart health poll.
const indexerHealthAttempts = 10

// RunBatch runs the agent over every fixture in fixed-size groups. The
// indexing service restarts between groups so its state never carries across
// a group boundary. Each finished session is appended to the session log
// immediately; a failed run is logged and skipped rather than aborting the
// batch.
func (r *Runner) RunBatch(ctx context.Context, fixtures []session.MaterializedFixture, svc *indexer.Service, sessionLogPath string) error {
	if err := WriteConfig(r.Config.AgentConfigPath(), r.Config.Agent); err != nil {
		return err
	}
	if err := r.EnsureInstalled(ctx); err != nil {
		return err
	}

	batchSize := r.Config.Pipeline.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}

	var logMu sync.Mutex
	for start := 0; start < len(fixtures); start += batchSize {
		end := min(start+batchSize, len(fixtures))
		group := fixtures[start:end]

		if svc != nil {
			if _, err := svc.Restart(ctx, indexerHealthAttempts); err != nil {
				return fmt.Errorf("restarting indexer before group: %w", err)
			}
		}
		r.logger.Info("running agent group", "from", start, "to", end, "total", len(fixtures))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchSize)
		for _, fx := range group {
			g.Go(func() error {
				data, err := r.Run(gctx, fx)
				if err != nil {
					r.logger.Error("agent run failed", "instance", fx.InstanceID, "error", err)
					return nil
				}
				logMu.Lock()
				defer logMu.Unlock()
				if err := session.AppendJSONL(sessionLogPath, data); err != nil {
					return err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
