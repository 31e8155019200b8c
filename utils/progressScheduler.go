package utils

import (
	"context"
	"time"

	"lms/logger"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 10 * time.Minute

// Reconciler completes every active enrollment whose lessons are all done.
type Reconciler interface {
	ReconcileActive(ctx context.Context) (int, error)
}

// RunProgressSweep runs one reconciliation pass and logs the outcome.
func RunProgressSweep(ctx context.Context, r Reconciler) int {
	started := time.Now()
	completed, err := r.ReconcileActive(ctx)
	if err != nil {
		logger.Log.Error("[PROGRESS-SCHEDULER] sweep failed", "error", err, "completed", completed)
		return completed
	}
	logger.Log.Info("[PROGRESS-SCHEDULER] sweep finished", "completed", completed, "took", time.Since(started).String())
	return completed
}

// StartProgressSweep registers the sweep on c under spec.
func StartProgressSweep(c *cron.Cron, spec string, r Reconciler) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		RunProgressSweep(ctx, r)
	})
	if err != nil {
		return err
	}
	logger.Log.Info("[PROGRESS-SCHEDULER] sweep scheduled", "spec", spec)
	return nil
}

// InitializeProgressScheduler starts a cron scheduler running the progress sweep.
// The caller stops it on shutdown.
func InitializeProgressScheduler(spec string, r Reconciler) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if err := StartProgressSweep(c, spec, r); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
