// ABOUTME: Cron runner for periodic pipeline maintenance
// ABOUTME: Schedules the deal aging refresh for long-running commands
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/dealdesk/pipeline"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

// New returns a runner for standard five-field cron specs. Jobs receive
// baseCtx, so cancelling it signals running jobs to stop.
func New(baseCtx context.Context, logger *zap.Logger) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(name, spec string, job func(context.Context)) (cron.EntryID, error) {
	id, err := r.cron.AddFunc(spec, func() {
		start := time.Now()
		job(r.baseCtx)
		r.logger.Debug("cron job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	return id, nil
}

// Next returns the next run time of entry id, or the zero time if unknown.
func (r *Runner) Next(id cron.EntryID) time.Time {
	return r.cron.Entry(id).Next
}

func (r *Runner) Start() {
	r.logger.Info("cron started", zap.Int("jobs", len(r.cron.Entries())))
	r.cron.Start()
}

// Stop waits for running jobs to complete.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("cron stopped")
}

// AgingJob returns a job that refreshes days-in-stage for every deal.
func AgingJob(store *pipeline.Store, now func() time.Time, logger *zap.Logger) func(context.Context) {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) {
		if ctx.Err() != nil {
			return
		}
		changed := store.RefreshAging(now())
		logger.Info("deal aging refreshed", zap.Int("changed", changed))
	}
}
