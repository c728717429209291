// Package scheduler runs the dispatcher and the daily jobs on fixed tickers.
// Each job is single-flight inside the process: a tick that fires while the
// previous run is still executing is skipped, not queued. Cross-process
// correctness comes from the database-level conditional writes, not from
// these guards.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marcelomar21/bets-estatistica/internal/config"
	"github.com/marcelomar21/bets-estatistica/internal/jobs/graceperiod"
	"github.com/marcelomar21/bets-estatistica/internal/jobs/reconciliation"
	"github.com/marcelomar21/bets-estatistica/internal/observability/metrics"
	"github.com/marcelomar21/bets-estatistica/internal/webhook/dispatcher"
	"go.uber.org/zap"
)

type job struct {
	name     string
	interval time.Duration
	run      func(context.Context) error
	running  atomic.Bool
}

type Scheduler struct {
	jobs    []*job
	metrics *metrics.Metrics
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(
	d *dispatcher.Dispatcher,
	grace *graceperiod.Processor,
	reconcile *reconciliation.Sweep,
	m *metrics.Metrics,
	cfg config.Config,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		jobs: []*job{
			{name: "webhook_dispatch", interval: cfg.DispatchInterval, run: d.RunOnce},
			{name: "grace_period", interval: cfg.GraceSweepInterval, run: grace.RunOnce},
			{name: "reconciliation", interval: cfg.ReconcileInterval, run: reconcile.RunOnce},
		},
		metrics: m,
		logger:  logger.Named("scheduler"),
	}
}

// Start launches one goroutine per job. Each job also runs once immediately
// so a daily job is not postponed by a restart.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.runGuarded(ctx, j)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runGuarded(ctx, j)
		}
	}
}

// runGuarded is the single-flight guard: the CAS loses when the previous run
// of the same job has not finished yet.
func (s *Scheduler) runGuarded(ctx context.Context, j *job) {
	if !j.running.CompareAndSwap(false, true) {
		s.metrics.IncJobSkip(j.name)
		s.logger.Warn("scheduler.tick_skipped", zap.String("job", j.name))
		return
	}
	defer j.running.Store(false)

	s.metrics.IncJobRun(j.name)
	started := time.Now()
	if err := j.run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.metrics.IncJobError(j.name)
		s.logger.Error("scheduler.job_failed",
			zap.String("job", j.name),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("scheduler.job_done",
		zap.String("job", j.name),
		zap.Duration("elapsed", time.Since(started)),
	)
}
