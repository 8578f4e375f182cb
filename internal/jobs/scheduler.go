package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic background jobs. A job that is still running when
// its next turn comes is skipped, and a panicking job is logged and recovered.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler() *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelInfo))
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Register(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, s.wrap(name, fn))
	if err != nil {
		slog.Error("invalid job schedule", "job", name, "spec", spec, "error", err)
	}
	return err
}

func (s *Scheduler) wrap(name string, fn func(ctx context.Context) error) func() {
	return func() {
		start := time.Now()
		if err := fn(s.ctx); err != nil {
			slog.Error("job failed", "job", name, "error", err, "duration", time.Since(start))
			return
		}
		slog.Debug("job finished", "job", name, "duration", time.Since(start))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("jobs still running at shutdown")
	}
}
