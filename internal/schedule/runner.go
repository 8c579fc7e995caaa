package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/stock-alert/pkg/clock"
	"go.uber.org/zap"
)

// Runner drives a Task on a fixed interval. Ticks run one at a time on the
// calling goroutine, so a slow tick delays the next one instead of
// overlapping it. The wait for the next tick starts after the previous tick
// returns.
type Runner struct {
	task     Task
	interval time.Duration
	clock    clock.Clock
	logger   *zap.Logger
}

type RunnerOption func(r *Runner)

func WithRunnerClock(c clock.Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = c
	}
}

func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func NewRunner(task Task, interval time.Duration, opts ...RunnerOption) *Runner {
	r := &Runner{
		task:     task,
		interval: interval,
		clock:    clock.Real(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs the first tick immediately and keeps ticking until ctx is done.
// Cancellation takes effect between ticks: a started tick runs to completion.
// A failed or panicking tick is logged and does not stop the loop.
func (r *Runner) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("schedule %s: interval must be positive, got %s", r.task.Name(), r.interval)
	}

	r.logger.Info("schedule started", zap.String("task", r.task.Name()), zap.Duration("interval", r.interval))
	for ctx.Err() == nil {
		r.tick(context.WithoutCancel(ctx))

		select {
		case <-ctx.Done():
		case <-r.clock.After(r.interval):
		}
	}
	r.logger.Info("schedule stopped", zap.String("task", r.task.Name()))
	return nil
}

func (r *Runner) tick(ctx context.Context) {
	start := r.clock.Now()
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("task panicked",
				zap.String("task", r.task.Name()),
				zap.Any("panic", v),
				zap.Stack("stack"),
			)
		}
	}()

	if err := r.task.Run(ctx); err != nil {
		r.logger.Error("task failed",
			zap.String("task", r.task.Name()),
			zap.Duration("elapsed", r.clock.Now().Sub(start)),
			zap.Error(err),
		)
		return
	}
	r.logger.Debug("task done",
		zap.String("task", r.task.Name()),
		zap.Duration("elapsed", r.clock.Now().Sub(start)),
	)
}
