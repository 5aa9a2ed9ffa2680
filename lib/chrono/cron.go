package chrono

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs jobs on cron specs (including the "@every <duration>"
// form). A job never overlaps with a previous run of itself.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

// NewScheduler starts a scheduler whose jobs receive ctx, it stops
// scheduling new runs once ctx is done.
func NewScheduler(ctx context.Context, location *time.Location) Scheduler {
	if location == nil {
		location = time.Local
	}
	logger := cronLogger{}
	cronner := cron.New(
		cron.WithLogger(logger),
		cron.WithLocation(location),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)
	cronner.Start()

	go func() {
		<-ctx.Done()
		cronner.Stop()
	}()

	return Scheduler{
		cron: cronner,
		ctx:  ctx,
	}
}

func (s Scheduler) Schedule(name, spec string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		err := job(s.ctx)
		if err != nil {
			slog.Error("scheduled job failed", "job", name, "err", err)
			return
		}
		slog.Debug("scheduled job finished", "job", name, "took", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

// Stop waits for running jobs to finish.
func (s Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type cronLogger struct{}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i < len(keysAndValues)/2; i++ {
		idx := i * 2
		params = append(params, fmt.Sprint(keysAndValues[idx]), keysAndValues[idx+1])
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), l.formatParams(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(
		fmt.Sprintf("cron: %s", msg),
		append(l.formatParams(keysAndValues), "err", err)...,
	)
}
