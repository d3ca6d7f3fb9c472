package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const fineSweepTimeout = 4 * time.Minute

type fineSweeper interface {
	SweepOverdueFines(ctx context.Context) (int64, error)
}

// FineWorker writes the running fine onto overdue, unreturned issues on a
// cron schedule so that reports read a current amount without recomputing.
type FineWorker struct {
	sweeper  fineSweeper
	schedule string
	log      zerolog.Logger
}

func NewFineWorker(sweeper fineSweeper, schedule string, log zerolog.Logger) *FineWorker {
	return &FineWorker{
		sweeper:  sweeper,
		schedule: schedule,
		log:      log.With().Str("component", "fine_worker").Logger(),
	}
}

// Start schedules the sweep and blocks until ctx is cancelled, then waits for
// a running sweep to finish.
func (w *FineWorker) Start(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(&w.log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(&w.log)),
	))

	if _, err := c.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule fine sweep %q: %w", w.schedule, err)
	}

	w.log.Info().Str("schedule", w.schedule).Msg("FineWorker started")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	w.log.Info().Msg("FineWorker stopped")
	return nil
}

// RunOnce performs a single sweep.
func (w *FineWorker) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	sweepCtx, cancel := context.WithTimeout(ctx, fineSweepTimeout)
	defer cancel()

	start := time.Now()
	updated, err := w.sweeper.SweepOverdueFines(sweepCtx)
	if err != nil {
		w.log.Error().Err(err).Msg("Overdue fine sweep failed")
		return
	}
	w.log.Info().Int64("updated", updated).Dur("took", time.Since(start)).Msg("Overdue fine sweep done")
}
