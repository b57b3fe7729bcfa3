package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionSweep is implemented by the redis session sweeper.
type SessionSweep interface {
	SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
}

// SessionSweeper drops session tokens past their useful age on a timer.
type SessionSweeper struct {
	interval time.Duration
	maxAge   time.Duration
	sweep    SessionSweep
	log      *zerolog.Logger
}

func NewSessionSweeper(interval, maxAge time.Duration, sweep SessionSweep, logger *zerolog.Logger) *SessionSweeper {
	swpLog := logger.With().Str("component", "SessionSweeper").Logger()
	return &SessionSweeper{
		interval: interval,
		maxAge:   maxAge,
		sweep:    sweep,
		log:      &swpLog,
	}
}

func (w *SessionSweeper) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting session sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session sweeper")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.sweep.SweepOlderThan(ctx, w.maxAge)
			if err != nil {
				w.log.Error().Err(err).Msg("session sweep error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("stale session tokens removed")
			}
		}
	}
}
