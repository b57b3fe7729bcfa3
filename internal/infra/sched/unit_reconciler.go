package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain/ports/repository"
)

// UnitReconciler periodically requeues work a crashed worker left in
// 'running': first the stuck units, then their batches, so the queued-batch
// poller claims the batch again and replays only the non-terminal units.
type UnitReconciler struct {
	interval   time.Duration
	staleAfter time.Duration
	units      repository.MigrationUnitRepository
	batches    repository.BatchRepository
	log        *zerolog.Logger
}

func NewUnitReconciler(
	interval, staleAfter time.Duration,
	units repository.MigrationUnitRepository,
	batches repository.BatchRepository,
	logger *zerolog.Logger,
) *UnitReconciler {
	recLog := logger.With().Str("component", "UnitReconciler").Logger()
	return &UnitReconciler{
		interval:   interval,
		staleAfter: staleAfter,
		units:      units,
		batches:    batches,
		log:        &recLog,
	}
}

func (w *UnitReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting unit reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping unit reconciler")
			return ctx.Err()
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

func (w *UnitReconciler) reconcile(ctx context.Context) {
	units, err := w.units.RequeueStuck(ctx, w.staleAfter)
	if err != nil {
		w.log.Error().Err(err).Msg("unit requeue error")
	}
	batches, err := w.batches.RequeueStuck(ctx, w.staleAfter)
	if err != nil {
		w.log.Error().Err(err).Msg("batch requeue error")
	}
	if units > 0 || batches > 0 {
		w.log.Info().Int("units", units).Int("batches", batches).Msg("stuck work requeued")
	}
}
