package repository

import (
	"context"
	"time"

	"marketplace-migrator/internal/domain/model"
)

type MigrationUnitRepository interface {
	Save(ctx context.Context, tx Tx, unit *model.MigrationUnit) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MigrationUnit, error)
	ListByBatch(ctx context.Context, tx Tx, batchID string) ([]*model.MigrationUnit, error)
	// RequeueStuck flips units left 'running' longer than staleAfter back to
	// 'queued'. Crash recovery; returns the number of requeued units.
	RequeueStuck(ctx context.Context, staleAfter time.Duration) (int, error)
}

type BatchRepository interface {
	Save(ctx context.Context, tx Tx, batch *model.MigrationBatch) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.MigrationBatch, error)
	// FetchAndMarkRunning atomically claims the oldest queued batch so that
	// concurrent workers never pick up the same one.
	FetchAndMarkRunning(ctx context.Context) (*model.MigrationBatch, error)
	// RequeueStuck flips batches left 'running' longer than staleAfter back
	// to 'queued' so the poller reclaims them after a worker crash.
	RequeueStuck(ctx context.Context, staleAfter time.Duration) (int, error)
}

// ProgressLog records emitted events so the control API can replay them.
type ProgressLog interface {
	Append(ctx context.Context, tx Tx, ev model.ProgressEvent) error
	ListByBatch(ctx context.Context, tx Tx, batchID string) ([]model.ProgressEvent, error)
}
