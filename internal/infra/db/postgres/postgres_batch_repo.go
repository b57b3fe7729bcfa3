package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-migrator/internal/domain"
	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/repository"
)

var _ repository.BatchRepository = (*batchRepo)(nil)

type batchRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewBatchRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *batchRepo {
	return &batchRepo{pool: pool, tm: tm}
}

const batchColumns = `
id, account_key, mode, status, total, succeeded, failed, last_error,
created_at, updated_at, finished_at`

func (r *batchRepo) Save(ctx context.Context, tx repository.Tx, batch *model.MigrationBatch) error {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now()
	}
	batch.UpdatedAt = time.Now()

	const q = `
INSERT INTO migration_batches (` + batchColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  succeeded = EXCLUDED.succeeded,
  failed = EXCLUDED.failed,
  last_error = EXCLUDED.last_error,
  updated_at = EXCLUDED.updated_at,
  finished_at = EXCLUDED.finished_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		batch.ID, batch.AccountKey, string(batch.Mode), string(batch.Status),
		batch.Total, batch.Succeeded, batch.Failed, batch.LastError,
		batch.CreatedAt, batch.UpdatedAt, batch.FinishedAt)
	return err
}

func (r *batchRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MigrationBatch, error) {
	const q = `SELECT ` + batchColumns + ` FROM migration_batches WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanBatch(row)
}

// FetchAndMarkRunning claims the oldest queued batch inside one transaction.
// SKIP LOCKED keeps concurrent workers off each other's rows.
func (r *batchRepo) FetchAndMarkRunning(ctx context.Context) (*model.MigrationBatch, error) {
	var batch *model.MigrationBatch

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + batchColumns + `
FROM migration_batches
WHERE status = 'queued'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}
		fetched, err := scanBatch(row)
		if err != nil {
			return err
		}

		fetched.Status = model.BatchStatusRunning
		if err := r.Save(ctx, tx, fetched); err != nil {
			return err
		}
		batch = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// RequeueStuck returns crashed workers' batches to the queue. The unit
// reconciler requeues their stuck units in the same pass, so the poller
// replays only what never reached a terminal state.
func (r *batchRepo) RequeueStuck(ctx context.Context, staleAfter time.Duration) (int, error) {
	const q = `
UPDATE migration_batches
SET status = 'queued', updated_at = now()
WHERE status = 'running' AND updated_at < $1;`

	tag, err := execSQL(ctx, r.pool, nil, q, time.Now().Add(-staleAfter))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanBatch(row pgx.Row) (*model.MigrationBatch, error) {
	var b model.MigrationBatch
	var modeStr, statusStr string
	err := row.Scan(
		&b.ID, &b.AccountKey, &modeStr, &statusStr,
		&b.Total, &b.Succeeded, &b.Failed, &b.LastError,
		&b.CreatedAt, &b.UpdatedAt, &b.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	b.Mode = model.BatchMode(modeStr)
	b.Status = model.BatchStatus(statusStr)
	return &b, nil
}
