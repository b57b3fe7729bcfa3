package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/repository"
)

var _ repository.ProgressLog = (*progressLogRepo)(nil)

// progressLogRepo is append-only; events are never updated or deleted.
type progressLogRepo struct {
	pool *pgxpool.Pool
}

func NewProgressLogRepo(pool *pgxpool.Pool) *progressLogRepo {
	return &progressLogRepo{pool: pool}
}

func (r *progressLogRepo) Append(ctx context.Context, tx repository.Tx, ev model.ProgressEvent) error {
	const q = `
INSERT INTO progress_events (event_id, batch_id, unit_id, status, attempt, message, at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (event_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q,
		ev.EventID, ev.BatchID, ev.UnitID, string(ev.Status), ev.Attempt, ev.Message, ev.At)
	return err
}

func (r *progressLogRepo) ListByBatch(ctx context.Context, tx repository.Tx, batchID string) ([]model.ProgressEvent, error) {
	// ULIDs sort lexicographically in emission order.
	const q = `
SELECT event_id, batch_id, unit_id, status, attempt, message, at
FROM progress_events
WHERE batch_id = $1
ORDER BY event_id;`

	rows, err := querySQL(ctx, r.pool, tx, q, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ProgressEvent
	for rows.Next() {
		var ev model.ProgressEvent
		var statusStr string
		if err := rows.Scan(&ev.EventID, &ev.BatchID, &ev.UnitID, &statusStr, &ev.Attempt, &ev.Message, &ev.At); err != nil {
			return nil, err
		}
		ev.Status = model.UnitStatus(statusStr)
		events = append(events, ev)
	}
	return events, rows.Err()
}
