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

var _ repository.MigrationUnitRepository = (*migrationUnitRepo)(nil)

type migrationUnitRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewMigrationUnitRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *migrationUnitRepo {
	return &migrationUnitRepo{pool: pool, tm: tm}
}

const unitColumns = `
id, batch_id, source_id, title, description, price, currency,
file_ref, image_ref, permalink, product_type, user_email,
product_created_at, product_updated_at,
status, attempts, last_error, created_at, updated_at`

func (r *migrationUnitRepo) Save(ctx context.Context, tx repository.Tx, unit *model.MigrationUnit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = time.Now()
	}
	unit.UpdatedAt = time.Now()

	const q = `
INSERT INTO migration_units (` + unitColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  attempts = EXCLUDED.attempts,
  last_error = EXCLUDED.last_error,
  updated_at = EXCLUDED.updated_at;`

	p := unit.Product
	_, err := execSQL(ctx, r.pool, tx, q,
		unit.ID, unit.BatchID, p.SourceID, p.Title, p.Description, p.Price, p.Currency,
		p.FileRef, p.ImageRef, p.Permalink, p.Type, p.UserEmail,
		p.CreatedAt, p.UpdatedAt,
		string(unit.Status), unit.Attempts, unit.LastError, unit.CreatedAt, unit.UpdatedAt)
	return err
}

func (r *migrationUnitRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MigrationUnit, error) {
	const q = `SELECT ` + unitColumns + ` FROM migration_units WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanUnit(row)
}

func (r *migrationUnitRepo) ListByBatch(ctx context.Context, tx repository.Tx, batchID string) ([]*model.MigrationUnit, error) {
	const q = `SELECT ` + unitColumns + ` FROM migration_units WHERE batch_id = $1 ORDER BY created_at, id;`
	rows, err := querySQL(ctx, r.pool, tx, q, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []*model.MigrationUnit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *migrationUnitRepo) RequeueStuck(ctx context.Context, staleAfter time.Duration) (int, error) {
	const q = `
UPDATE migration_units
SET status = 'queued', updated_at = now()
WHERE status = 'running' AND updated_at < $1;`

	tag, err := execSQL(ctx, r.pool, nil, q, time.Now().Add(-staleAfter))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanUnit(row pgx.Row) (*model.MigrationUnit, error) {
	var u model.MigrationUnit
	var statusStr string
	err := row.Scan(
		&u.ID, &u.BatchID, &u.Product.SourceID, &u.Product.Title, &u.Product.Description,
		&u.Product.Price, &u.Product.Currency,
		&u.Product.FileRef, &u.Product.ImageRef, &u.Product.Permalink, &u.Product.Type, &u.Product.UserEmail,
		&u.Product.CreatedAt, &u.Product.UpdatedAt,
		&statusStr, &u.Attempts, &u.LastError, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	u.Status = model.UnitStatus(statusStr)
	return &u, nil
}
