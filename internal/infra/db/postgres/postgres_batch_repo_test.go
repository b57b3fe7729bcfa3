//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"marketplace-migrator/internal/domain"
	"marketplace-migrator/internal/domain/model"
)

func TestBatchRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	tm := NewTxManager(testPool)
	repo := NewBatchRepo(testPool, tm)

	newBatch := func(status model.BatchStatus, createdAt time.Time) *model.MigrationBatch {
		return &model.MigrationBatch{
			ID:         uuid.NewString(),
			AccountKey: "seller@shop.test",
			Mode:       model.BatchModeBrowser,
			Status:     status,
			Total:      3,
			CreatedAt:  createdAt,
		}
	}

	t.Run("should save and update a batch", func(t *testing.T) {
		cleanup(t)

		batch := newBatch(model.BatchStatusQueued, time.Now())
		if err := repo.Save(ctx, nil, batch); err != nil {
			t.Fatalf("failed to save new batch: %v", err)
		}

		batch.Status = model.BatchStatusCompleted
		batch.Succeeded = 2
		batch.Failed = 1
		now := time.Now()
		batch.FinishedAt = &now
		if err := repo.Save(ctx, nil, batch); err != nil {
			t.Fatalf("failed to update batch: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, batch.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if got.Status != model.BatchStatusCompleted || got.Succeeded != 2 || got.Failed != 1 {
			t.Errorf("got %+v", got)
		}
		if got.FinishedAt == nil {
			t.Error("finished_at not persisted")
		}
	})

	t.Run("should fetch and mark the oldest queued batch, skipping locked ones", func(t *testing.T) {
		cleanup(t)

		b1 := newBatch(model.BatchStatusQueued, time.Now().Add(-time.Second))
		b2 := newBatch(model.BatchStatusQueued, time.Now())
		repo.Save(ctx, nil, b1)
		repo.Save(ctx, nil, b2)

		// Simulate a concurrent worker holding b1.
		tx, err := testPool.Begin(ctx)
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}
		defer tx.Rollback(ctx)
		var lockedID string
		if err := tx.QueryRow(ctx, "SELECT id FROM migration_batches WHERE id = $1 FOR UPDATE", b1.ID).Scan(&lockedID); err != nil {
			t.Fatalf("failed to lock b1: %v", err)
		}

		fetched, err := repo.FetchAndMarkRunning(ctx)
		if err != nil {
			t.Fatalf("FetchAndMarkRunning failed: %v", err)
		}
		if fetched.ID != b2.ID {
			t.Errorf("expected b2, got %s", fetched.ID)
		}
		if fetched.Status != model.BatchStatusRunning {
			t.Errorf("status = %s, want running", fetched.Status)
		}

		if err := tx.Commit(ctx); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}

		fetched, err = repo.FetchAndMarkRunning(ctx)
		if err != nil || fetched.ID != b1.ID {
			t.Fatal("failed to fetch b1 on the second call")
		}

		if _, err = repo.FetchAndMarkRunning(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound with no queued batches, got %v", err)
		}
	})

	t.Run("should requeue a crashed worker's batch so the poller reclaims it", func(t *testing.T) {
		cleanup(t)

		stale := newBatch(model.BatchStatusRunning, time.Now().Add(-time.Hour))
		fresh := newBatch(model.BatchStatusRunning, time.Now())
		repo.Save(ctx, nil, stale)
		repo.Save(ctx, nil, fresh)
		// Save stamps updated_at with now; age the crashed batch directly.
		if _, err := testPool.Exec(ctx,
			"UPDATE migration_batches SET updated_at = now() - interval '1 hour' WHERE id = $1", stale.ID); err != nil {
			t.Fatalf("failed to age batch: %v", err)
		}

		n, err := repo.RequeueStuck(ctx, 30*time.Minute)
		if err != nil {
			t.Fatalf("RequeueStuck failed: %v", err)
		}
		if n != 1 {
			t.Fatalf("requeued %d batches, want 1", n)
		}

		fetched, err := repo.FetchAndMarkRunning(ctx)
		if err != nil {
			t.Fatalf("FetchAndMarkRunning failed: %v", err)
		}
		if fetched.ID != stale.ID {
			t.Errorf("reclaimed %s, want the requeued batch %s", fetched.ID, stale.ID)
		}

		untouched, err := repo.FindByID(ctx, nil, fresh.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if untouched.Status != model.BatchStatusRunning {
			t.Errorf("fresh batch status = %s, want running", untouched.Status)
		}
	})

	t.Run("missing id returns ErrNotFound", func(t *testing.T) {
		cleanup(t)

		_, err := repo.FindByID(ctx, nil, uuid.NewString())
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
