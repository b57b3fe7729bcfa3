//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"marketplace-migrator/internal/domain/model"
)

func TestProgressLogRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewProgressLogRepo(testPool)

	t.Run("should append and replay events in event id order", func(t *testing.T) {
		cleanup(t)

		batchID := uuid.NewString()
		unitID := uuid.NewString()
		// ULIDs sort lexicographically; fake that with zero-padded suffixes.
		for i, status := range []model.UnitStatus{model.UnitStatusQueued, model.UnitStatusRunning, model.UnitStatusSucceeded} {
			ev := model.ProgressEvent{
				EventID: fmt.Sprintf("01J0000000000000000000%04d", i),
				BatchID: batchID,
				UnitID:  unitID,
				Status:  status,
				Attempt: 1,
				At:      time.Now(),
			}
			if err := repo.Append(ctx, nil, ev); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}

		events, err := repo.ListByBatch(ctx, nil, batchID)
		if err != nil {
			t.Fatalf("ListByBatch failed: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("got %d events, want 3", len(events))
		}
		want := []model.UnitStatus{model.UnitStatusQueued, model.UnitStatusRunning, model.UnitStatusSucceeded}
		for i := range want {
			if events[i].Status != want[i] {
				t.Errorf("events[%d].Status = %s, want %s", i, events[i].Status, want[i])
			}
		}
	})

	t.Run("duplicate event ids are ignored", func(t *testing.T) {
		cleanup(t)

		ev := model.ProgressEvent{
			EventID: "01J00000000000000000000001",
			BatchID: uuid.NewString(),
			UnitID:  uuid.NewString(),
			Status:  model.UnitStatusQueued,
			Attempt: 1,
			At:      time.Now(),
		}
		if err := repo.Append(ctx, nil, ev); err != nil {
			t.Fatalf("first Append failed: %v", err)
		}
		if err := repo.Append(ctx, nil, ev); err != nil {
			t.Fatalf("second Append failed: %v", err)
		}

		events, err := repo.ListByBatch(ctx, nil, ev.BatchID)
		if err != nil {
			t.Fatalf("ListByBatch failed: %v", err)
		}
		if len(events) != 1 {
			t.Errorf("got %d events, want 1", len(events))
		}
	})
}
