package adapter

import (
	"context"

	"marketplace-migrator/internal/domain/model"
)

// Notifier pushes a human-readable completion note to the operator once a
// batch reaches a terminal state. Optional; a nil notifier is skipped.
type Notifier interface {
	NotifyBatchDone(ctx context.Context, batch *model.MigrationBatch, summary *model.BatchSummary) error
}
