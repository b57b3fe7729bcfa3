package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain"
	"marketplace-migrator/internal/domain/model"
)

// AttemptRunner is one full upload attempt for a unit. StepRunner implements
// it for browser mode, WebhookRunner for webhook mode.
type AttemptRunner interface {
	RunAttempt(ctx context.Context, unit *model.MigrationUnit, creds Credentials) model.StepOutcome
}

// OrchestratorOptions bound the batch run.
type OrchestratorOptions struct {
	Concurrency  int           // units in flight per window, default 3
	BatchDelay   time.Duration // pause between windows, default 1s
	UnitDeadline time.Duration // 0 = only per-step timeouts bound a unit
	Policy       RetryPolicy
}

func (o OrchestratorOptions) normalized() OrchestratorOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = time.Second
	}
	return o
}

// MigrationOrchestrator fans a batch of products out over bounded
// concurrency, drives every unit through the retry coordinator, and reports
// progress to the caller's sink. Unit failures are results, not errors; only
// setup-level problems surface as an error.
type MigrationOrchestrator struct {
	runner AttemptRunner
	retry  *RetryCoordinator
	opts   OrchestratorOptions
	log    *zerolog.Logger

	mu      sync.Mutex // guards sink emission and the ULID entropy
	entropy *ulid.MonotonicEntropy
}

func NewMigrationOrchestrator(runner AttemptRunner, retry *RetryCoordinator, opts OrchestratorOptions, logger *zerolog.Logger) *MigrationOrchestrator {
	l := logger.With().Str("component", "MigrationOrchestrator").Logger()
	return &MigrationOrchestrator{
		runner:  runner,
		retry:   retry,
		opts:    opts.normalized(),
		log:     &l,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// MigrateBatch runs every product to a terminal status and returns the
// aggregate summary. A queued event is emitted for every unit, in input
// order, before any processing begins; each unit then gets running and
// exactly one terminal event.
func (o *MigrationOrchestrator) MigrateBatch(ctx context.Context, batchID string, products []model.Product, creds Credentials, sink model.ProgressSink) (*model.BatchSummary, error) {
	if len(products) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if creds.AccountKey == "" {
		return nil, fmt.Errorf("%w: credentials need an account key", domain.ErrInvalidArgument)
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}

	units := make([]*model.MigrationUnit, len(products))
	now := time.Now()
	for i, p := range products {
		units[i] = &model.MigrationUnit{
			ID:        uuid.NewString(),
			BatchID:   batchID,
			Product:   p,
			Status:    model.UnitStatusQueued,
			CreatedAt: now,
		}
	}
	return o.MigrateUnits(ctx, batchID, units, creds, sink)
}

// MigrateUnits is the same run over units built elsewhere, e.g. rows the
// background worker reloaded from the database.
func (o *MigrationOrchestrator) MigrateUnits(ctx context.Context, batchID string, units []*model.MigrationUnit, creds Credentials, sink model.ProgressSink) (*model.BatchSummary, error) {
	if len(units) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if creds.AccountKey == "" {
		return nil, fmt.Errorf("%w: credentials need an account key", domain.ErrInvalidArgument)
	}
	start := time.Now()

	for _, u := range units {
		o.emit(sink, u, model.UnitStatusQueued, 0, "")
	}

	results := make([]model.UnitResult, len(units))
	for lo := 0; lo < len(units); lo += o.opts.Concurrency {
		hi := lo + o.opts.Concurrency
		if hi > len(units) {
			hi = len(units)
		}
		var wg sync.WaitGroup
		for i := lo; i < hi; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = o.runUnit(ctx, units[idx], creds, sink)
			}(i)
		}
		wg.Wait()
		if hi < len(units) {
			if err := sleepCtx(ctx, o.opts.BatchDelay); err != nil {
				o.log.Warn().Str("batch_id", batchID).Msg("cancelled between windows, failing remaining units")
			}
		}
	}

	summary := &model.BatchSummary{BatchID: batchID, Results: results}
	for _, res := range results {
		if res.Status == model.UnitStatusSucceeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	o.log.Info().Str("batch_id", batchID).Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).Dur("duration", time.Since(start)).Msg("batch finished")
	return summary, nil
}

func (o *MigrationOrchestrator) runUnit(ctx context.Context, unit *model.MigrationUnit, creds Credentials, sink model.ProgressSink) model.UnitResult {
	unit.Status = model.UnitStatusRunning
	o.emit(sink, unit, model.UnitStatusRunning, 1, "")

	runCtx := ctx
	cancel := func() {}
	if o.opts.UnitDeadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.opts.UnitDeadline)
	}
	defer cancel()

	var out model.StepOutcome
	if err := unit.Product.Validate(); err != nil {
		// Validation rejection is terminal for the unit, not for the batch.
		unit.Attempts = 1
		out = model.Terminal(model.StepFillFields, "product failed validation")
	} else {
		out = o.retry.Run(runCtx, unit, func(c context.Context, attempt int) model.StepOutcome {
			return o.runner.RunAttempt(c, unit, creds)
		}, o.opts.Policy)
	}

	status := model.UnitStatusFailed
	reason := reasonFor(out, unit.Attempts)
	if out.Class == model.OutcomeOK {
		status = model.UnitStatusSucceeded
		reason = ""
	} else if runCtx.Err() == context.DeadlineExceeded {
		reason = domain.ErrUnitDeadline.Error()
	}
	unit.Status = status
	unit.LastError = reason
	unit.UpdatedAt = time.Now()
	o.emit(sink, unit, status, unit.Attempts, reason)

	return model.UnitResult{
		UnitID:   unit.ID,
		SourceID: unit.Product.SourceID,
		Title:    unit.Product.Title,
		Status:   status,
		Attempts: unit.Attempts,
		Reason:   reason,
	}
}

// emit serializes sink calls and hands out monotonic event ids.
func (o *MigrationOrchestrator) emit(sink model.ProgressSink, unit *model.MigrationUnit, status model.UnitStatus, attempt int, message string) {
	if sink == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	id := ulid.MustNew(ulid.Timestamp(now), o.entropy)
	sink.Emit(model.ProgressEvent{
		EventID: id.String(),
		BatchID: unit.BatchID,
		UnitID:  unit.ID,
		Status:  status,
		Attempt: attempt,
		Message: message,
		At:      now,
	})
}

// reasonFor turns a failing outcome into the short human-readable reason the
// summary carries. Raw driver errors never reach the caller.
func reasonFor(out model.StepOutcome, attempts int) string {
	if out.Class == model.OutcomeTerminal {
		return out.Detail
	}
	detail := out.Detail
	if detail == "" {
		detail = "step kept failing"
	}
	return fmt.Sprintf("gave up after %d attempts: %s", attempts, detail)
}
