package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"marketplace-migrator/internal/config"
	"marketplace-migrator/internal/domain"
	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
	"marketplace-migrator/internal/domain/ports/repository"
	"marketplace-migrator/internal/infra/metrics"
	"marketplace-migrator/internal/usecase"
)

// CredentialResolver maps a batch's account key to its login credentials.
type CredentialResolver func(accountKey string) (usecase.Credentials, error)

// ConfigCredentials resolves accounts from the static config file.
func ConfigCredentials(accounts []config.AccountConfig) CredentialResolver {
	byKey := make(map[string]config.AccountConfig, len(accounts))
	for _, a := range accounts {
		byKey[a.Key] = a
	}
	return func(accountKey string) (usecase.Credentials, error) {
		a, ok := byKey[accountKey]
		if !ok {
			return usecase.Credentials{}, fmt.Errorf("no configured account %q", accountKey)
		}
		return usecase.Credentials{AccountKey: a.Key, Email: a.Email, Password: a.Password}, nil
	}
}

// BatchProcessor polls for queued batches and runs them to completion,
// persisting unit state and progress events as they happen. Several
// processors may run at once; batch claiming is serialized in the database.
type BatchProcessor struct {
	batches  repository.BatchRepository
	units    repository.MigrationUnitRepository
	progress repository.ProgressLog
	browser  *usecase.MigrationOrchestrator
	webhook  *usecase.MigrationOrchestrator
	creds    CredentialResolver
	notifier adapter.Notifier // optional
	log      *zerolog.Logger
}

func NewBatchProcessor(
	batches repository.BatchRepository,
	units repository.MigrationUnitRepository,
	progress repository.ProgressLog,
	browser *usecase.MigrationOrchestrator,
	webhook *usecase.MigrationOrchestrator,
	creds CredentialResolver,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *BatchProcessor {
	l := logger.With().Str("component", "BatchProcessor").Logger()
	return &BatchProcessor{
		batches:  batches,
		units:    units,
		progress: progress,
		browser:  browser,
		webhook:  webhook,
		creds:    creds,
		notifier: notifier,
		log:      &l,
	}
}

// Start runs a loop to fetch and process batches.
// This should be run in a goroutine.
func (p *BatchProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Msg("batch processor started")
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("batch processor stopping")
			return
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				p.processOne(ctx)
				return nil
			})
		}
	}
}

func (p *BatchProcessor) processOne(ctx context.Context) {
	batch, err := p.batches.FetchAndMarkRunning(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("failed to claim a batch")
		}
		return
	}
	p.log.Info().Str("batch_id", batch.ID).Str("mode", string(batch.Mode)).Msg("processing batch")

	start := time.Now()
	summary, runErr := p.runBatch(ctx, batch)
	metrics.ObserveBatchDuration(time.Since(start).Seconds())

	// Final update runs on a background context so a cancelled run still
	// leaves consistent rows behind.
	finCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if runErr != nil {
		batch.Status = model.BatchStatusFailed
		batch.LastError = runErr.Error()
		p.log.Error().Err(runErr).Str("batch_id", batch.ID).Msg("batch failed")
	} else {
		batch.Status = model.BatchStatusCompleted
		batch.Succeeded = summary.Succeeded
		batch.Failed = summary.Failed
	}
	now := time.Now()
	batch.FinishedAt = &now
	if err := p.batches.Save(finCtx, nil, batch); err != nil {
		p.log.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to persist final batch state")
	}
	metrics.IncBatch(string(batch.Status))

	if p.notifier != nil && summary != nil {
		if err := p.notifier.NotifyBatchDone(finCtx, batch, summary); err != nil {
			p.log.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to notify batch completion")
		}
	}
	p.log.Info().Str("batch_id", batch.ID).Str("status", string(batch.Status)).Msg("batch finished")
}

func (p *BatchProcessor) runBatch(ctx context.Context, batch *model.MigrationBatch) (*model.BatchSummary, error) {
	all, err := p.units.ListByBatch(ctx, nil, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	var queued []*model.MigrationUnit
	byID := make(map[string]*model.MigrationUnit, len(all))
	prevSucceeded, prevFailed := 0, 0
	for _, u := range all {
		byID[u.ID] = u
		switch u.Status {
		case model.UnitStatusQueued:
			queued = append(queued, u)
		case model.UnitStatusSucceeded:
			prevSucceeded++
		case model.UnitStatusFailed:
			prevFailed++
		}
	}
	// A requeued batch may come back with every unit already terminal, or
	// with a partial run behind it. Earlier outcomes stay in the totals.
	if len(queued) == 0 {
		if prevSucceeded+prevFailed == 0 {
			return nil, domain.ErrEmptyBatch
		}
		return &model.BatchSummary{BatchID: batch.ID, Succeeded: prevSucceeded, Failed: prevFailed}, nil
	}

	creds, err := p.creds(batch.AccountKey)
	if err != nil {
		return nil, err
	}

	sink := model.ProgressSinkFunc(func(ev model.ProgressEvent) {
		evCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if u, ok := byID[ev.UnitID]; ok && ev.Status != model.UnitStatusQueued {
			if err := p.units.Save(evCtx, nil, u); err != nil {
				p.log.Error().Err(err).Str("unit_id", ev.UnitID).Msg("failed to persist unit state")
			}
		}
		if ev.Status == model.UnitStatusSucceeded || ev.Status == model.UnitStatusFailed {
			metrics.IncUnit(string(ev.Status))
		}
		if err := p.progress.Append(evCtx, nil, ev); err != nil {
			p.log.Error().Err(err).Str("event_id", ev.EventID).Msg("failed to append progress event")
		}
	})

	orch := p.browser
	if batch.Mode == model.BatchModeWebhook {
		orch = p.webhook
	}
	summary, err := orch.MigrateUnits(ctx, batch.ID, queued, creds, sink)
	if err != nil {
		return nil, err
	}
	summary.Succeeded += prevSucceeded
	summary.Failed += prevFailed
	return summary, nil
}
