package web

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain"
	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return &l
}

// --- Mock Repositories (Ports) ---

type mockBatchRepo struct {
	mu        sync.Mutex
	batches   map[string]*model.MigrationBatch
	SaveError error
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{batches: map[string]*model.MigrationBatch{}}
}

func (m *mockBatchRepo) Save(_ context.Context, _ repository.Tx, b *model.MigrationBatch) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.batches[b.ID] = &cp
	return nil
}

func (m *mockBatchRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.MigrationBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *mockBatchRepo) FetchAndMarkRunning(_ context.Context) (*model.MigrationBatch, error) {
	return nil, domain.ErrNotFound
}

func (m *mockBatchRepo) RequeueStuck(_ context.Context, _ time.Duration) (int, error) {
	return 0, nil
}

type mockUnitRepo struct {
	mu    sync.Mutex
	units []*model.MigrationUnit
}

func (m *mockUnitRepo) Save(_ context.Context, _ repository.Tx, u *model.MigrationUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.units = append(m.units, &cp)
	return nil
}

func (m *mockUnitRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.MigrationUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.units {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUnitRepo) ListByBatch(_ context.Context, _ repository.Tx, batchID string) ([]*model.MigrationUnit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MigrationUnit
	for _, u := range m.units {
		if u.BatchID == batchID {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockUnitRepo) RequeueStuck(_ context.Context, _ time.Duration) (int, error) { return 0, nil }

type mockProgressLog struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (m *mockProgressLog) Append(_ context.Context, _ repository.Tx, ev model.ProgressEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockProgressLog) ListByBatch(_ context.Context, _ repository.Tx, batchID string) ([]model.ProgressEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ProgressEvent
	for _, ev := range m.events {
		if ev.BatchID == batchID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type mockCatalog struct {
	products []model.Product
	err      error
}

func (m *mockCatalog) ListProducts(_ context.Context) ([]model.Product, error) {
	return m.products, m.err
}
