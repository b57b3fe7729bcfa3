package browser

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
	"marketplace-migrator/internal/domain/ports/repository"
	"marketplace-migrator/internal/infra/metrics"
	"marketplace-migrator/internal/usecase"
)

// AttemptRunner gives every attempt its own tab in a private browser
// context, so units running in parallel share neither page state nor a
// cookie jar. The tab and its context are discarded when the attempt ends,
// cookies live in the session store, not the browser.
type AttemptRunner struct {
	engine      *Engine
	sessions    repository.SessionStore
	locks       repository.AccountLocker
	site        adapter.SiteProfile
	stepTimeout time.Duration
	settleDelay time.Duration
	log         *zerolog.Logger
}

var _ usecase.AttemptRunner = (*AttemptRunner)(nil)

func NewAttemptRunner(
	engine *Engine,
	sessions repository.SessionStore,
	locks repository.AccountLocker,
	site adapter.SiteProfile,
	stepTimeout, settleDelay time.Duration,
	logger *zerolog.Logger,
) *AttemptRunner {
	return &AttemptRunner{
		engine:      engine,
		sessions:    sessions,
		locks:       locks,
		site:        site,
		stepTimeout: stepTimeout,
		settleDelay: settleDelay,
		log:         logger,
	}
}

func (r *AttemptRunner) RunAttempt(ctx context.Context, unit *model.MigrationUnit, creds usecase.Credentials) model.StepOutcome {
	page, err := r.engine.NewPage()
	if err != nil {
		return model.Transient(model.StepNavigateLogin, "browser tab unavailable")
	}
	defer page.Close()

	runner := usecase.NewStepRunner(page, r.sessions, r.locks, r.site, r.stepTimeout, r.settleDelay, r.log)
	out := runner.RunAttempt(ctx, unit, creds)
	metrics.ObserveStep(string(out.Step), string(out.Class))
	return out
}
