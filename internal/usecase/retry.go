package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain/model"
)

// RetryPolicy configures the attempt loop for one migration unit.
type RetryPolicy struct {
	MaxAttempts int           // default 3
	Delay       time.Duration // base inter-attempt delay, default 5s
	// ScaleDelay multiplies the delay by the attempt number. Used for
	// webhook units; browser units keep a fixed delay.
	ScaleDelay bool
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Delay <= 0 {
		p.Delay = 5 * time.Second
	}
	return p
}

// StepFunc runs one full upload attempt for a unit and reports its outcome.
// Attempts always restart from the beginning of the step sequence; the
// session store short-circuits re-authentication and the create-form submit
// is the sole side-effecting step, which the runner resolves before
// returning. That is what makes the blind restart idempotent.
type StepFunc func(ctx context.Context, attempt int) model.StepOutcome

// RetryCoordinator drives a unit through bounded retry with an explicit
// attempt loop, so attempt counts and cancellation stay observable.
type RetryCoordinator struct {
	log *zerolog.Logger
}

func NewRetryCoordinator(logger *zerolog.Logger) *RetryCoordinator {
	l := logger.With().Str("component", "RetryCoordinator").Logger()
	return &RetryCoordinator{log: &l}
}

// Run executes step up to policy.MaxAttempts times, recording the attempt
// count on the unit. A terminal outcome aborts remaining budget immediately;
// a transient outcome on the final attempt is returned as the unit's failure.
func (c *RetryCoordinator) Run(ctx context.Context, unit *model.MigrationUnit, step StepFunc, policy RetryPolicy) model.StepOutcome {
	policy = policy.normalized()

	var out model.StepOutcome
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		unit.Attempts = attempt
		out = step(ctx, attempt)

		switch out.Class {
		case model.OutcomeOK:
			return out
		case model.OutcomeTerminal:
			c.log.Warn().Str("unit_id", unit.ID).Str("step", string(out.Step)).
				Str("detail", out.Detail).Msg("terminal failure, aborting retries")
			return out
		}

		if attempt == policy.MaxAttempts {
			break
		}
		delay := policy.Delay
		if policy.ScaleDelay {
			delay = time.Duration(attempt) * policy.Delay
		}
		c.log.Debug().Str("unit_id", unit.ID).Int("attempt", attempt).
			Dur("delay", delay).Str("detail", out.Detail).Msg("transient failure, backing off")
		if err := sleepCtx(ctx, delay); err != nil {
			return model.Transient(out.Step, "cancelled while waiting to retry")
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
