package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain"
	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
	"marketplace-migrator/internal/domain/ports/repository"
)

// Credentials describe one destination account. AccountKey keys the session
// store and the per-account lock; the email/password pair is only touched
// when no stored session survives.
type Credentials struct {
	AccountKey string
	Email      string
	Password   string
}

// probeTimeout is how long presence probes (login form, error banners) wait
// before concluding absence.
const probeTimeout = 3 * time.Second

// loginLockTTL caps how long an authenticate phase may hold the per-account
// lock before it self-expires.
const loginLockTTL = 2 * time.Minute

// StepRunner executes the fixed step sequence of one browser upload attempt:
// navigate(login) -> restore/authenticate -> navigate(create form) ->
// fill fields -> attach asset -> submit -> verify. Each step has its own
// timeout; failures come back classified, never as errors.
type StepRunner struct {
	page     adapter.PageController
	sessions repository.SessionStore
	locks    repository.AccountLocker
	site     adapter.SiteProfile

	stepTimeout time.Duration
	settleDelay time.Duration
	log         *zerolog.Logger
}

func NewStepRunner(
	page adapter.PageController,
	sessions repository.SessionStore,
	locks repository.AccountLocker,
	site adapter.SiteProfile,
	stepTimeout, settleDelay time.Duration,
	logger *zerolog.Logger,
) *StepRunner {
	if stepTimeout <= 0 {
		stepTimeout = 30 * time.Second
	}
	if settleDelay <= 0 {
		settleDelay = 500 * time.Millisecond
	}
	l := logger.With().Str("component", "StepRunner").Logger()
	return &StepRunner{
		page:        page,
		sessions:    sessions,
		locks:       locks,
		site:        site,
		stepTimeout: stepTimeout,
		settleDelay: settleDelay,
		log:         &l,
	}
}

// RunAttempt executes one full attempt for the unit. Attempts always start
// over from the login navigation; the session store makes re-authentication
// a no-op when the stored cookies still work.
func (r *StepRunner) RunAttempt(ctx context.Context, unit *model.MigrationUnit, creds Credentials) model.StepOutcome {
	if out, ok := r.authenticated(ctx, creds); !ok {
		return out
	}
	if out := r.navigateCreateForm(ctx); out.Class != model.OutcomeOK {
		return out
	}
	if out := r.fillFields(ctx, &unit.Product); out.Class != model.OutcomeOK {
		return out
	}
	if out := r.attachAsset(ctx, &unit.Product); out.Class != model.OutcomeOK {
		return out
	}
	return r.submitAndVerify(ctx)
}

// authenticated takes the unit through login, serialized per account. The
// lock covers session restore, the staleness probe, and the interactive
// login, so two units sharing an account never race a fresh login.
func (r *StepRunner) authenticated(ctx context.Context, creds Credentials) (model.StepOutcome, bool) {
	lockTok, err := r.locks.Acquire(ctx, creds.AccountKey, loginLockTTL)
	if err != nil {
		return model.Transient(model.StepAuthenticate, "account busy, login slot not acquired"), false
	}
	defer func() { _ = r.locks.Release(context.Background(), creds.AccountKey, lockTok) }()

	// Restore stored cookies before the first navigation.
	restored := false
	if tok, lerr := r.sessions.Load(ctx, creds.AccountKey); lerr == nil && tok != nil {
		if serr := r.withStep(ctx, func(c context.Context) error {
			return r.page.SetCookies(c, tok.Cookies)
		}); serr == nil {
			restored = true
		}
	}

	if out := r.navigate(ctx, model.StepNavigateLogin, r.site.LoginURL); out.Class != model.OutcomeOK {
		return out, false
	}

	// A visible login form decides between LoginSkipped and Authenticating.
	formPresent, err := r.page.IsPresent(ctx, r.site.Selectors.LoginForm, probeTimeout)
	if err != nil {
		return r.classify(model.StepRestoreSession, err), false
	}
	if !formPresent {
		return model.OK(model.StepRestoreSession), true
	}
	if restored {
		// Cookies were applied yet the login form rendered: stale session.
		if ierr := r.sessions.Invalidate(ctx, creds.AccountKey); ierr != nil {
			r.log.Warn().Err(ierr).Str("account", creds.AccountKey).Msg("invalidate stale session failed")
		}
	}
	return r.login(ctx, creds), true
}

func (r *StepRunner) login(ctx context.Context, creds Credentials) model.StepOutcome {
	sel := r.site.Selectors
	fills := []struct{ selector, value string }{
		{sel.LoginEmail, creds.Email},
		{sel.LoginPassword, creds.Password},
	}
	for _, f := range fills {
		if err := r.withStep(ctx, func(c context.Context) error {
			return r.page.Fill(c, f.selector, f.value)
		}); err != nil {
			return r.classify(model.StepAuthenticate, err)
		}
		if err := sleepCtx(ctx, r.settleDelay); err != nil {
			return model.Transient(model.StepAuthenticate, "cancelled")
		}
	}
	if err := r.withStep(ctx, func(c context.Context) error {
		return r.page.Click(c, sel.LoginSubmit)
	}); err != nil {
		return r.classify(model.StepAuthenticate, err)
	}

	// Wait for the post-submit page, then look for a rejection banner.
	waitErr := r.page.WaitVisible(ctx, sel.LoginForm+","+sel.LoginError, probeTimeout)
	if errPresent, _ := r.page.IsPresent(ctx, sel.LoginError, probeTimeout); errPresent {
		return model.Terminal(model.StepAuthenticate, domain.ErrBadCredentials.Error())
	}
	if challenged, _ := r.page.IsPresent(ctx, sel.BotChallenge, probeTimeout); challenged {
		return model.Terminal(model.StepAuthenticate, domain.ErrBotChallenge.Error())
	}
	if formStill, _ := r.page.IsPresent(ctx, sel.LoginForm, probeTimeout); formStill {
		detail := "login form still present after submit"
		if waitErr != nil {
			detail = "login navigation did not complete"
		}
		return model.Transient(model.StepAuthenticate, detail)
	}

	// Logged in: capture fresh cookies for the next run.
	cookies, err := r.page.Cookies(ctx)
	if err != nil {
		return r.classify(model.StepAuthenticate, err)
	}
	tok := &model.SessionToken{AccountKey: creds.AccountKey, Cookies: cookies, CapturedAt: time.Now()}
	if err := r.sessions.Save(ctx, tok); err != nil {
		// The attempt can still proceed on the live browser session.
		r.log.Warn().Err(err).Str("account", creds.AccountKey).Msg("session save failed")
	}
	return model.OK(model.StepAuthenticate)
}

func (r *StepRunner) navigateCreateForm(ctx context.Context) model.StepOutcome {
	if out := r.navigate(ctx, model.StepNavigateCreate, r.site.CreateFormURL); out.Class != model.OutcomeOK {
		return out
	}
	if err := r.page.WaitVisible(ctx, r.site.Selectors.TitleField, r.stepTimeout); err != nil {
		return r.classify(model.StepNavigateCreate, err)
	}
	return model.OK(model.StepNavigateCreate)
}

func (r *StepRunner) fillFields(ctx context.Context, p *model.Product) model.StepOutcome {
	sel := r.site.Selectors
	fills := []struct{ selector, value string }{
		{sel.TitleField, p.Title},
		{sel.DescriptionField, PlainText(p.Description)},
		{sel.PriceField, p.PriceString()},
	}
	for _, f := range fills {
		if err := ctx.Err(); err != nil {
			return model.Transient(model.StepFillFields, "cancelled")
		}
		if err := r.withStep(ctx, func(c context.Context) error {
			return r.page.Fill(c, f.selector, f.value)
		}); err != nil {
			return r.classify(model.StepFillFields, err)
		}
		if err := sleepCtx(ctx, r.settleDelay); err != nil {
			return model.Transient(model.StepFillFields, "cancelled")
		}
	}
	return model.OK(model.StepFillFields)
}

func (r *StepRunner) attachAsset(ctx context.Context, p *model.Product) model.StepOutcome {
	if p.FileRef == "" {
		return model.OK(model.StepAttachAsset)
	}
	if !p.HasLocalAsset() {
		// Known limitation: remote assets are not downloaded first. The
		// listing goes up without the file and the caller sees the skip.
		r.log.Warn().Str("source_id", p.SourceID).Str("file_ref", p.FileRef).
			Msg("remote asset reference, skipping file attach")
		return model.StepOutcome{Step: model.StepAttachAsset, Class: model.OutcomeOK, Detail: "remote asset skipped"}
	}
	if err := r.withStep(ctx, func(c context.Context) error {
		return r.page.SetInputFile(c, r.site.Selectors.FileInput, p.FileRef)
	}); err != nil {
		return r.classify(model.StepAttachAsset, err)
	}
	return model.OK(model.StepAttachAsset)
}

// submitAndVerify is the sole side-effecting step. Once the submit click is
// issued the outcome must be observed before control returns, so the whole
// section runs detached from the caller's cancellation; only the step
// timeout bounds it. That guarantees a retry can never double-submit while
// a prior submission's result is unknown.
func (r *StepRunner) submitAndVerify(ctx context.Context) model.StepOutcome {
	if err := ctx.Err(); err != nil {
		return model.Transient(model.StepSubmit, "cancelled before submit")
	}
	sub := context.WithoutCancel(ctx)
	sub, cancel := context.WithTimeout(sub, r.stepTimeout)
	defer cancel()

	if err := r.page.Click(sub, r.site.Selectors.SubmitButton); err != nil {
		return r.classify(model.StepSubmit, err)
	}

	sel := r.site.Selectors
	if err := r.page.WaitVisible(sub, sel.SuccessIndicator, r.stepTimeout); err != nil {
		if challenged, _ := r.page.IsPresent(sub, sel.BotChallenge, probeTimeout); challenged {
			return model.Terminal(model.StepVerify, domain.ErrBotChallenge.Error())
		}
		if banner, _ := r.page.IsPresent(sub, sel.LoginError, probeTimeout); banner {
			return model.Terminal(model.StepVerify, "destination rejected the listing")
		}
		return model.Transient(model.StepVerify, "no confirmation within step timeout")
	}
	return model.OK(model.StepVerify)
}

func (r *StepRunner) navigate(ctx context.Context, step model.Step, url string) model.StepOutcome {
	if err := ctx.Err(); err != nil {
		return model.Transient(step, "cancelled")
	}
	if err := r.withStep(ctx, func(c context.Context) error {
		return r.page.Navigate(c, url)
	}); err != nil {
		return r.classify(step, err)
	}
	if challenged, _ := r.page.IsPresent(ctx, r.site.Selectors.BotChallenge, probeTimeout); challenged {
		return model.Terminal(step, domain.ErrBotChallenge.Error())
	}
	return model.OK(step)
}

// withStep bounds one page interaction with the per-step timeout.
func (r *StepRunner) withStep(ctx context.Context, fn func(ctx context.Context) error) error {
	c, cancel := context.WithTimeout(ctx, r.stepTimeout)
	defer cancel()
	return fn(c)
}

// classify maps a raw page-control error to a step outcome. A timeout with
// no other signal is transient; everything unrecognized is transient too,
// because terminal conditions are detected by explicit probes, not errors.
func (r *StepRunner) classify(step model.Step, err error) model.StepOutcome {
	switch {
	case errors.Is(err, domain.ErrBotChallenge):
		return model.Terminal(step, domain.ErrBotChallenge.Error())
	case errors.Is(err, domain.ErrBadCredentials):
		return model.Terminal(step, domain.ErrBadCredentials.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return model.Transient(step, "step timed out")
	case errors.Is(err, context.Canceled):
		return model.Transient(step, "cancelled")
	default:
		return model.Transient(step, "page action failed")
	}
}
