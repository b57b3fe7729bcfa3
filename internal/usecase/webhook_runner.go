package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/adapter"
	"marketplace-migrator/internal/domain/ports/repository"
)

// WebhookRunner is the webhook-mode counterpart of StepRunner: the full step
// sequence collapses to a single HTTP POST of the normalized product record
// to an external automation trigger. Response codes classify the outcome.
type WebhookRunner struct {
	deliverer adapter.WebhookDeliverer
	sessions  repository.SessionStore
	log       *zerolog.Logger
}

func NewWebhookRunner(deliverer adapter.WebhookDeliverer, sessions repository.SessionStore, logger *zerolog.Logger) *WebhookRunner {
	l := logger.With().Str("component", "WebhookRunner").Logger()
	return &WebhookRunner{deliverer: deliverer, sessions: sessions, log: &l}
}

func (r *WebhookRunner) RunAttempt(ctx context.Context, unit *model.MigrationUnit, creds Credentials) model.StepOutcome {
	p := &unit.Product
	payload := adapter.WebhookPayload{
		Title:       p.Title,
		Description: PlainText(p.Description),
		Price:       p.PriceString(),
		FileURL:     p.FileRef,
		ImageURL:    p.ImageRef,
		Type:        p.Type,
		Permalink:   p.Permalink,
		UserEmail:   p.UserEmail,
	}
	if !p.CreatedAt.IsZero() {
		payload.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	if !p.UpdatedAt.IsZero() {
		payload.UpdatedAt = p.UpdatedAt.Format(time.RFC3339)
	}
	if tok, err := r.sessions.Load(ctx, creds.AccountKey); err == nil && tok != nil {
		payload.Cookies = tok.Cookies
	}

	res, err := r.deliverer.Deliver(ctx, payload)
	if err != nil {
		// Network-level failure, no response observed.
		return model.Transient(model.StepWebhookPost, "webhook endpoint unreachable")
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		if len(res.Cookies) > 0 {
			tok := &model.SessionToken{AccountKey: creds.AccountKey, Cookies: res.Cookies, CapturedAt: time.Now()}
			if err := r.sessions.Save(ctx, tok); err != nil {
				r.log.Warn().Err(err).Str("account", creds.AccountKey).Msg("refreshed cookie save failed")
			}
		}
		return model.OK(model.StepWebhookPost)
	case res.StatusCode >= 500:
		return model.Transient(model.StepWebhookPost, "webhook endpoint returned a server error")
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return model.Terminal(model.StepWebhookPost, "webhook endpoint rejected our credentials")
	default: // remaining 4xx
		return model.Terminal(model.StepWebhookPost, "webhook endpoint rejected the payload")
	}
}
