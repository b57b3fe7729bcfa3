package adapter

import (
	"context"

	"marketplace-migrator/internal/domain/model"
)

// WebhookPayload is the normalized product record pushed to an external
// automation trigger in webhook mode.
type WebhookPayload struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Price       string         `json:"price"`
	FileURL     string         `json:"file_url"`
	ImageURL    string         `json:"image_url,omitempty"`
	Type        string         `json:"type,omitempty"`
	Permalink   string         `json:"permalink,omitempty"`
	UserEmail   string         `json:"user_email,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
	Cookies     []model.Cookie `json:"cookies,omitempty"` // session continuity
}

// WebhookResult carries the classified outcome of one delivery. A 2xx
// response may return a refreshed cookie set to persist.
type WebhookResult struct {
	StatusCode int
	Cookies    []model.Cookie
}

// WebhookDeliverer posts one payload to the configured trigger URL.
type WebhookDeliverer interface {
	Deliver(ctx context.Context, payload WebhookPayload) (WebhookResult, error)
}
