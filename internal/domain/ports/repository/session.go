package repository

import (
	"context"

	"marketplace-migrator/internal/domain/model"
)

// SessionStore persists the opaque authentication token set per destination
// account.
//
// Load returns (nil, nil) when no usable record exists; a corrupt record is
// treated the same as a missing one so that callers fall back to a fresh
// login. Save overwrites atomically from the caller's perspective.
type SessionStore interface {
	Load(ctx context.Context, accountKey string) (*model.SessionToken, error)
	Save(ctx context.Context, token *model.SessionToken) error
	Invalidate(ctx context.Context, accountKey string) error
}
