package repository

import (
	"context"
	"time"
)

// AccountLocker serializes session access and interactive login per
// destination account. Units for different accounts proceed in parallel;
// units sharing an account queue on this lock for the authenticate phase.
type AccountLocker interface {
	// Acquire blocks briefly trying to take the lock; returns an opaque token
	// to release with, or domain.ErrAccountLocked when it cannot.
	Acquire(ctx context.Context, accountKey string, ttl time.Duration) (token string, err error)
	Release(ctx context.Context, accountKey, token string) error
}
