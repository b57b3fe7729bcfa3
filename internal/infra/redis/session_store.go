package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace-migrator/internal/domain/model"
	"marketplace-migrator/internal/domain/ports/repository"
	"marketplace-migrator/internal/infra/metrics"
)

// SessionStore keeps one JSON session token per destination account.
// A corrupt record reads as absent; the caller then performs a fresh login
// and overwrites it, which is self-healing enough for cookie material.
type SessionStore struct {
	cli RedisClient
	ttl time.Duration // 0 means no expiry; staleness is detected empirically
}

var _ repository.SessionStore = (*SessionStore)(nil)

func NewSessionStore(cli RedisClient, ttl time.Duration) *SessionStore {
	return &SessionStore{cli: cli, ttl: ttl}
}

func sessionKey(accountKey string) string { return "migrator:session:" + accountKey }

func (s *SessionStore) Load(ctx context.Context, accountKey string) (*model.SessionToken, error) {
	raw, err := s.cli.Get(ctx, sessionKey(accountKey))
	if err != nil {
		if IsNil(err) {
			metrics.IncSessionRestore(false)
			return nil, nil
		}
		return nil, fmt.Errorf("load session %s: %w", accountKey, err)
	}
	var token model.SessionToken
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		metrics.IncSessionRestore(false)
		return nil, nil
	}
	metrics.IncSessionRestore(true)
	return &token, nil
}

func (s *SessionStore) Save(ctx context.Context, token *model.SessionToken) error {
	b, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", token.AccountKey, err)
	}
	if err := s.cli.Set(ctx, sessionKey(token.AccountKey), string(b), s.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", token.AccountKey, err)
	}
	return nil
}

// Invalidate drops a session the caller found stale (cookies applied yet
// the login form still rendered).
func (s *SessionStore) Invalidate(ctx context.Context, accountKey string) error {
	if err := s.cli.Del(ctx, sessionKey(accountKey)); err != nil {
		return fmt.Errorf("invalidate session %s: %w", accountKey, err)
	}
	metrics.IncSessionStale()
	return nil
}
