package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"marketplace-migrator/internal/domain"
	"marketplace-migrator/internal/domain/ports/repository"
)

// AccountLocker serializes destination logins per account with a SetNX
// lease. Release is token-checked so a holder whose TTL expired cannot
// delete a successor's lock.
type AccountLocker struct {
	cli *redis.Client
}

var _ repository.AccountLocker = (*AccountLocker)(nil)

func NewAccountLocker(c *Client) *AccountLocker {
	return &AccountLocker{cli: c.cli}
}

func lockKey(accountKey string) string { return "migrator:lock:account:" + accountKey }

func (l *AccountLocker) Acquire(ctx context.Context, accountKey string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < 40; i++ { // login steals the lock for up to TTL; poll, don't spin
		ok, err := l.cli.SetNX(ctx, lockKey(accountKey), token, ttl).Result()
		if err == nil && ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return "", domain.ErrAccountLocked
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *AccountLocker) Release(ctx context.Context, accountKey, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{lockKey(accountKey)}, token).Result()
	return err
}
