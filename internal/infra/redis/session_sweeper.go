package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"marketplace-migrator/internal/domain/model"
)

// SessionSweeper removes session tokens that are old enough to be almost
// certainly stale, so a restore attempt does not waste a login round-trip
// on them. Needs SCAN, hence the raw client.
type SessionSweeper struct {
	cli *redis.Client
}

func NewSessionSweeper(c *Client) *SessionSweeper {
	return &SessionSweeper{cli: c.cli}
}

// SweepOlderThan deletes tokens captured before now-maxAge, plus any record
// that no longer parses. Returns the number of deleted keys.
func (s *SessionSweeper) SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	iter := s.cli.Scan(ctx, 0, sessionKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.cli.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		var token model.SessionToken
		if json.Unmarshal([]byte(raw), &token) != nil || token.CapturedAt.Before(cutoff) {
			if s.cli.Del(ctx, key).Err() == nil {
				removed++
			}
		}
	}
	return removed, iter.Err()
}
