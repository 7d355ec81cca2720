package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tracker/pkg/platform/sentinel"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockRetry = 25 * time.Millisecond
	lockKeyPrefix    = "tracker:lock:"
)

// releaseScript deletes the key only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lock shared by every server instance. A holder that dies keeps
// the key until its TTL lapses.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Redis{client: client, ttl: ttl, retry: defaultLockRetry}
}

// Lock polls SET NX until it owns key or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()
	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w: %v", key, sentinel.ErrUnavailable, err)
		}
		if ok {
			return func() {
				// release must outlive a cancelled request context
				ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w: %v", key, sentinel.ErrLockHeld, ctx.Err())
		case <-ticker.C:
		}
	}
}
